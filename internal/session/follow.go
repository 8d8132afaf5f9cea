package session

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"hiveterm/internal/logging"
)

// FollowSource tails a transcript file: existing content streams first,
// then appended bytes as the writer produces them. The stream ends when
// the file is removed or renamed, or when the context is cancelled.
type FollowSource struct {
	path  string
	chunk int
}

func NewFollowSource(path string, chunkSize int) *FollowSource {
	if chunkSize <= 0 {
		chunkSize = 256
	}
	return &FollowSource{path: path, chunk: chunkSize}
}

func (s *FollowSource) Stream(ctx context.Context, emit func(string) error) error {
	log := logging.Get(logging.CategorySession)

	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// a direct watch goes stale after the first rename.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}
	log.Info("following transcript", zap.String("path", s.path))

	offset, err := s.drain(f, 0, emit)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.path {
				continue
			}
			switch {
			case event.Op&fsnotify.Write != 0:
				offset, err = s.drain(f, offset, emit)
				if err != nil {
					return err
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				log.Info("transcript gone, ending stream", zap.String("op", event.Op.String()))
				return nil
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", zap.Error(werr))
		}
	}
}

// drain reads every byte past offset and emits it in chunks. A file that
// shrank was truncated; restart from the top.
func (s *FollowSource) drain(f *os.File, offset int64, emit func(string) error) (int64, error) {
	if info, err := f.Stat(); err == nil && info.Size() < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, err
	}

	buf := make([]byte, s.chunk)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			offset += int64(n)
			if emitErr := emit(string(buf[:n])); emitErr != nil {
				return offset, emitErr
			}
		}
		if err == io.EOF {
			return offset, nil
		}
		if err != nil {
			return offset, err
		}
	}
}
