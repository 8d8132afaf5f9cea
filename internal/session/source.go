// Package session connects a chunk source to the scanner and decoder and
// exposes the resulting event stream to the render engine. A source is
// anything that yields agent output in arbitrary chunks: a live reader, a
// transcript file under tail, or a scripted demo agent.
package session

import (
	"context"
	"io"
)

// Source produces one session's worth of stream chunks. Implementations
// call emit for every chunk in order and return when the stream ends.
// Chunk boundaries carry no meaning; the scanner reassembles across them.
type Source interface {
	Stream(ctx context.Context, emit func(chunk string) error) error
}

// ReaderSource streams an io.Reader in fixed-size chunks. It backs both
// stdin piping and transcript replay.
type ReaderSource struct {
	r     io.Reader
	chunk int
}

func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = 256
	}
	return &ReaderSource{r: r, chunk: chunkSize}
}

func (s *ReaderSource) Stream(ctx context.Context, emit func(string) error) error {
	buf := make([]byte, s.chunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.r.Read(buf)
		if n > 0 {
			if emitErr := emit(string(buf[:n])); emitErr != nil {
				return emitErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
