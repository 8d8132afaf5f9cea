package session

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"hiveterm/internal/logging"
)

// ScriptSource plays back a scripted agent from a YAML file, chunked like
// a live stream. A turn marked await_submission blocks until the user
// completes the pending widget, so demo scripts can react to form flow.
type ScriptSource struct {
	turns   []scriptTurn
	chunk   int
	replies chan []byte
}

type scriptTurn struct {
	Text            string `yaml:"text"`
	DelayMs         int    `yaml:"delay_ms"`
	AwaitSubmission bool   `yaml:"await_submission"`
}

type scriptFile struct {
	Turns []scriptTurn `yaml:"turns"`
}

// LoadScript parses a demo script from disk.
func LoadScript(path string, chunkSize int) (*ScriptSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf scriptFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	if len(sf.Turns) == 0 {
		return nil, fmt.Errorf("script %s has no turns", path)
	}
	return NewScriptSource(sf.Turns, chunkSize), nil
}

func NewScriptSource(turns []scriptTurn, chunkSize int) *ScriptSource {
	if chunkSize <= 0 {
		chunkSize = 64
	}
	return &ScriptSource{
		turns:   turns,
		chunk:   chunkSize,
		replies: make(chan []byte, 8),
	}
}

// Deliver accepts a submission payload from the render engine. It is a
// submit.Deliverer; awaiting turns unblock on it.
func (s *ScriptSource) Deliver(ctx context.Context, payload []byte) error {
	select {
	case s.replies <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ScriptSource) Stream(ctx context.Context, emit func(string) error) error {
	log := logging.Get(logging.CategorySession)

	for i, turn := range s.turns {
		if turn.DelayMs > 0 {
			select {
			case <-time.After(time.Duration(turn.DelayMs) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for off := 0; off < len(turn.Text); off += s.chunk {
			end := off + s.chunk
			if end > len(turn.Text) {
				end = len(turn.Text)
			}
			if err := emit(turn.Text[off:end]); err != nil {
				return err
			}
		}

		if turn.AwaitSubmission {
			log.Debug("script awaiting submission", zap.Int("turn", i))
			select {
			case payload := <-s.replies:
				log.Debug("script received submission", zap.Int("bytes", len(payload)))
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
