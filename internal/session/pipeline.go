package session

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hiveterm/internal/artifact"
	"hiveterm/internal/logging"
	"hiveterm/internal/stream"
)

// EventKind discriminates pipeline outputs.
type EventKind int

const (
	// EventText is plain prose for the transcript.
	EventText EventKind = iota
	// EventArtifact is a validated artifact ready for rendering.
	EventArtifact
	// EventRejection is a payload that failed decoding; it degrades to text.
	EventRejection
	// EventEnd is the final event of a session. Err carries any source
	// failure; nil means the stream finished cleanly.
	EventEnd
)

// Event is one ordered output of a session pipeline.
type Event struct {
	Kind      EventKind
	Text      string
	Artifact  *artifact.Artifact
	Rejection *artifact.Rejection
	Err       error
}

// Pipeline drives a source through the scanner and decoder and delivers
// ordered events on a channel. One pipeline serves one session.
type Pipeline struct {
	src     Source
	scanner *stream.Scanner
	dec     *artifact.Decoder
	log     *zap.Logger
}

func NewPipeline(src Source, delims stream.Delimiters, dec *artifact.Decoder) *Pipeline {
	if dec == nil {
		dec = artifact.NewDecoder(nil)
	}
	return &Pipeline{
		src:     src,
		scanner: stream.NewScanner(delims),
		dec:     dec,
		log:     logging.Get(logging.CategorySession),
	}
}

// Run starts the pipeline. The returned channel preserves stream order,
// ends with exactly one EventEnd, and is then closed. Cancelling the
// context stops the source and tears the pipeline down.
func (p *Pipeline) Run(ctx context.Context) <-chan Event {
	out := make(chan Event, 32)
	chunks := make(chan string, 16)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)
		return p.src.Stream(ctx, func(chunk string) error {
			select {
			case chunks <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	g.Go(func() error {
		for chunk := range chunks {
			for _, ev := range p.scanner.Feed(chunk) {
				if err := p.dispatch(ctx, ev, out); err != nil {
					return err
				}
			}
		}
		// Flush any unterminated block as visible text.
		for _, ev := range p.scanner.Close() {
			if err := p.dispatch(ctx, ev, out); err != nil {
				return err
			}
		}
		return nil
	})

	go func() {
		err := g.Wait()
		if err != nil && err != context.Canceled {
			p.log.Error("session ended with error", zap.Error(err))
		} else {
			p.log.Info("session ended")
		}
		out <- Event{Kind: EventEnd, Err: err}
		close(out)
	}()

	return out
}

func (p *Pipeline) dispatch(ctx context.Context, ev stream.Event, out chan<- Event) error {
	var send Event
	switch ev.Type {
	case stream.EventText:
		send = Event{Kind: EventText, Text: ev.Text}
	case stream.EventPayload:
		res := p.dec.Decode(ev.Payload)
		if res.OK() {
			p.log.Debug("artifact decoded",
				zap.String("id", res.Artifact.ID),
				zap.String("kind", string(res.Artifact.Kind)))
			send = Event{Kind: EventArtifact, Artifact: res.Artifact}
		} else {
			p.log.Warn("artifact rejected",
				zap.String("reason", string(res.Rejection.Reason)),
				zap.Int("violations", len(res.Rejection.Violations)))
			send = Event{Kind: EventRejection, Rejection: res.Rejection}
		}
	default:
		return nil
	}

	select {
	case out <- send:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
