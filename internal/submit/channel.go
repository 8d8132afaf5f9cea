// Package submit relays completed or declined widget interactions back to
// the agent as the next unit of input on the request stream.
package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Action distinguishes how an interaction ended.
type Action string

const (
	// ActionSubmit: the user completed the widget; Data carries every
	// field value they supplied.
	ActionSubmit Action = "submit"
	// ActionCancel: the user explicitly declined the widget.
	ActionCancel Action = "cancel"
	// ActionAbort: the session ended while the widget was still live. The
	// agent must observe this rather than wait forever.
	ActionAbort Action = "abort"
)

// Result is the output of one retired interactive widget. Exactly one
// Result is produced per widget, and it is consumed exactly once.
type Result struct {
	ArtifactID string
	Action     Action
	Data       map[string]any
}

// Completed reports whether the user finished the widget normally.
func (r Result) Completed() bool { return r.Action == ActionSubmit }

// Submitted builds a completed result.
func Submitted(artifactID string, data map[string]any) Result {
	return Result{ArtifactID: artifactID, Action: ActionSubmit, Data: data}
}

// Cancelled builds an explicit-decline result. Data is empty but present,
// never nil, so the serialized form always carries the data key.
func Cancelled(artifactID string) Result {
	return Result{ArtifactID: artifactID, Action: ActionCancel, Data: map[string]any{}}
}

// Aborted builds a session-teardown result.
func Aborted(artifactID string) Result {
	return Result{ArtifactID: artifactID, Action: ActionAbort, Data: map[string]any{}}
}

// Response is the wire representation the agent's input protocol expects.
type Response struct {
	ArtifactID string         `json:"artifact_id"`
	Action     Action         `json:"action"`
	Data       map[string]any `json:"data"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Encode serializes a Result into the agent-facing response payload.
func Encode(r Result, at time.Time) ([]byte, error) {
	if r.ArtifactID == "" {
		return nil, fmt.Errorf("submission missing artifact id")
	}
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(Response{
		ArtifactID: r.ArtifactID,
		Action:     r.Action,
		Data:       data,
		Timestamp:  at,
	})
}

// Deliverer hands a serialized response to the transport carrying requests
// back to the agent. Retry and backpressure are the transport's problem.
type Deliverer func(ctx context.Context, payload []byte) error

// Channel serializes submissions and delivers them fire-and-forget:
// delivery failures are logged, never surfaced to the render engine.
type Channel struct {
	deliver Deliverer
	log     *zap.Logger
	now     func() time.Time
}

// NewChannel builds a channel over the given deliverer. A nil logger is
// replaced with a no-op one.
func NewChannel(deliver Deliverer, log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{deliver: deliver, log: log, now: time.Now}
}

// Send serializes and delivers one result.
func (c *Channel) Send(ctx context.Context, r Result) {
	payload, err := Encode(r, c.now())
	if err != nil {
		c.log.Error("encode submission", zap.String("artifact_id", r.ArtifactID), zap.Error(err))
		return
	}
	if c.deliver == nil {
		c.log.Debug("submission dropped, no deliverer",
			zap.String("artifact_id", r.ArtifactID), zap.String("action", string(r.Action)))
		return
	}
	if err := c.deliver(ctx, payload); err != nil {
		c.log.Error("deliver submission",
			zap.String("artifact_id", r.ArtifactID), zap.String("action", string(r.Action)), zap.Error(err))
		return
	}
	c.log.Debug("submission delivered",
		zap.String("artifact_id", r.ArtifactID), zap.String("action", string(r.Action)))
}
