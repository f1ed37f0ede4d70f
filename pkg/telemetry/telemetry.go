// Package telemetry provides recorders for the Record(ctx, event, payload)
// hooks exposed by the gateway, panels and dashboard service.
package telemetry

import (
	"context"

	"github.com/rs/zerolog"
)

// Recorder receives named events with structured payloads.
type Recorder interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Multi fans events out to every recorder in order.
type Multi []Recorder

// Record implements Recorder.
func (m Multi) Record(ctx context.Context, event string, payload map[string]any) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, event, payload)
		}
	}
}

// Logger writes events to a zerolog logger at debug level.
type Logger struct {
	Log zerolog.Logger
}

// NewLogger wraps logger.
func NewLogger(logger zerolog.Logger) Logger {
	return Logger{Log: logger.With().Str("component", "telemetry").Logger()}
}

// Record implements Recorder.
func (l Logger) Record(_ context.Context, event string, payload map[string]any) {
	l.Log.Debug().Str("event", event).Fields(payload).Msg("telemetry")
}
