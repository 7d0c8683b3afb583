package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-sendmoney/pkg/session"
)

// Option configures an Engine during construction.
type Option func(*Engine)

// WithLogger attaches a structured logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithSessionGate makes the submit and history flows conditional on an
// established session. Without a gate the engine trusts its host.
func WithSessionGate(gate *session.Gate) Option {
	return func(e *Engine) {
		e.gate = gate
	}
}

// WithClock overrides the timestamp source used for createdAt snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
