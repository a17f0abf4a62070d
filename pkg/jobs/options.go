package jobs

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Registry
type Option func(*Registry)

// TTL overrides how long a job is retained after creation. The clock
// starts at Create and is independent of how or when the job ends.
func TTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// TerminalDelay overrides the pause between a job reaching a terminal
// status and the terminal event being emitted, which lets subscribers
// observe the final progress frame first.
func TerminalDelay(d time.Duration) Option {
	return func(r *Registry) {
		if d >= 0 {
			r.terminalDelay = d
		}
	}
}

// Clock overrides the registry's time source for timestamps
func Clock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Logger sets the registry's logger
func Logger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.l = l
		}
	}
}
