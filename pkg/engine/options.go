package engine

import (
	"go.uber.org/zap"

	"github.com/WaveringAna/wisp/pkg/jobs"
	"github.com/WaveringAna/wisp/pkg/split"
)

const defaultWorkers = 5

// Option configures an Uploader
type Option func(*Uploader)

// Logger sets the uploader's logger, shared with the tree transforms
// and the splitter it drives
func Logger(l *zap.Logger) Option {
	return func(u *Uploader) {
		if l != nil {
			u.l = l
		}
	}
}

// Workers caps simultaneous per-file encode and store operations
func Workers(n int) Option {
	return func(u *Uploader) {
		if n > 0 {
			u.workers = n
		}
	}
}

// Registry supplies the jobs registry tracking uploads. Without it the
// uploader constructs its own with default TTL policy.
func Registry(r *jobs.Registry) Option {
	return func(u *Uploader) {
		if r != nil {
			u.registry = r
		}
	}
}

// SplitOptions passes tuning through to the manifest splitter
func SplitOptions(opts ...split.SplitterOption) Option {
	return func(u *Uploader) {
		u.splitOpts = append(u.splitOpts, opts...)
	}
}
