package fstree

import (
	"go.uber.org/zap"
)

type treeOpts struct {
	l *zap.Logger
	_ struct{} // disallow unkeyed usage
}

// Option configures the logging behavior of tree transforms
type Option func(*treeOpts)

// WithLogger sets a logger for skip/drop warnings
func WithLogger(l *zap.Logger) Option {
	return func(o *treeOpts) {
		if l != nil {
			o.l = l
		}
	}
}

func defaultOpts(options []Option) *treeOpts {
	o := &treeOpts{l: zap.NewNop()}
	for _, apply := range options {
		apply(o)
	}
	return o
}
