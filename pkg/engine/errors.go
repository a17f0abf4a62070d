package engine

import (
	"github.com/WaveringAna/wisp/pkg/errors"
)

var (
	// ErrValidation marks an upload with nothing publishable in it
	ErrValidation = errors.New("upload contains no valid files")

	// ErrStore marks a blob or record store failure. The engine does
	// not retry; retry policy belongs to the caller.
	ErrStore = errors.New("external store failure")
)
