package split

import (
	"go.uber.org/zap"

	"github.com/WaveringAna/wisp/pkg/model"
)

const (
	// DefaultMaxRecordBytes is the serialized-size budget for one record
	DefaultMaxRecordBytes = model.MaxRecordBytes

	// DefaultMaxRecordFiles is the leaf-file budget for one record
	DefaultMaxRecordFiles = 500

	// DefaultResolveRounds bounds recursion through nested subfs records
	DefaultResolveRounds = 10

	// DefaultFetchConcurrency bounds simultaneous record fetches
	DefaultFetchConcurrency = 5
)

// SplitterOption configures a Splitter
type SplitterOption func(*Splitter)

// MaxRecordBytes overrides the serialized-size budget. The authoritative
// threshold is owned by the external store; this one is deliberately
// conservative.
func MaxRecordBytes(n int) SplitterOption {
	return func(s *Splitter) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// MaxRecordFiles overrides the per-record leaf-file budget
func MaxRecordFiles(n int) SplitterOption {
	return func(s *Splitter) {
		if n > 0 {
			s.maxFiles = n
		}
	}
}

// SplitterLogger sets the splitter's logger
func SplitterLogger(l *zap.Logger) SplitterOption {
	return func(s *Splitter) {
		if l != nil {
			s.l = l
		}
	}
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// ResolveRounds overrides the nesting depth bound
func ResolveRounds(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxRounds = n
		}
	}
}

// FetchConcurrency overrides the record-fetch concurrency bound
func FetchConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.fetchLimit = n
		}
	}
}

// ResolverLogger sets the resolver's logger
func ResolverLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.l = l
		}
	}
}
