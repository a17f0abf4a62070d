// Package storage defines the interfaces the manifest engine requires
// from the external content-addressed repository: a blob store for file
// content and a record store for manifest and subfs records.
//
// Implementations are assumed to be simple. The store's own content
// addressing must match wcid.Compute exactly, otherwise dedup
// comparisons between local and remote identifiers are meaningless.
package storage

import (
	"context"

	"github.com/WaveringAna/wisp/pkg/model"
)

type errString string

func (e errString) Error() string { return string(e) }

const (
	// ErrNotFound is returned for keys or URIs with no stored object
	ErrNotFound errString = "not found"

	// ErrExists is returned when an exclusive put finds the key taken
	ErrExists errString = "exists already"
)

// BlobStore stores opaque binary content addressed by CID
type BlobStore interface {
	// Put stores a payload and returns its reference. The reference's
	// CID covers the exact bytes given.
	Put(ctx context.Context, data []byte, mimeType string) (*model.BlobRef, error)

	// Get returns the payload for a CID
	Get(ctx context.Context, cid string) ([]byte, error)

	// Has reports whether a CID is already stored
	Has(ctx context.Context, cid string) (bool, error)
}

// RecordStore persists JSON records in per-collection keyspaces.
//
// Write ordering is the caller's contract: a record must be committed
// before any record referencing it.
type RecordStore interface {
	// PutRecord stores a record and returns its at:// URI
	PutRecord(ctx context.Context, did, collection, rkey string, record interface{}) (string, error)

	// GetRecord loads the record at uri into the given value
	GetRecord(ctx context.Context, uri string, into interface{}) error

	// DeleteRecord removes the record at uri. Deleting a missing record
	// is not an error.
	DeleteRecord(ctx context.Context, uri string) error
}

// RecordFetcher is the read-side subset of RecordStore needed to resolve
// subfs references
type RecordFetcher interface {
	GetRecord(ctx context.Context, uri string, into interface{}) error
}
