// Package memory holds in-memory blob and record stores. Tests use them
// to assert commit ordering; the CLI uses the record store as its local
// record staging area.
package memory

import (
	"context"
	"sync"

	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/storage"
	"github.com/WaveringAna/wisp/pkg/wcid"
)

// NewBlobStore creates an empty in-memory blob store
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: map[string][]byte{}}
}

// BlobStore keeps blobs in a map, keyed by CID
type BlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// PutCount tallies store writes, letting tests assert that reused
	// content was not re-uploaded
	PutCount int
}

func (s *BlobStore) Put(ctx context.Context, data []byte, mimeType string) (*model.BlobRef, error) {
	cid := wcid.Compute(data)
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[cid] = cp
	s.PutCount++
	return model.NewBlobRef(cid, mimeType, int64(len(data))), nil
}

func (s *BlobStore) Get(ctx context.Context, cid string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[cid]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *BlobStore) Has(ctx context.Context, cid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[cid]
	return ok, nil
}

// NewRecordStore creates an empty in-memory record store
func NewRecordStore() *RecordStore {
	return &RecordStore{records: map[string][]byte{}}
}

// RecordStore keeps serialized records keyed by at:// URI and remembers
// the order in which they were committed.
type RecordStore struct {
	mu      sync.Mutex
	records map[string][]byte

	// CommitOrder lists URIs in the order PutRecord was called
	CommitOrder []string
}

func (s *RecordStore) PutRecord(ctx context.Context, did, collection, rkey string, record interface{}) (string, error) {
	data, err := model.MarshalRecord(record)
	if err != nil {
		return "", err
	}
	uri := model.ATURI{DID: did, Collection: collection, RKey: rkey}.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[uri] = data
	s.CommitOrder = append(s.CommitOrder, uri)
	return uri, nil
}

func (s *RecordStore) GetRecord(ctx context.Context, uri string, into interface{}) error {
	s.mu.Lock()
	data, ok := s.records[uri]
	s.mu.Unlock()
	if !ok {
		return storage.ErrNotFound
	}
	return model.UnmarshalRecord(data, into)
}

func (s *RecordStore) DeleteRecord(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, uri)
	return nil
}

// Has reports whether a record exists at uri
func (s *RecordStore) Has(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[uri]
	return ok
}

var (
	_ storage.BlobStore   = &BlobStore{}
	_ storage.RecordStore = &RecordStore{}
)
