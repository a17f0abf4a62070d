package localfs

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/storage"
)

func TestRecordFSRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore(afero.NewMemMapFs())

	manifest := model.NewManifest("blog", model.NewDirectory(nil), 0,
		time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	uri, err := store.PutRecord(ctx, "did:plc:abc", model.FsCollection, "blog", manifest)
	require.NoError(t, err)
	assert.Equal(t, "at://did:plc:abc/place.wisp.fs/blog", uri)

	var back model.Manifest
	require.NoError(t, store.GetRecord(ctx, uri, &back))
	assert.Equal(t, "blog", back.Site)
	assert.Equal(t, model.ManifestType, back.Type)
	assert.True(t, manifest.CreatedAt.Equal(back.CreatedAt))
}

func TestRecordFSMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore(afero.NewMemMapFs())

	var into model.Manifest
	err := store.GetRecord(ctx, "at://did:plc:abc/place.wisp.fs/nope", &into)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	uri, err := store.PutRecord(ctx, "did:plc:abc", model.SubfsCollection, "r1",
		model.NewSubfsRecord(model.NewDirectory(nil)))
	require.NoError(t, err)
	require.NoError(t, store.DeleteRecord(ctx, uri))
	assert.ErrorIs(t, store.GetRecord(ctx, uri, &into), storage.ErrNotFound)

	// deleting a missing record is not an error
	assert.NoError(t, store.DeleteRecord(ctx, uri))
}

func TestRecordFSRejectsMalformedURI(t *testing.T) {
	store := NewRecordStore(afero.NewMemMapFs())
	var into model.Manifest
	assert.Error(t, store.GetRecord(context.Background(), "https://example.com/x", &into))
}
