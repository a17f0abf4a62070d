// Package localfs is a file-system-backed blob store, used by the CLI
// for local staging and by tests. Blobs are keyed by CID, sharded into
// two-character prefix directories to keep directory sizes manageable.
package localfs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/storage"
	"github.com/WaveringAna/wisp/pkg/wcid"
)

// New creates a blob store on the given filesystem. A nil fs defaults to
// the OS filesystem rooted at .wisp/blobs.
func New(fs afero.Fs) storage.BlobStore {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".wisp", "blobs"))
	}
	return &localFS{fs: fs}
}

type localFS struct {
	fs afero.Fs
}

func (l *localFS) Put(ctx context.Context, data []byte, mimeType string) (*model.BlobRef, error) {
	cid := wcid.Compute(data)
	key := shard(cid)
	if err := l.fs.MkdirAll(filepath.Dir(key), 0700); err != nil {
		return nil, errors.Wrapf(err, "ensuring directories for %q", key)
	}
	if err := afero.WriteFile(l.fs, key, data, 0600); err != nil {
		return nil, errors.Wrapf(err, "writing blob %q", cid)
	}
	return model.NewBlobRef(cid, mimeType, int64(len(data))), nil
}

func (l *localFS) Get(ctx context.Context, cid string) ([]byte, error) {
	data, err := afero.ReadFile(l.fs, shard(cid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "reading blob %q", cid)
	}
	return data, nil
}

func (l *localFS) Has(ctx context.Context, cid string) (bool, error) {
	fi, err := l.fs.Stat(shard(cid))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

func shard(cid string) string {
	if len(cid) < 2 {
		return cid
	}
	return filepath.Join(cid[:2], cid)
}
