package localfs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/storage"
)

// NewRecordStore creates a record store on the given filesystem,
// laying records out as <did>/<collection>/<rkey>.json. A nil fs
// defaults to the OS filesystem rooted at .wisp/records.
func NewRecordStore(fs afero.Fs) storage.RecordStore {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".wisp", "records"))
	}
	return &recordFS{fs: fs}
}

type recordFS struct {
	fs afero.Fs
}

func (r *recordFS) PutRecord(ctx context.Context, did, collection, rkey string, record interface{}) (string, error) {
	data, err := model.MarshalRecord(record)
	if err != nil {
		return "", errors.Wrap(err, "serializing record")
	}
	uri := model.ATURI{DID: did, Collection: collection, RKey: rkey}
	key := recordKey(uri)
	if err := r.fs.MkdirAll(filepath.Dir(key), 0700); err != nil {
		return "", errors.Wrapf(err, "ensuring directories for %q", key)
	}
	if err := afero.WriteFile(r.fs, key, data, 0600); err != nil {
		return "", errors.Wrapf(err, "writing record %q", uri.String())
	}
	return uri.String(), nil
}

func (r *recordFS) GetRecord(ctx context.Context, uri string, into interface{}) error {
	parsed, err := model.ParseATURI(uri)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(r.fs, recordKey(parsed))
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return errors.Wrapf(err, "reading record %q", uri)
	}
	return model.UnmarshalRecord(data, into)
}

func (r *recordFS) DeleteRecord(ctx context.Context, uri string) error {
	parsed, err := model.ParseATURI(uri)
	if err != nil {
		return err
	}
	if err := r.fs.Remove(recordKey(parsed)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting record %q", uri)
	}
	return nil
}

func recordKey(uri model.ATURI) string {
	return filepath.Join(uri.DID, uri.Collection, uri.RKey+".json")
}
