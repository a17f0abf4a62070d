package engine

import (
	"context"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/storage"
	"github.com/WaveringAna/wisp/pkg/wcid"
)

// Restore is the read-side inverse of the upload pipeline: it walks a
// resolved tree, fetches every file's blob and writes the decoded
// content onto fs under the tree path. Unfetchable or undecodable
// blobs are skipped with a warning; a filesystem write error is fatal.
// The count of files written is returned.
func Restore(ctx context.Context, blobs storage.BlobStore, root *model.Directory, fs afero.Fs, l *zap.Logger) (int, error) {
	if l == nil {
		l = zap.NewNop()
	}
	return restoreDir(ctx, blobs, root, "", fs, l)
}

func restoreDir(ctx context.Context, blobs storage.BlobStore, dir *model.Directory, prefix string, fs afero.Fs, l *zap.Logger) (int, error) {
	written := 0
	for _, e := range dir.Entries {
		target := path.Join(prefix, e.Name)
		switch n := e.Node.(type) {
		case *model.Directory:
			if err := fs.MkdirAll(target, 0755); err != nil {
				return written, errors.Wrapf(err, "creating directory %q", target)
			}
			count, err := restoreDir(ctx, blobs, n, target, fs, l)
			written += count
			if err != nil {
				return written, err
			}
		case *model.File:
			content, ok := fetchFile(ctx, blobs, n, target, l)
			if !ok {
				continue
			}
			if err := afero.WriteFile(fs, target, content, 0644); err != nil {
				return written, errors.Wrapf(err, "writing %q", target)
			}
			written++
		default:
			// unresolved subfs and unknown nodes carry no content
			l.Warn("skipping entry without content", zap.String("path", target))
		}
	}
	return written, nil
}

func fetchFile(ctx context.Context, blobs storage.BlobStore, f *model.File, target string, l *zap.Logger) ([]byte, bool) {
	cid, ok := wcid.Extract(f.Blob)
	if !ok {
		l.Warn("file has no blob reference, skipping", zap.String("path", target))
		return nil, false
	}
	data, err := blobs.Get(ctx, cid)
	if err != nil {
		l.Warn("failed to fetch blob, skipping",
			zap.String("path", target),
			zap.String("cid", cid),
			zap.Error(err))
		return nil, false
	}
	content, err := DecodeContent(data, f.Base64, f.Encoding == "gzip")
	if err != nil {
		l.Warn("failed to decode blob, skipping",
			zap.String("path", target),
			zap.String("cid", cid),
			zap.Error(err))
		return nil, false
	}
	return content, true
}
