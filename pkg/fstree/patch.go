package fstree

import (
	"strings"

	"go.uber.org/zap"

	"github.com/WaveringAna/wisp/pkg/model"
)

// Patch fills placeholder file nodes with the blob references returned by
// the store, returning a fresh tree plus the tree paths that were dropped.
//
// results and filePaths run in parallel: filePaths[i] is the path under
// which results[i] was uploaded. Paths are matched exactly first, then by
// stripping the synthetic leading folder segment Build may have removed.
// When successful is non-nil, placeholders whose path is absent from it
// are dropped (their upload failed). Placeholders with no matching result
// are also dropped; both cases are non-fatal and reported to the caller.
//
// A normalized path claimed by two distinct upload paths is ambiguous and
// never matched blindly: the affected entry is dropped with a warning
// instead of being patched with whichever result happened to come last.
func Patch(
	dir *model.Directory,
	results []model.FileUploadResult,
	filePaths []string,
	successful map[string]bool,
	options ...Option,
) (*model.Directory, []string) {
	o := defaultOpts(options)

	idx := indexResults(results, filePaths, o.l)
	var dropped []string
	patched := patchDir(dir, "", idx, successful, o.l, &dropped)
	return patched, dropped
}

type resultIndex struct {
	exact     map[string]*model.FileUploadResult
	stripped  map[string]*model.FileUploadResult
	ambiguous map[string]bool
}

func indexResults(results []model.FileUploadResult, filePaths []string, l *zap.Logger) *resultIndex {
	idx := &resultIndex{
		exact:     map[string]*model.FileUploadResult{},
		stripped:  map[string]*model.FileUploadResult{},
		ambiguous: map[string]bool{},
	}
	strippedOwner := map[string]string{}
	for i := range results {
		if i >= len(filePaths) {
			break
		}
		path := filePaths[i]
		idx.exact[path] = &results[i]

		norm := stripLeadingSegment(path)
		if norm == path {
			continue
		}
		if owner, taken := strippedOwner[norm]; taken && owner != path {
			// two distinct upload paths collapse onto one normalized
			// path; matching through it would silently publish the
			// wrong content
			idx.ambiguous[norm] = true
			l.Warn("ambiguous normalized path, fallback matching disabled",
				zap.String("path", norm),
				zap.String("first", owner),
				zap.String("second", path))
			continue
		}
		strippedOwner[norm] = path
		idx.stripped[norm] = &results[i]
	}
	return idx
}

func (idx *resultIndex) lookup(path string) (*model.FileUploadResult, bool) {
	if r, ok := idx.exact[path]; ok {
		return r, true
	}
	if idx.ambiguous[path] {
		return nil, false
	}
	if r, ok := idx.stripped[path]; ok {
		return r, true
	}
	return nil, false
}

func patchDir(
	dir *model.Directory,
	prefix string,
	idx *resultIndex,
	successful map[string]bool,
	l *zap.Logger,
	dropped *[]string,
) *model.Directory {
	entries := make([]model.Entry, 0, len(dir.Entries))
	for _, e := range dir.Entries {
		path := joinPath(prefix, e.Name)
		switch n := e.Node.(type) {
		case *model.File:
			if successful != nil && !successful[path] {
				*dropped = append(*dropped, path)
				l.Warn("dropping entry, upload failed", zap.String("path", path))
				continue
			}
			res, ok := idx.lookup(path)
			if !ok {
				*dropped = append(*dropped, path)
				l.Warn("dropping entry, no matching upload result", zap.String("path", path))
				continue
			}
			entries = append(entries, model.Entry{Name: e.Name, Node: &model.File{
				Type:     model.NodeTypeFile,
				Blob:     res.Blob,
				Encoding: res.Encoding,
				MimeType: pickMimeType(res.MimeType, n.MimeType),
				Base64:   res.Base64,
			}})
		case *model.Directory:
			child := patchDir(n, path, idx, successful, l, dropped)
			entries = append(entries, model.Entry{Name: e.Name, Node: child})
		default:
			// subfs and unknown nodes are resolved separately and pass
			// through untouched
			entries = append(entries, model.Entry{Name: e.Name, Node: model.CloneNode(e.Node)})
		}
	}
	return model.NewDirectory(entries)
}

func pickMimeType(fromResult, fromPlaceholder string) string {
	if fromResult != "" {
		return fromResult
	}
	return fromPlaceholder
}

// stripLeadingSegment removes everything up to and including the first
// path separator
func stripLeadingSegment(path string) string {
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
