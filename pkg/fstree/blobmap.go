package fstree

import (
	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/wcid"
)

// BlobInfo pairs a stored blob reference with its content identifier
type BlobInfo struct {
	Blob *model.BlobRef
	CID  string
}

// ExtractBlobMap flattens the file leaves of a tree into a path-indexed
// map used for dedup comparison. Each file is recorded under its full
// path and, when different, under its normalized path with the leading
// segment stripped, tolerating the folder-drag prefix either side of the
// comparison may carry.
//
// Subfs boundaries are not crossed: a subfs subtree is opaque here since
// reading it requires a separate record fetch.
func ExtractBlobMap(dir *model.Directory) map[string]BlobInfo {
	out := map[string]BlobInfo{}
	extractBlobMap(dir, "", out)
	return out
}

func extractBlobMap(dir *model.Directory, prefix string, out map[string]BlobInfo) {
	if dir == nil {
		return
	}
	for _, e := range dir.Entries {
		path := joinPath(prefix, e.Name)
		switch n := e.Node.(type) {
		case *model.File:
			cid, ok := wcid.Extract(n.Blob)
			if !ok {
				continue
			}
			info := BlobInfo{Blob: n.Blob, CID: cid}
			normalized := stripLeadingSegment(path)
			out[normalized] = info
			if normalized != path {
				out[path] = info
			}
		case *model.Directory:
			extractBlobMap(n, path, out)
		}
	}
}

// CollectCIDs records path to content-identifier for every file leaf
// under entries, prefixing paths with pathPrefix. It is used to build a
// "what do we already have" index from a previously committed manifest.
func CollectCIDs(entries []model.Entry, pathPrefix string, out map[string]string) {
	for _, e := range entries {
		path := joinPath(pathPrefix, e.Name)
		switch n := e.Node.(type) {
		case *model.File:
			if cid, ok := wcid.Extract(n.Blob); ok {
				out[path] = cid
			}
		case *model.Directory:
			CollectCIDs(n.Entries, path, out)
		}
	}
}
