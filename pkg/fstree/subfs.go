package fstree

import (
	"github.com/WaveringAna/wisp/pkg/model"
)

// SubfsRef locates one subfs forward reference within a tree
type SubfsRef struct {
	// URI of the record holding the extracted subtree
	URI string

	// Path at which the subtree is mounted
	Path string
}

// ExtractSubfsURIs walks a tree collecting every subfs forward reference
// with the path it is mounted at. Subfs nodes are leaves to this walk: it
// never fetches the referenced records, so nested references inside them
// are discovered by the caller after fetching, one round at a time.
func ExtractSubfsURIs(dir *model.Directory) []SubfsRef {
	var refs []SubfsRef
	extractSubfsURIs(dir, "", &refs)
	return refs
}

func extractSubfsURIs(dir *model.Directory, prefix string, refs *[]SubfsRef) {
	if dir == nil {
		return
	}
	for _, e := range dir.Entries {
		path := joinPath(prefix, e.Name)
		switch n := e.Node.(type) {
		case *model.Subfs:
			*refs = append(*refs, SubfsRef{URI: n.Subject, Path: path})
		case *model.Directory:
			extractSubfsURIs(n, path, refs)
		}
	}
}
