package split

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WaveringAna/wisp/pkg/errors"
	"github.com/WaveringAna/wisp/pkg/fstree"
	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/storage"
)

// ErrSizeLimit is returned when a single directory cannot be brought
// under the record budget by extracting subtrees. This is a hard limit
// of the record format, never silently truncated.
var ErrSizeLimit = errors.New("directory exceeds record size limit and cannot be split further")

// Splitter partitions oversized trees into linked subfs records
type Splitter struct {
	records  storage.RecordStore
	l        *zap.Logger
	maxBytes int
	maxFiles int
}

// NewSplitter creates a splitter committing subfs records through the
// given record store
func NewSplitter(records storage.RecordStore, opts ...SplitterOption) *Splitter {
	s := &Splitter{
		records:  records,
		l:        zap.NewNop(),
		maxBytes: DefaultMaxRecordBytes,
		maxFiles: DefaultMaxRecordFiles,
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Split returns a root directory whose serialized size and leaf count
// fit the record budget, extracting whole subdirectories into subfs
// records committed under did as needed. Extraction is greedy, largest
// serialized subtree first, and recursive: an extracted subtree that is
// itself oversized is split before it is committed, so every referenced
// record exists before the record pointing at it.
//
// The returned URIs list every committed subfs record in commit order.
// The input tree is not modified.
func (s *Splitter) Split(ctx context.Context, did string, root *model.Directory) (*model.Directory, []string, error) {
	if over, path := overEntryLimit(root, ""); over {
		return nil, nil, ErrSizeLimit.WrapMsg("directory %q has more than %d entries", path, model.MaxDirectoryEntries)
	}
	fitted, uris, err := s.splitDir(ctx, did, model.CloneDirectory(root))
	if err != nil {
		return nil, nil, err
	}
	return fitted, uris, nil
}

// splitDir takes ownership of dir and mutates it
func (s *Splitter) splitDir(ctx context.Context, did string, dir *model.Directory) (*model.Directory, []string, error) {
	var uris []string
	for {
		size, err := EstimateSize(dir)
		if err != nil {
			return nil, nil, err
		}
		if size <= s.maxBytes && fstree.CountFiles(dir) <= s.maxFiles {
			return dir, uris, nil
		}
		candidates := splittableDirs(dir, "")
		if len(candidates) == 0 {
			return nil, nil, ErrSizeLimit.WrapMsg("flat directory of %d bytes has no subdirectory to extract", size)
		}

		target := candidates[0]
		subRoot, subURIs, err := s.splitDir(ctx, did, target.dir)
		if err != nil {
			return nil, nil, err
		}
		uris = append(uris, subURIs...)

		uri, err := s.commitSubfs(ctx, did, subRoot)
		if err != nil {
			return nil, nil, err
		}
		uris = append(uris, uri)

		s.l.Info("extracted subtree into subfs record",
			zap.String("path", target.path),
			zap.String("uri", uri),
			zap.Int("bytes", target.size))

		if !replaceWithSubfs(dir, target.path, uri) {
			// the candidate came from a walk over this very tree
			return nil, nil, ErrSizeLimit.WrapMsg("lost track of subtree %q during extraction", target.path)
		}
	}
}

func (s *Splitter) commitSubfs(ctx context.Context, did string, root *model.Directory) (string, error) {
	rkey := uuid.NewString()
	uri, err := s.records.PutRecord(ctx, did, model.SubfsCollection, rkey, model.NewSubfsRecord(root))
	if err != nil {
		return "", err
	}
	return uri, nil
}

type candidate struct {
	path string
	dir  *model.Directory
	size int
}

// splittableDirs lists every subdirectory of dir (at any depth) sorted
// by serialized size, largest first
func splittableDirs(dir *model.Directory, prefix string) []candidate {
	var out []candidate
	for _, e := range dir.Entries {
		sub, ok := e.Node.(*model.Directory)
		if !ok {
			continue
		}
		path := joinPath(prefix, e.Name)
		size, err := EstimateSize(sub)
		if err != nil {
			continue
		}
		out = append(out, candidate{path: path, dir: sub, size: size})
		out = append(out, splittableDirs(sub, path)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].size > out[j].size })
	return out
}

// replaceWithSubfs swaps the directory entry at targetPath for a subfs
// pointer. Flat is false so the read-side merge re-nests the extracted
// entries under the original entry name, keeping paths stable.
func replaceWithSubfs(dir *model.Directory, targetPath, uri string) bool {
	segments := strings.Split(targetPath, "/")
	cur := dir
	for len(segments) > 1 {
		next := findDir(cur, segments[0])
		if next == nil {
			return false
		}
		cur = next
		segments = segments[1:]
	}
	for i, e := range cur.Entries {
		if e.Name != segments[0] {
			continue
		}
		if _, ok := e.Node.(*model.Directory); !ok {
			return false
		}
		flat := false
		cur.Entries[i].Node = &model.Subfs{
			Type:    model.NodeTypeSubfs,
			Subject: uri,
			Flat:    &flat,
		}
		return true
	}
	return false
}

func findDir(dir *model.Directory, name string) *model.Directory {
	for _, e := range dir.Entries {
		if e.Name == name {
			if d, ok := e.Node.(*model.Directory); ok {
				return d
			}
			return nil
		}
	}
	return nil
}

// EstimateSize returns the serialized size of a directory tree, the same
// measure the external store applies to a committed record
func EstimateSize(dir *model.Directory) (int, error) {
	data, err := model.MarshalRecord(dir)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// overEntryLimit finds a directory whose own entry count violates the
// record format. Extracting subtrees never reduces an entry count, so
// this is unfixable by splitting.
func overEntryLimit(dir *model.Directory, prefix string) (bool, string) {
	if len(dir.Entries) > model.MaxDirectoryEntries {
		return true, prefix
	}
	for _, e := range dir.Entries {
		if sub, ok := e.Node.(*model.Directory); ok {
			if over, path := overEntryLimit(sub, joinPath(prefix, e.Name)); over {
				return true, path
			}
		}
	}
	return false, ""
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
