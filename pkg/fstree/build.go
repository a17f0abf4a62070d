package fstree

import (
	"strings"

	"go.uber.org/zap"

	"github.com/WaveringAna/wisp/pkg/model"
)

// vcsDirName is excluded from built trees along with everything under it
const vcsDirName = ".git"

// Build converts a flat list of uploaded files into a directory tree of
// placeholder file nodes and returns the tree with the admitted tree
// paths in insertion order. Excluded files — invalid names, version
// control paths, duplicates — get no tree entry and no admitted path,
// so callers storing content must consult the admitted set before
// touching a store.
//
// Folder-drag uploads prefix every path with a synthetic top-level folder
// name; when every file shares such a prefix it is stripped before
// grouping. Files with invalid names are skipped with a warning, never
// failing the whole build.
func Build(files []model.UploadedFile, options ...Option) (*model.Directory, []string) {
	o := defaultOpts(options)

	prefix := SyntheticPrefix(files)
	root := newDirBuilder()
	var admitted []string

	for i := range files {
		f := &files[i]
		name := f.Name
		if prefix != "" {
			name = strings.TrimPrefix(name, prefix)
		}
		segments, err := splitPath(name)
		if err != nil {
			o.l.Warn("skipping file with invalid name",
				zap.String("file", f.Name),
				zap.Error(err))
			continue
		}
		if isVersionControlPath(segments) {
			continue
		}
		if !root.insert(segments, placeholderFor(f)) {
			o.l.Warn("skipping duplicate path",
				zap.String("file", f.Name),
				zap.String("path", name))
			continue
		}
		admitted = append(admitted, name)
	}

	return root.build(), admitted
}

// SyntheticPrefix returns the "<folder>/" prefix Build strips, or ""
// when the upload does not look like a folder drag. Stripping only
// happens when every file carries the same multi-segment prefix: a
// blind strip would eat a genuine top-level directory.
//
// Exported so that callers mapping tree paths back to upload names can
// apply the exact same normalization.
func SyntheticPrefix(files []model.UploadedFile) string {
	common := ""
	for i := range files {
		name := files[i].Name
		idx := strings.IndexByte(name, '/')
		if idx <= 0 {
			return ""
		}
		first := name[:idx]
		if common == "" {
			common = first
			continue
		}
		if first != common {
			return ""
		}
	}
	if common == "" {
		return ""
	}
	return common + "/"
}

// splitPath validates each segment of a relative path
func splitPath(name string) ([]string, error) {
	segments := strings.Split(name, "/")
	for _, s := range segments {
		if err := model.ValidateEntryName(s); err != nil {
			return nil, err
		}
	}
	return segments, nil
}

func isVersionControlPath(segments []string) bool {
	for _, s := range segments {
		if s == vcsDirName {
			return true
		}
	}
	return false
}

// placeholderFor builds the leaf node patched later with the real blob
// reference
func placeholderFor(f *model.UploadedFile) *model.File {
	mimeType := f.MimeType
	if f.OriginalMimeType != "" {
		mimeType = f.OriginalMimeType
	}
	return &model.File{
		Type:     model.NodeTypeFile,
		MimeType: mimeType,
	}
}

// dirBuilder accumulates entries keyed for merge while preserving
// first-seen order
type dirBuilder struct {
	order []string
	dirs  map[string]*dirBuilder
	files map[string]*model.File
}

func newDirBuilder() *dirBuilder {
	return &dirBuilder{
		dirs:  map[string]*dirBuilder{},
		files: map[string]*model.File{},
	}
}

func (b *dirBuilder) insert(segments []string, leaf *model.File) bool {
	head := segments[0]
	if len(segments) == 1 {
		if _, dup := b.files[head]; dup {
			return false
		}
		if _, dup := b.dirs[head]; dup {
			return false
		}
		b.files[head] = leaf
		b.order = append(b.order, head)
		return true
	}
	child, ok := b.dirs[head]
	if !ok {
		if _, clash := b.files[head]; clash {
			return false
		}
		child = newDirBuilder()
		b.dirs[head] = child
		b.order = append(b.order, head)
	}
	return child.insert(segments[1:], leaf)
}

func (b *dirBuilder) build() *model.Directory {
	entries := make([]model.Entry, 0, len(b.order))
	for _, name := range b.order {
		if child, ok := b.dirs[name]; ok {
			entries = append(entries, model.Entry{Name: name, Node: child.build()})
			continue
		}
		entries = append(entries, model.Entry{Name: name, Node: b.files[name]})
	}
	return model.NewDirectory(entries)
}

// CountFiles returns the number of file leaves in a tree. Subfs nodes are
// opaque and contribute nothing.
func CountFiles(dir *model.Directory) int {
	if dir == nil {
		return 0
	}
	count := 0
	for _, e := range dir.Entries {
		switch n := e.Node.(type) {
		case *model.File:
			count++
		case *model.Directory:
			count += CountFiles(n)
		}
	}
	return count
}
