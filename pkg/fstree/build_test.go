package fstree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WaveringAna/wisp/pkg/model"
)

func uploaded(names ...string) []model.UploadedFile {
	files := make([]model.UploadedFile, 0, len(names))
	for _, n := range names {
		files = append(files, model.UploadedFile{
			Name:     n,
			Content:  []byte("content of " + n),
			MimeType: "text/plain",
		})
	}
	return files
}

func findEntry(t *testing.T, dir *model.Directory, name string) model.Entry {
	t.Helper()
	for _, e := range dir.Entries {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("entry %q not found", name)
	return model.Entry{}
}

func TestBuildStripsSyntheticFolder(t *testing.T) {
	dir, admitted := Build(uploaded("folder/a.txt", "folder/sub/b.txt"))

	require.Equal(t, []string{"a.txt", "sub/b.txt"}, admitted)
	require.Len(t, dir.Entries, 2)

	a := findEntry(t, dir, "a.txt")
	_, isFile := a.Node.(*model.File)
	assert.True(t, isFile)

	sub := findEntry(t, dir, "sub")
	subDir, isDir := sub.Node.(*model.Directory)
	require.True(t, isDir)
	require.Len(t, subDir.Entries, 1)
	assert.Equal(t, "b.txt", subDir.Entries[0].Name)
}

func TestBuildKeepsGenuineTopLevelDirs(t *testing.T) {
	// mixed first segments: no synthetic folder to strip
	dir, admitted := Build(uploaded("index.html", "css/style.css"))

	require.Len(t, admitted, 2)
	findEntry(t, dir, "index.html")
	css, ok := findEntry(t, dir, "css").Node.(*model.Directory)
	require.True(t, ok)
	assert.Equal(t, "style.css", css.Entries[0].Name)
}

func TestBuildExcludesVersionControl(t *testing.T) {
	dir, admitted := Build(uploaded(
		"site/index.html",
		"site/.git",
		"site/.git/config",
		"site/.git/objects/ab/cdef",
	))

	require.Equal(t, []string{"index.html"}, admitted)
	require.Len(t, dir.Entries, 1)
	assert.Equal(t, "index.html", dir.Entries[0].Name)
}

func TestBuildSkipsInvalidNames(t *testing.T) {
	files := uploaded("ok.txt", "", "a//b.txt", "../escape.txt")
	dir, admitted := Build(files)

	require.Len(t, admitted, 1)
	require.Len(t, dir.Entries, 1)
	assert.Equal(t, "ok.txt", dir.Entries[0].Name)
}

func TestBuildMergesRepeatedPrefixes(t *testing.T) {
	dir, admitted := Build(uploaded(
		"docs/a.md",
		"docs/b.md",
		"docs/deep/c.md",
	))

	require.Len(t, admitted, 3)
	require.Len(t, dir.Entries, 1)
	docs := dir.Entries[0].Node.(*model.Directory)
	assert.Len(t, docs.Entries, 3)
	assert.Equal(t, 3, CountFiles(dir))
}

func TestBuildDropsDuplicatePaths(t *testing.T) {
	dir, admitted := Build(uploaded("a.txt", "a.txt"))
	require.Len(t, admitted, 1)
	assert.Len(t, dir.Entries, 1)

	// a name cannot be both a file and a directory
	dir, admitted = Build(uploaded("x", "x/y.txt"))
	require.Len(t, admitted, 1)
	require.Len(t, dir.Entries, 1)
	assert.Equal(t, "x", dir.Entries[0].Name)
}

func TestBuildEmpty(t *testing.T) {
	dir, admitted := Build(nil)
	assert.Empty(t, admitted)
	assert.Empty(t, dir.Entries)
}
