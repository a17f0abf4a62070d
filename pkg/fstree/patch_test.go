package fstree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WaveringAna/wisp/pkg/model"
)

func resultFor(path string) model.FileUploadResult {
	return model.FileUploadResult{
		Hash:     "cid-" + path,
		Blob:     model.NewBlobRef("bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq", "application/octet-stream", 1),
		Encoding: "gzip",
		MimeType: "text/plain",
		Base64:   true,
	}
}

func TestPatchFillsPlaceholders(t *testing.T) {
	dir, _ := Build(uploaded("folder/a.txt", "folder/sub/b.txt"))

	results := []model.FileUploadResult{resultFor("folder/a.txt"), resultFor("folder/sub/b.txt")}
	paths := []string{"folder/a.txt", "folder/sub/b.txt"}

	patched, dropped := Patch(dir, results, paths, nil)
	require.Empty(t, dropped)

	a := findEntry(t, patched, "a.txt").Node.(*model.File)
	require.NotNil(t, a.Blob)
	assert.Equal(t, "gzip", a.Encoding)
	assert.True(t, a.Base64)

	sub := findEntry(t, patched, "sub").Node.(*model.Directory)
	b := sub.Entries[0].Node.(*model.File)
	assert.NotNil(t, b.Blob)

	// input tree is untouched
	orig := findEntry(t, dir, "a.txt").Node.(*model.File)
	assert.Nil(t, orig.Blob)
}

func TestPatchDropsFailedUploads(t *testing.T) {
	dir, _ := Build(uploaded("a.txt", "b.txt"))

	results := []model.FileUploadResult{resultFor("a.txt"), resultFor("b.txt")}
	paths := []string{"a.txt", "b.txt"}
	successful := map[string]bool{"a.txt": true}

	patched, dropped := Patch(dir, results, paths, successful)

	require.Len(t, patched.Entries, 1)
	assert.Equal(t, "a.txt", patched.Entries[0].Name)
	assert.Equal(t, []string{"b.txt"}, dropped)
}

func TestPatchDropsUnmatchedEntries(t *testing.T) {
	dir, _ := Build(uploaded("a.txt", "b.txt"))

	results := []model.FileUploadResult{resultFor("a.txt")}
	paths := []string{"a.txt"}

	patched, dropped := Patch(dir, results, paths, nil)

	require.Len(t, patched.Entries, 1)
	assert.Equal(t, "a.txt", patched.Entries[0].Name)
	assert.Equal(t, []string{"b.txt"}, dropped)
}

func TestPatchNormalizedFallback(t *testing.T) {
	// tree was built with the synthetic folder stripped, results carry
	// the original upload paths
	dir, _ := Build(uploaded("folder/a.txt"))

	results := []model.FileUploadResult{resultFor("folder/a.txt")}
	paths := []string{"folder/a.txt"}

	patched, dropped := Patch(dir, results, paths, nil)
	assert.Empty(t, dropped)
	a := findEntry(t, patched, "a.txt").Node.(*model.File)
	assert.NotNil(t, a.Blob)
}

func TestPatchAmbiguousNormalizedPathIsDropped(t *testing.T) {
	// two distinct upload paths collapse onto "a.txt" after stripping:
	// neither may be matched through the fallback
	dir := model.NewDirectory([]model.Entry{
		{Name: "a.txt", Node: &model.File{Type: model.NodeTypeFile}},
	})

	results := []model.FileUploadResult{resultFor("one/a.txt"), resultFor("two/a.txt")}
	paths := []string{"one/a.txt", "two/a.txt"}

	patched, dropped := Patch(dir, results, paths, nil)
	assert.Empty(t, patched.Entries)
	assert.Equal(t, []string{"a.txt"}, dropped)
}

func TestPatchPassesSubfsThrough(t *testing.T) {
	dir := model.NewDirectory([]model.Entry{
		{Name: "a.txt", Node: &model.File{Type: model.NodeTypeFile}},
		{Name: "legacy", Node: &model.Subfs{
			Type:    model.NodeTypeSubfs,
			Subject: "at://did:plc:abc/place.wisp.subfs/xyz",
		}},
	})

	results := []model.FileUploadResult{resultFor("a.txt")}
	paths := []string{"a.txt"}

	patched, dropped := Patch(dir, results, paths, nil)
	require.Empty(t, dropped)
	require.Len(t, patched.Entries, 2)
	s, ok := findEntry(t, patched, "legacy").Node.(*model.Subfs)
	require.True(t, ok)
	assert.Equal(t, "at://did:plc:abc/place.wisp.subfs/xyz", s.Subject)
}
