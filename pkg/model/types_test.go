package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *Directory {
	flat := false
	return NewDirectory([]Entry{
		{Name: "index.html", Node: &File{
			Type:     NodeTypeFile,
			Blob:     NewBlobRef("bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq", "application/octet-stream", 11),
			Encoding: "gzip",
			MimeType: "text/html",
			Base64:   true,
		}},
		{Name: "assets", Node: NewDirectory([]Entry{
			{Name: "legacy", Node: &Subfs{
				Type:    NodeTypeSubfs,
				Subject: "at://did:plc:abc/place.wisp.subfs/xyz",
				Flat:    &flat,
			}},
		})},
	})
}

func TestEntryRoundTrip(t *testing.T) {
	root := testTree()
	data, err := MarshalRecord(root)
	require.NoError(t, err)

	var back Directory
	require.NoError(t, UnmarshalRecord(data, &back))

	require.Len(t, back.Entries, 2)
	f, ok := back.Entries[0].Node.(*File)
	require.True(t, ok)
	assert.Equal(t, "gzip", f.Encoding)
	assert.True(t, f.Base64)
	assert.Equal(t, "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq", f.Blob.Ref.Link)

	sub, ok := back.Entries[1].Node.(*Directory)
	require.True(t, ok)
	require.Len(t, sub.Entries, 1)
	s, ok := sub.Entries[0].Node.(*Subfs)
	require.True(t, ok)
	assert.Equal(t, "at://did:plc:abc/place.wisp.subfs/xyz", s.Subject)
	assert.False(t, s.IsFlat())
}

// persisted shapes are an interop surface: assert the exact discriminators
// and field names readers depend on
func TestManifestWireShape(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewManifest("blog", NewDirectory(nil), 0, created)

	data, err := MarshalRecord(m)
	require.NoError(t, err)

	js := string(data)
	assert.Contains(t, js, `"type":"fs"`)
	assert.Contains(t, js, `"site":"blog"`)
	assert.Contains(t, js, `"fileCount":0`)
	assert.Contains(t, js, `"createdAt":"2026-01-02T03:04:05Z"`)
	assert.Contains(t, js, `"root":{"type":"directory","entries":[]}`)
}

func TestUnknownNodeRoundTrip(t *testing.T) {
	payload := []byte(`{"name":"weird","node":{"type":"symlink","target":"elsewhere"}}`)

	var e Entry
	require.NoError(t, UnmarshalRecord(payload, &e))
	u, ok := e.Node.(*UnknownNode)
	require.True(t, ok)
	assert.Equal(t, "symlink", u.TypeName)

	out, err := MarshalRecord(e)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(out))
}

func TestParseATURI(t *testing.T) {
	u, err := ParseATURI("at://did:plc:abc/place.wisp.subfs/3kfx")
	require.NoError(t, err)
	assert.Equal(t, "did:plc:abc", u.DID)
	assert.Equal(t, SubfsCollection, u.Collection)
	assert.Equal(t, "3kfx", u.RKey)
	assert.Equal(t, "at://did:plc:abc/place.wisp.subfs/3kfx", u.String())

	for _, bad := range []string{"", "https://x", "at://did", "at://did/coll", "at://did//rkey"} {
		_, err := ParseATURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateEntryName(t *testing.T) {
	assert.NoError(t, ValidateEntryName("index.html"))
	assert.Error(t, ValidateEntryName(""))
	assert.Error(t, ValidateEntryName("."))
	assert.Error(t, ValidateEntryName(".."))
	assert.Error(t, ValidateEntryName("a/b"))

	long := make([]byte, MaxEntryNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateEntryName(string(long)))
}

func TestCloneDirectoryIsDeep(t *testing.T) {
	root := testTree()
	clone := CloneDirectory(root)

	f := clone.Entries[0].Node.(*File)
	f.Blob.Ref.Link = "mutated"

	orig := root.Entries[0].Node.(*File)
	assert.NotEqual(t, "mutated", orig.Blob.Ref.Link)
}
