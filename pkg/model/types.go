package model

import (
	"fmt"
	"time"

	units "github.com/docker/go-units"
	jsoniter "github.com/json-iterator/go"
)

var jsonit = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// NodeTypeFile is the discriminator for file leaves
	NodeTypeFile = "file"

	// NodeTypeDirectory is the discriminator for directories
	NodeTypeDirectory = "directory"

	// NodeTypeSubfs is the discriminator for subfs forward references
	NodeTypeSubfs = "subfs"

	// ManifestType is the discriminator carried by the root record
	ManifestType = "fs"

	// MaxEntryNameLength is the record-format limit on a single entry name
	MaxEntryNameLength = 255

	// MaxDirectoryEntries is the record-format limit on entries per directory
	MaxDirectoryEntries = 500

	// MaxRecordBytes is the practical serialized-size budget for one record
	MaxRecordBytes = 150 * units.KB

	// FsCollection holds site manifests in the owner's repository
	FsCollection = "place.wisp.fs"

	// SubfsCollection holds split-off subtree records
	SubfsCollection = "place.wisp.subfs"
)

// Node is the closed union of tree node kinds: File, Directory or Subfs.
//
// UnknownNode covers forward compatibility on the read side only; the
// write path never produces it.
type Node interface {
	nodeType() string
}

// CIDLink is the wire shape of a content-identifier link
type CIDLink struct {
	Link string `json:"$link"`
}

// BlobRef is the external store's reference to an uploaded blob
type BlobRef struct {
	Type     string  `json:"$type"`
	Ref      CIDLink `json:"ref"`
	MimeType string  `json:"mimeType,omitempty"`
	Size     int64   `json:"size,omitempty"`
}

// NewBlobRef builds a blob reference for a stored payload
func NewBlobRef(cid, mimeType string, size int64) *BlobRef {
	return &BlobRef{
		Type:     "blob",
		Ref:      CIDLink{Link: cid},
		MimeType: mimeType,
		Size:     size,
	}
}

// File is a leaf node. Content is immutable once the blob is assigned.
type File struct {
	Type     string   `json:"type"`
	Blob     *BlobRef `json:"blob"`
	Encoding string   `json:"encoding,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Base64   bool     `json:"base64,omitempty"`
}

func (f *File) nodeType() string { return NodeTypeFile }

// Directory holds an ordered sequence of named entries
type Directory struct {
	Type    string  `json:"type"`
	Entries []Entry `json:"entries"`
}

func (d *Directory) nodeType() string { return NodeTypeDirectory }

// NewDirectory builds a directory node with the type discriminator set
func NewDirectory(entries []Entry) *Directory {
	if entries == nil {
		entries = []Entry{}
	}
	return &Directory{Type: NodeTypeDirectory, Entries: entries}
}

// Subfs is a forward pointer substituting for a subtree, used only to keep
// a single record within size limits. Subject is the AT-URI of the record
// holding the extracted subtree.
type Subfs struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Flat    *bool  `json:"flat,omitempty"`
}

func (s *Subfs) nodeType() string { return NodeTypeSubfs }

// IsFlat reports the merge mode. Readers default to flat when unset.
func (s *Subfs) IsFlat() bool {
	return s.Flat == nil || *s.Flat
}

// UnknownNode round-trips node types this version does not understand
type UnknownNode struct {
	TypeName string
	Raw      []byte
}

func (u *UnknownNode) nodeType() string { return u.TypeName }

// Entry associates a sibling-unique name with a node
type Entry struct {
	Name string
	Node Node
}

type entryEnvelope struct {
	Name string              `json:"name"`
	Node jsoniter.RawMessage `json:"node"`
}

type nodeHeader struct {
	Type string `json:"type"`
}

// MarshalJSON implements json.Marshaler for the tagged union
func (e Entry) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch n := e.Node.(type) {
	case *File:
		n.Type = NodeTypeFile
		raw, err = jsonit.Marshal(n)
	case *Directory:
		n.Type = NodeTypeDirectory
		raw, err = jsonit.Marshal(n)
	case *Subfs:
		n.Type = NodeTypeSubfs
		raw, err = jsonit.Marshal(n)
	case *UnknownNode:
		raw = n.Raw
	case nil:
		return nil, fmt.Errorf("entry %q has no node", e.Name)
	default:
		return nil, fmt.Errorf("entry %q has unsupported node %T", e.Name, e.Node)
	}
	if err != nil {
		return nil, err
	}
	return jsonit.Marshal(entryEnvelope{Name: e.Name, Node: raw})
}

// UnmarshalJSON implements json.Unmarshaler, dispatching on the node's
// type discriminator
func (e *Entry) UnmarshalJSON(data []byte) error {
	var env entryEnvelope
	if err := jsonit.Unmarshal(data, &env); err != nil {
		return err
	}
	var head nodeHeader
	if err := jsonit.Unmarshal(env.Node, &head); err != nil {
		return err
	}
	e.Name = env.Name
	switch head.Type {
	case NodeTypeFile:
		var f File
		if err := jsonit.Unmarshal(env.Node, &f); err != nil {
			return err
		}
		e.Node = &f
	case NodeTypeDirectory:
		var d Directory
		if err := jsonit.Unmarshal(env.Node, &d); err != nil {
			return err
		}
		e.Node = &d
	case NodeTypeSubfs:
		var s Subfs
		if err := jsonit.Unmarshal(env.Node, &s); err != nil {
			return err
		}
		e.Node = &s
	default:
		raw := make([]byte, len(env.Node))
		copy(raw, env.Node)
		e.Node = &UnknownNode{TypeName: head.Type, Raw: raw}
	}
	return nil
}

// Manifest is the persisted root record describing one site
type Manifest struct {
	Type      string     `json:"type"`
	Site      string     `json:"site"`
	Root      *Directory `json:"root"`
	FileCount int64      `json:"fileCount"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewManifest builds a manifest record with the type discriminator set
func NewManifest(site string, root *Directory, fileCount int64, createdAt time.Time) *Manifest {
	return &Manifest{
		Type:      ManifestType,
		Site:      site,
		Root:      root,
		FileCount: fileCount,
		CreatedAt: createdAt.UTC(),
	}
}

// SubfsRecord is the persisted shape of a split-off subtree
type SubfsRecord struct {
	Type string     `json:"type"`
	Root *Directory `json:"root"`
}

// NewSubfsRecord builds a subfs record around an extracted subtree root
func NewSubfsRecord(root *Directory) *SubfsRecord {
	return &SubfsRecord{Type: NodeTypeSubfs, Root: root}
}

// MarshalRecord serializes any record shape the way the external store does
func MarshalRecord(v interface{}) ([]byte, error) {
	return jsonit.Marshal(v)
}

// UnmarshalRecord deserializes a record payload
func UnmarshalRecord(data []byte, v interface{}) error {
	return jsonit.Unmarshal(data, v)
}
