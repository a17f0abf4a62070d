package model

// UploadedFile is one file submitted in an upload request. It lives for
// the duration of the request pipeline only and is never persisted.
type UploadedFile struct {
	// Name is the file's path as submitted, possibly carrying a synthetic
	// leading folder segment from a folder-drag upload
	Name string

	// Content holds the raw bytes as submitted
	Content []byte

	MimeType string
	Size     int64

	// Compressed marks content already gzip-encoded by the submitter
	Compressed bool

	// Base64Encoded marks content already base64-encoded by the submitter
	Base64Encoded bool

	// OriginalMimeType preserves the pre-compression mime type when the
	// submitter encoded the content itself
	OriginalMimeType string
}

// FileUploadResult is produced for each successfully stored file and
// consumed once when patching blob references into the tree.
type FileUploadResult struct {
	// Hash is the content identifier of the stored bytes
	Hash string

	// Blob is the store's reference for the uploaded content
	Blob *BlobRef

	// Encoding is set to "gzip" when the stored bytes are compressed
	Encoding string

	MimeType string
	Base64   bool
}
