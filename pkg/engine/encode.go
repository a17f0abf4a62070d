package engine

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/WaveringAna/wisp/pkg/model"
)

// blobMimeType is the mime type every encoded payload is stored under;
// the original type travels in the file node's mimeType field instead
const blobMimeType = "application/octet-stream"

// EncodedFile is an upload payload in its storable form. CIDs are
// computed over Data exactly as stored.
type EncodedFile struct {
	Data     []byte
	Encoding string // "gzip" when compressed
	Base64   bool
	MimeType string // the original content type, pre-encoding
}

// EncodeContent prepares one uploaded file for storage: gzip unless the
// submitter compressed it already, then base64 unless already encoded.
func EncodeContent(f *model.UploadedFile) (EncodedFile, error) {
	data := f.Content
	if !f.Compressed {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return EncodedFile{}, err
		}
		if err := zw.Close(); err != nil {
			return EncodedFile{}, err
		}
		data = buf.Bytes()
	}
	if !f.Base64Encoded {
		encoded := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
		base64.StdEncoding.Encode(encoded, data)
		data = encoded
	}

	mimeType := f.MimeType
	if f.OriginalMimeType != "" {
		mimeType = f.OriginalMimeType
	}
	return EncodedFile{
		Data:     data,
		Encoding: "gzip",
		Base64:   true,
		MimeType: mimeType,
	}, nil
}

// DecodeContent is the read-side inverse of EncodeContent: base64
// decode, then gunzip, each step only when flagged on the file node.
func DecodeContent(data []byte, isBase64, isGzipped bool) ([]byte, error) {
	if isBase64 {
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
		n, err := base64.StdEncoding.Decode(decoded, data)
		if err != nil {
			return nil, err
		}
		data = decoded[:n]
	}
	if isGzipped {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	return data, nil
}
