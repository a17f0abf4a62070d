// Package wcid computes and normalizes content identifiers for blobs.
//
// Identifiers use the external repository's own addressing scheme
// (CIDv1, raw codec, sha2-256, base32-lower), so a CID computed locally
// over the exact bytes to be stored compares equal to the CID the store
// returns. That equality is what makes dedup comparisons valid.
package wcid

import (
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/WaveringAna/wisp/pkg/model"
)

// Compute returns the deterministic content identifier for a payload.
//
// Call this on the exact bytes handed to the blob store: when the
// pipeline gzips and base64-encodes content, the CID covers the encoded
// form, not the original.
func Compute(data []byte) string {
	sum, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		// sha2-256 with default length never fails on any input
		panic(err)
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// Extract normalizes one of the blob-reference shapes seen in stored
// records into the canonical CID string. It fails closed: unrecognized
// shapes yield ("", false), never a panic.
//
// Accepted shapes: a bare CID string, *model.BlobRef, model.CIDLink, and
// the generic map forms {"$link": cid}, {"ref": cid}, {"ref": {"$link": cid}}
// and {"cid": cid}.
func Extract(ref interface{}) (string, bool) {
	switch v := ref.(type) {
	case string:
		return normalize(v)
	case model.CIDLink:
		return normalize(v.Link)
	case *model.CIDLink:
		if v == nil {
			return "", false
		}
		return normalize(v.Link)
	case *model.BlobRef:
		if v == nil {
			return "", false
		}
		return normalize(v.Ref.Link)
	case model.BlobRef:
		return normalize(v.Ref.Link)
	case map[string]interface{}:
		if link, ok := v["$link"].(string); ok {
			return normalize(link)
		}
		if inner, ok := v["ref"]; ok {
			switch r := inner.(type) {
			case string:
				return normalize(r)
			case map[string]interface{}:
				if link, ok := r["$link"].(string); ok {
					return normalize(link)
				}
			}
			return "", false
		}
		if c, ok := v["cid"].(string); ok {
			return normalize(c)
		}
		return "", false
	default:
		return "", false
	}
}

// normalize parses and re-renders a CID string so that equivalent
// encodings compare equal
func normalize(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	c, err := cid.Decode(s)
	if err != nil {
		return "", false
	}
	return c.String(), true
}
