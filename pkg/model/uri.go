package model

import (
	"fmt"
	"strings"
)

// ATURI identifies a record within an owner's repository:
// at://<did>/<collection>/<rkey>
type ATURI struct {
	DID        string
	Collection string
	RKey       string
}

// ParseATURI splits an at:// URI into its components
func ParseATURI(uri string) (ATURI, error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return ATURI{}, fmt.Errorf("not an at:// URI: %q", uri)
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return ATURI{}, fmt.Errorf("invalid record URI: %q", uri)
	}
	return ATURI{DID: parts[0], Collection: parts[1], RKey: parts[2]}, nil
}

// String formats the URI back to its wire form
func (u ATURI) String() string {
	return fmt.Sprintf("at://%s/%s/%s", u.DID, u.Collection, u.RKey)
}
