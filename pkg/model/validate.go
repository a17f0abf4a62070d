package model

import "strings"

// ValidateEntryName checks a single path segment against the record
// format constraints. Sibling-name uniqueness is the tree builder's
// responsibility, not enforced here.
func ValidateEntryName(name string) error {
	switch {
	case name == "":
		return errEmptyName
	case name == "." || name == "..":
		return errDotName
	case len(name) > MaxEntryNameLength:
		return errNameTooLong
	case strings.ContainsAny(name, "/\x00"):
		return errNameSeparator
	}
	return nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

const (
	errEmptyName     validationError = "entry name is empty"
	errDotName       validationError = "entry name is a dot segment"
	errNameTooLong   validationError = "entry name exceeds 255 characters"
	errNameSeparator validationError = "entry name contains a separator"
)
