// Package fstree holds the pure tree transforms of the manifest engine:
// building a directory tree from a flat upload, patching blob references
// into it, flattening it to path-indexed maps for dedup comparison, and
// discovering subfs forward references.
//
// Every transform treats its input tree as read-only and returns a
// freshly owned tree, so callers can keep pre- and post-transform trees
// side by side without aliasing.
package fstree
