// Package model describes the persisted record shapes of a wisp site:
// the fs manifest, its directory tree, subfs forward references, and the
// transient upload types flowing through the pipeline.
//
// The JSON produced here is an interop surface: the external repository
// stores these records verbatim and other readers consume them, so field
// names and type discriminators must not drift.
package model
