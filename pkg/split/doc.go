// Package split keeps site manifests within the external store's record
// budget. The write side partitions an oversized tree into a root
// manifest plus linked subfs records, committing children strictly
// before the records that reference them. The read side merges fetched
// subfs records back into a single logical tree.
package split
