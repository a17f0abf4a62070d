// Package engine drives the write path of a site upload: encoding file
// content, addressing it, deduplicating against the previously committed
// manifest, storing new blobs with bounded concurrency, patching the
// tree, splitting it under the record budget and committing the
// manifest, while streaming progress through a jobs registry.
package engine
