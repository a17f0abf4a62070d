package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/WaveringAna/wisp/pkg/fstree"
	"github.com/WaveringAna/wisp/pkg/jobs"
	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/split"
	"github.com/WaveringAna/wisp/pkg/storage"
	"github.com/WaveringAna/wisp/pkg/wcid"
)

// UploadRequest is one site upload
type UploadRequest struct {
	DID  string
	Site string

	Files []model.UploadedFile

	// Previous is the manifest committed by the last upload of this
	// site, when there was one. Content whose identifier matches the
	// previous manifest at the same path is reused, not re-uploaded.
	Previous *model.Manifest
}

// Uploader runs upload jobs against a blob and record store pair
type Uploader struct {
	blobs    storage.BlobStore
	records  storage.RecordStore
	registry *jobs.Registry
	splitter *split.Splitter
	resolver *split.Resolver

	l         *zap.Logger
	workers   int
	splitOpts []split.SplitterOption
}

// New creates an uploader committing through the given stores
func New(blobs storage.BlobStore, records storage.RecordStore, opts ...Option) *Uploader {
	u := &Uploader{
		blobs:   blobs,
		records: records,
		l:       zap.NewNop(),
		workers: defaultWorkers,
	}
	for _, apply := range opts {
		apply(u)
	}
	if u.registry == nil {
		u.registry = jobs.New(jobs.Logger(u.l))
	}
	u.splitter = split.NewSplitter(records, append([]split.SplitterOption{split.SplitterLogger(u.l)}, u.splitOpts...)...)
	u.resolver = split.NewResolver(records, split.ResolverLogger(u.l))
	return u
}

// Jobs exposes the registry tracking this uploader's jobs, for callers
// subscribing to progress streams
func (u *Uploader) Jobs() *jobs.Registry {
	return u.registry
}

// Begin allocates the job for a request without starting work, so the
// caller can subscribe before the first progress frame
func (u *Uploader) Begin(req UploadRequest) jobs.Job {
	return u.registry.Create(req.DID, req.Site, len(req.Files))
}

// Upload runs the whole pipeline for a request under a fresh job
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*jobs.Result, error) {
	job := u.Begin(req)
	return u.Run(ctx, job.ID, req)
}

// outcome is the per-file result of the store pass
type outcome struct {
	ok       bool
	reused   bool
	treePath string
	res      model.FileUploadResult
}

// Run executes the pipeline for a previously begun job. Per-file
// failures skip the file and continue; a fatal error fails the job and
// is returned. Either way every subscriber sees a terminal event.
func (u *Uploader) Run(ctx context.Context, jobID string, req UploadRequest) (*jobs.Result, error) {
	_ = u.registry.Update(jobID, func(j *jobs.Job) {
		j.Status = jobs.StatusProcessing
		j.Progress.Phase = jobs.PhaseValidating
	})

	dir, admitted := fstree.Build(req.Files, fstree.WithLogger(u.l))
	if len(admitted) == 0 {
		return nil, u.fail(jobID, ErrValidation)
	}
	prefix := fstree.SyntheticPrefix(req.Files)
	admittedSet := make(map[string]bool, len(admitted))
	for _, path := range admitted {
		admittedSet[path] = true
	}
	// the tree admits each path once, first occurrence wins; later
	// duplicates must not slip through on the shared path string
	treePaths := make([]string, len(req.Files))
	admittedIdx := make([]bool, len(req.Files))
	for i := range req.Files {
		treePaths[i] = strings.TrimPrefix(req.Files[i].Name, prefix)
		if admittedSet[treePaths[i]] {
			admittedIdx[i] = true
			delete(admittedSet, treePaths[i])
		}
	}

	prevBlobs := u.previousIndex(ctx, req.Previous)

	// encode everything before any store traffic; files the tree
	// excluded never reach the encoder or the store
	_ = u.registry.UpdateProgress(jobID, func(p *jobs.Progress) {
		p.Phase = jobs.PhaseCompressing
	})
	encoded := make([]EncodedFile, len(req.Files))
	encodeFailed := make([]bool, len(req.Files))
	u.forEachFile(len(req.Files), func(i int) {
		if !admittedIdx[i] {
			return
		}
		enc, err := EncodeContent(&req.Files[i])
		if err != nil {
			encodeFailed[i] = true
			u.l.Warn("failed to encode file, skipping",
				zap.String("file", req.Files[i].Name),
				zap.Error(err))
			return
		}
		encoded[i] = enc
	})
	if err := ctx.Err(); err != nil {
		return nil, u.fail(jobID, err)
	}

	// store pass: reuse where the previous manifest already holds the
	// same content at the same path, upload the rest
	_ = u.registry.Update(jobID, func(j *jobs.Job) {
		j.Status = jobs.StatusUploading
		j.Progress.Phase = jobs.PhaseUploading
	})
	outcomes := make([]outcome, len(req.Files))
	u.forEachFile(len(req.Files), func(i int) {
		outcomes[i] = u.storeOne(ctx, jobID, &req.Files[i], encoded[i],
			encodeFailed[i], treePaths[i], admittedIdx[i], prevBlobs)
	})
	if err := ctx.Err(); err != nil {
		return nil, u.fail(jobID, err)
	}

	var results []model.FileUploadResult
	var paths []string
	successful := map[string]bool{}
	uploaded, reused := 0, 0
	for i := range outcomes {
		oc := &outcomes[i]
		if !oc.ok {
			continue
		}
		results = append(results, oc.res)
		paths = append(paths, req.Files[i].Name)
		successful[oc.treePath] = true
		if oc.reused {
			reused++
		} else {
			uploaded++
		}
	}

	patched, dropped := fstree.Patch(dir, results, paths, successful, fstree.WithLogger(u.l))
	logicalCount := fstree.CountFiles(patched)

	_ = u.registry.UpdateProgress(jobID, func(p *jobs.Progress) {
		p.Phase = jobs.PhaseCreatingManifest
		p.CurrentFile = ""
		p.CurrentFileStatus = ""
	})
	root, subURIs, err := u.splitter.Split(ctx, req.DID, patched)
	if err != nil {
		return nil, u.fail(jobID, err)
	}
	manifest := model.NewManifest(req.Site, root, int64(logicalCount), time.Now())
	uri, err := u.records.PutRecord(ctx, req.DID, model.FsCollection, req.Site, manifest)
	if err != nil {
		return nil, u.fail(jobID, ErrStore.Wrap(err))
	}

	_ = u.registry.UpdateProgress(jobID, func(p *jobs.Progress) {
		p.Phase = jobs.PhaseFinalizing
	})
	u.cleanupStaleSubfs(ctx, req.Previous, subURIs)

	result := jobs.Result{
		URI:       uri,
		FileCount: logicalCount,
		Uploaded:  uploaded,
		Reused:    reused,
		Skipped:   dropped,
	}
	_ = u.registry.Complete(jobID, result)

	u.l.Info("upload complete",
		zap.String("site", req.Site),
		zap.String("uri", uri),
		zap.Int("files", logicalCount),
		zap.Int("uploaded", uploaded),
		zap.Int("reused", reused),
		zap.Int("skipped", len(dropped)))
	return &result, nil
}

func (u *Uploader) storeOne(
	ctx context.Context,
	jobID string,
	f *model.UploadedFile,
	enc EncodedFile,
	encodeFailed bool,
	treePath string,
	admitted bool,
	prevBlobs map[string]fstree.BlobInfo,
) outcome {
	status := "failed"
	oc := outcome{treePath: treePath}
	defer func() {
		_ = u.registry.UpdateProgress(jobID, func(p *jobs.Progress) {
			p.FilesProcessed++
			p.CurrentFile = treePath
			p.CurrentFileStatus = status
			if oc.ok {
				if oc.reused {
					p.FilesReused++
				} else {
					p.FilesUploaded++
				}
			}
		})
	}()

	if !admitted {
		status = "skipped"
		return oc
	}
	if encodeFailed {
		return oc
	}

	cid := wcid.Compute(enc.Data)
	if prev, ok := prevBlobs[treePath]; ok && prev.CID == cid {
		oc.ok = true
		oc.reused = true
		status = "reused"
		oc.res = model.FileUploadResult{
			Hash:     cid,
			Blob:     prev.Blob,
			Encoding: enc.Encoding,
			MimeType: enc.MimeType,
			Base64:   enc.Base64,
		}
		return oc
	}

	ref, err := u.blobs.Put(ctx, enc.Data, blobMimeType)
	if err != nil {
		u.l.Warn("blob upload failed, skipping file",
			zap.String("file", f.Name),
			zap.Error(err))
		return oc
	}
	oc.ok = true
	status = "uploaded"
	oc.res = model.FileUploadResult{
		Hash:     cid,
		Blob:     ref,
		Encoding: enc.Encoding,
		MimeType: enc.MimeType,
		Base64:   enc.Base64,
	}
	return oc
}

// previousIndex resolves the previous manifest through its subfs records
// and flattens it to a path-indexed blob map for dedup comparison
func (u *Uploader) previousIndex(ctx context.Context, prev *model.Manifest) map[string]fstree.BlobInfo {
	if prev == nil || prev.Root == nil {
		return nil
	}
	root := prev.Root
	if merged, err := u.resolver.Resolve(ctx, root); err != nil {
		u.l.Warn("could not resolve previous manifest, dedup limited to its root record",
			zap.Error(err))
	} else {
		root = merged
	}
	return fstree.ExtractBlobMap(root)
}

// cleanupStaleSubfs deletes subfs records the previous manifest pointed
// at that the new one no longer references. Failures only log: stale
// records are garbage, not corruption.
func (u *Uploader) cleanupStaleSubfs(ctx context.Context, prev *model.Manifest, current []string) {
	if prev == nil || prev.Root == nil {
		return
	}
	keep := make(map[string]bool, len(current))
	for _, uri := range current {
		keep[uri] = true
	}
	for _, ref := range fstree.ExtractSubfsURIs(prev.Root) {
		if keep[ref.URI] {
			continue
		}
		if err := u.records.DeleteRecord(ctx, ref.URI); err != nil {
			u.l.Warn("failed to delete stale subfs record",
				zap.String("uri", ref.URI),
				zap.Error(err))
			continue
		}
		u.l.Debug("deleted stale subfs record", zap.String("uri", ref.URI))
	}
}

// forEachFile runs fn(i) for each index with at most workers in flight
func (u *Uploader) forEachFile(n int, fn func(i int)) {
	gate := make(chan struct{}, u.workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		gate <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-gate }()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func (u *Uploader) fail(jobID string, err error) error {
	_ = u.registry.Fail(jobID, err.Error())
	return err
}
