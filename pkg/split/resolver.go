package split

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/WaveringAna/wisp/pkg/errors"
	"github.com/WaveringAna/wisp/pkg/fstree"
	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/storage"
)

// ErrTooManyRounds is returned when nested subfs records exceed the
// recursion bound, which in practice means a reference cycle
var ErrTooManyRounds = errors.New("subfs nesting exceeds resolution bound")

// Resolver merges subfs records back into a single logical tree
type Resolver struct {
	fetcher    storage.RecordFetcher
	l          *zap.Logger
	maxRounds  int
	fetchLimit int
}

// NewResolver creates a resolver reading subfs records through fetcher
func NewResolver(fetcher storage.RecordFetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:    fetcher,
		l:          zap.NewNop(),
		maxRounds:  DefaultResolveRounds,
		fetchLimit: DefaultFetchConcurrency,
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Resolve returns a fresh tree with every subfs reference replaced by
// the entries of the record it points at. Flat references (the default
// when unset) splice their entries directly at the reference's position;
// non-flat references nest them under a directory named after the
// original entry. A record that cannot be fetched drops its reference
// with a warning rather than failing the whole merge.
func (r *Resolver) Resolve(ctx context.Context, dir *model.Directory) (*model.Directory, error) {
	return r.resolveDir(ctx, dir, 0)
}

func (r *Resolver) resolveDir(ctx context.Context, dir *model.Directory, depth int) (*model.Directory, error) {
	refs := fstree.ExtractSubfsURIs(dir)
	if len(refs) == 0 {
		return model.CloneDirectory(dir), nil
	}
	if depth >= r.maxRounds {
		return nil, ErrTooManyRounds.WrapMsg("depth %d", depth)
	}

	// fetch this round's records with bounded concurrency, resolving
	// each record's own references before it is spliced in
	resolved := make(map[string]*model.Directory, len(refs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fetchLimit)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			var rec model.SubfsRecord
			if err := r.fetcher.GetRecord(gctx, ref.URI, &rec); err != nil {
				r.l.Warn("failed to fetch subfs record, dropping reference",
					zap.String("uri", ref.URI),
					zap.String("path", ref.Path),
					zap.Error(err))
				return nil
			}
			sub, err := r.resolveDir(gctx, rec.Root, depth+1)
			if err != nil {
				return err
			}
			mu.Lock()
			resolved[ref.Path] = sub
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return r.splice(dir, "", resolved), nil
}

func (r *Resolver) splice(dir *model.Directory, prefix string, resolved map[string]*model.Directory) *model.Directory {
	entries := make([]model.Entry, 0, len(dir.Entries))
	for _, e := range dir.Entries {
		path := joinPath(prefix, e.Name)
		switch n := e.Node.(type) {
		case *model.Subfs:
			sub, ok := resolved[path]
			if !ok {
				continue // fetch failed, reference dropped above
			}
			if n.IsFlat() {
				entries = append(entries, sub.Entries...)
				continue
			}
			entries = append(entries, model.Entry{Name: e.Name, Node: sub})
		case *model.Directory:
			entries = append(entries, model.Entry{Name: e.Name, Node: r.splice(n, path, resolved)})
		default:
			entries = append(entries, model.Entry{Name: e.Name, Node: model.CloneNode(e.Node)})
		}
	}
	return model.NewDirectory(entries)
}
