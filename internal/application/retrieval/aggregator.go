// Package retrieval fans similarity searches out across recipe
// collections and folds the hits into one deduplicated candidate pool.
package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/alchemorsel/planner/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tune the aggregator's fan-out behavior
type Options struct {
	PerCollectionLimit int
	MaxCandidates      int
	SearchTimeout      time.Duration
}

// DefaultOptions returns the production fan-out settings
func DefaultOptions() Options {
	return Options{
		PerCollectionLimit: 10,
		MaxCandidates:      30,
		SearchTimeout:      5 * time.Second,
	}
}

// Result is the merged outcome of one retrieval round
type Result struct {
	Candidates []outbound.VectorHit
	// Searched lists collections queried this round, Failed the subset
	// that errored. Failed collections contribute zero hits.
	Searched []string
	Failed   []string
	// Cursors holds the next per-collection offsets for a follow-up
	// round that wants fresh variety.
	Cursors      map[string]int
	AverageScore float64
}

// Aggregator runs concurrent per-collection searches with a bounded
// per-call timeout. A failed collection never fails the round; only all
// collections failing does.
type Aggregator struct {
	vector outbound.VectorSearchService
	opts   Options
	logger *zap.Logger
}

// NewAggregator creates a retrieval aggregator
func NewAggregator(vector outbound.VectorSearchService, opts Options, logger *zap.Logger) *Aggregator {
	if opts.PerCollectionLimit <= 0 {
		opts.PerCollectionLimit = DefaultOptions().PerCollectionLimit
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultOptions().MaxCandidates
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultOptions().SearchTimeout
	}
	return &Aggregator{
		vector: vector,
		opts:   opts,
		logger: logger,
	}
}

// Retrieve searches every collection concurrently and merges the hits.
// cursors carries per-collection offsets from a previous round; pass nil
// for the first round.
func (a *Aggregator) Retrieve(ctx context.Context, query string, collections []string, cursors map[string]int) (*Result, error) {
	if len(collections) == 0 {
		return nil, errors.NewBadRequestError("no collections to search")
	}

	type collectionHits struct {
		collection string
		hits       []outbound.VectorHit
		err        error
	}

	results := make([]collectionHits, len(collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, collection := range collections {
		i, collection := i, collection
		offset := cursors[collection]
		g.Go(func() error {
			searchCtx, cancel := context.WithTimeout(gctx, a.opts.SearchTimeout)
			defer cancel()

			hits, err := a.vector.Search(searchCtx, collection, query, a.opts.PerCollectionLimit, offset)
			results[i] = collectionHits{collection: collection, hits: hits, err: err}
			// Errors are recorded, not returned, so one slow or broken
			// collection cannot cancel the others.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.NewRetrievalTotalFailureError(err)
	}

	result := &Result{
		Searched: collections,
		Cursors:  make(map[string]int, len(collections)),
	}
	var merged []outbound.VectorHit
	var lastErr error
	for _, r := range results {
		if r.err != nil {
			lastErr = r.err
			result.Failed = append(result.Failed, r.collection)
			result.Cursors[r.collection] = cursors[r.collection]
			a.logger.Warn("collection search failed",
				zap.String("collection", r.collection),
				zap.Error(r.err),
			)
			continue
		}
		result.Cursors[r.collection] = cursors[r.collection] + len(r.hits)
		merged = append(merged, r.hits...)
	}
	if len(result.Failed) == len(collections) {
		return nil, errors.NewRetrievalTotalFailureError(lastErr)
	}

	result.Candidates = interleave(collections, dedupe(merged), a.opts.MaxCandidates)
	result.AverageScore = averageScore(result.Candidates)

	a.logger.Debug("retrieval round complete",
		zap.Int("candidates", len(result.Candidates)),
		zap.Strings("failed_collections", result.Failed),
	)
	return result, nil
}

// dedupe keeps one hit per recipe id. The highest-scoring occurrence
// wins so the collection tag reflects where the recipe matched best.
func dedupe(hits []outbound.VectorHit) []outbound.VectorHit {
	best := make(map[uuid.UUID]outbound.VectorHit, len(hits))
	for _, h := range hits {
		if existing, ok := best[h.RecipeID]; !ok || h.Score > existing.Score {
			best[h.RecipeID] = h
		}
	}
	out := make([]outbound.VectorHit, 0, len(best))
	for _, h := range best {
		out = append(out, h)
	}
	return out
}

// interleave truncates the pool to max by drawing from each collection
// in turn, every collection's own hits ordered by score. Scores are
// never compared across collections, so a uniformly low-scoring
// collection still lands its share of the pool.
func interleave(collections []string, hits []outbound.VectorHit, max int) []outbound.VectorHit {
	grouped := make(map[string][]outbound.VectorHit, len(collections))
	for _, h := range hits {
		grouped[h.Collection] = append(grouped[h.Collection], h)
	}
	for _, g := range grouped {
		sortHits(g)
	}

	out := make([]outbound.VectorHit, 0, len(hits))
	for round := 0; len(out) < max; round++ {
		took := false
		for _, collection := range collections {
			g := grouped[collection]
			if round >= len(g) {
				continue
			}
			out = append(out, g[round])
			took = true
			if len(out) == max {
				break
			}
		}
		if !took {
			break
		}
	}
	return out
}

// sortHits orders by score descending, then recipe id for a stable
// tiebreak. Within one collection this order is meaningful; across
// collections scores are not comparable.
func sortHits(hits []outbound.VectorHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RecipeID.String() < hits[j].RecipeID.String()
	})
}

func averageScore(hits []outbound.VectorHit) float64 {
	if len(hits) == 0 {
		return 0
	}
	var sum float64
	for _, h := range hits {
		sum += h.Score
	}
	return sum / float64(len(hits))
}
