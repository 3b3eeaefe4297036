// Package search serves ranked lookups over the live index with a result
// cache and metrics.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/metrics"
)

// DefaultCacheSize is the number of distinct queries kept per engine.
const DefaultCacheSize = 256

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// SearchOptions configures one search.
type SearchOptions struct {
	// Limit caps the number of results. 0 returns all of them.
	Limit int
	// K, when non-zero, must equal the index's shingle length.
	K int
}

// Engine searches whatever index its Handle currently serves.
type Engine struct {
	handle    *index.Handle
	cache     *lru.Cache[cacheKey, []index.Result]
	cacheSize int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// cacheKey ties an entry to the index generation that produced it, so a
// swap makes every older entry unreachable.
type cacheKey struct {
	generation uint64
	query      string
}

// Option configures the engine.
type Option func(*Engine)

// WithCacheSize sets how many distinct queries are cached. 0 or less
// disables the cache.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithMetrics records query latency, outcomes and cache behaviour.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine over h.
func New(h *index.Handle, opts ...Option) (*Engine, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: index handle is required", ErrNilDependency)
	}
	e := &Engine{
		handle:    h,
		cacheSize: DefaultCacheSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cacheSize > 0 {
		cache, err := lru.New[cacheKey, []index.Result](e.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create result cache: %w", err)
		}
		e.cache = cache
	}
	if idx := h.Load(); idx != nil {
		e.observeIndex(idx, h.Generation())
	}
	return e, nil
}

// Search ranks the live index's documents against query.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) ([]index.Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Limit < 0 {
		return nil, e.fail(trovoerrors.InvalidArgument(fmt.Sprintf("limit must be >= 0, got %d", opts.Limit)))
	}

	idx, gen := e.handle.Current()
	if idx == nil {
		return nil, e.fail(trovoerrors.New(trovoerrors.ErrCodeSearchFailed, "no index loaded", nil).
			WithSuggestion("Run 'trovo index' first"))
	}
	if opts.K != 0 {
		if err := idx.CheckK(opts.K); err != nil {
			return nil, e.fail(err)
		}
	}

	key := cacheKey{generation: gen, query: strings.ToLower(query)}
	cacheStatus := "miss"
	results, ok := e.lookup(key)
	if ok {
		cacheStatus = "hit"
	} else {
		results = idx.Search(query)
		if e.cache != nil {
			e.cache.Add(key, results)
		}
	}

	total := len(results)
	if opts.Limit > 0 && opts.Limit < total {
		results = results[:opts.Limit]
	}
	// Cached slices are shared; callers get their own copy.
	out := make([]index.Result, len(results))
	copy(out, results)

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
		e.metrics.SearchResultsCount.Observe(float64(len(out)))
		outcome := "hit"
		if total == 0 {
			outcome = "zero_result"
		}
		e.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	}

	e.logger.Debug("search_complete",
		slog.String("query", query),
		slog.Int("k", idx.K()),
		slog.Int("results", len(out)),
		slog.Int("matches", total),
		slog.String("cache", cacheStatus),
		slog.Duration("duration", elapsed))

	return out, nil
}

// Swap publishes idx and returns the index it replaced. Cached results of
// the old index are never served again.
func (e *Engine) Swap(idx *index.Index) *index.Index {
	old := e.handle.Swap(idx)
	gen := e.handle.Generation()
	if idx != nil {
		e.observeIndex(idx, gen)
	}
	e.logger.Info("index_swapped",
		slog.Uint64("generation", gen),
		slog.Int("documents", docCount(idx)))
	return old
}

// Index returns the index currently served, or nil.
func (e *Engine) Index() *index.Index {
	return e.handle.Load()
}

// Generation returns how many times the index has been swapped.
func (e *Engine) Generation() uint64 {
	return e.handle.Generation()
}

// CacheLen returns the number of cached queries.
func (e *Engine) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

func (e *Engine) lookup(key cacheKey) ([]index.Result, bool) {
	if e.cache == nil {
		return nil, false
	}
	results, ok := e.cache.Get(key)
	if e.metrics != nil {
		if ok {
			e.metrics.CacheHitsTotal.Inc()
		} else {
			e.metrics.CacheMissesTotal.Inc()
		}
	}
	return results, ok
}

func (e *Engine) fail(err error) error {
	if e.metrics != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
	}
	return err
}

func (e *Engine) observeIndex(idx *index.Index, gen uint64) {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexDocuments.Set(float64(idx.Len()))
	e.metrics.IndexVocabulary.Set(float64(idx.VocabularySize()))
	e.metrics.IndexGeneration.Set(float64(gen))
}

func docCount(idx *index.Index) int {
	if idx == nil {
		return 0
	}
	return idx.Len()
}
