package search

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/studykit/docsearch/pkg/types"
)

const (
	defaultCacheSize = 1000
	defaultCacheTTL  = 5 * time.Minute
)

type cacheEntry struct {
	result    *types.SearchResult
	expiresAt time.Time
}

// resultCache is an LRU of recent search results keyed by a hash of the
// query and its options. Search is an idempotent read over a mostly-static
// index, so a short TTL is safe.
type resultCache struct {
	cache *lru.Cache[[32]byte, *cacheEntry]
	ttl   time.Duration
	mu    sync.RWMutex
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	cache, err := lru.New[[32]byte, *cacheEntry](size)
	if err != nil {
		// Only reachable with a non-positive size
		cache, _ = lru.New[[32]byte, *cacheEntry](defaultCacheSize)
	}
	return &resultCache{cache: cache, ttl: ttl}
}

func (c *resultCache) get(query string, opts types.SearchOptions) (*types.SearchResult, bool) {
	key := cacheKey(query, opts)
	now := time.Now()

	c.mu.RLock()
	entry, found := c.cache.Get(key)
	if !found {
		c.mu.RUnlock()
		return nil, false
	}
	if now.After(entry.expiresAt) {
		c.mu.RUnlock()
		c.mu.Lock()
		c.cache.Remove(key)
		c.mu.Unlock()
		return nil, false
	}
	result := copyResult(entry.result)
	c.mu.RUnlock()

	return result, true
}

func (c *resultCache) set(query string, opts types.SearchOptions, result *types.SearchResult) {
	entry := &cacheEntry{
		result:    copyResult(result),
		expiresAt: time.Now().Add(c.ttl),
	}

	c.mu.Lock()
	c.cache.Add(cacheKey(query, opts), entry)
	c.mu.Unlock()
}

func (c *resultCache) purge() {
	c.mu.Lock()
	c.cache.Purge()
	c.mu.Unlock()
}

// cacheKey builds a deterministic hash of the query and every option that
// affects the result.
func cacheKey(query string, opts types.SearchOptions) [32]byte {
	var b strings.Builder
	b.WriteString(query)
	fmt.Fprintf(&b, "|%d|%d|%g|%g|%g|%t|%t",
		opts.Limit, opts.Offset, opts.MinScore,
		opts.KeywordWeight, opts.SemanticWeight,
		opts.EnhanceContext, opts.Rerank)
	b.WriteString("|")
	b.WriteString(opts.Filter.DocumentID)

	keys := make([]string, 0, len(opts.Filter.Metadata))
	for k := range opts.Filter.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, opts.Filter.Metadata[k])
	}

	return sha256.Sum256([]byte(b.String()))
}

// copyResult deep-copies a result so cached values cannot be mutated by
// callers.
func copyResult(src *types.SearchResult) *types.SearchResult {
	if src == nil {
		return nil
	}

	dst := &types.SearchResult{
		Query:        src.Query,
		TotalResults: src.TotalResults,
		Mode:         src.Mode,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]types.ScoredHit, len(src.Results)),
	}
	for i, hit := range src.Results {
		dst.Results[i] = hit.Clone()
	}
	return dst
}
