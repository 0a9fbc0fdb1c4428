// Package cache provides short-lived memoisation of search outcomes.
package cache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// ResultCache memoises terminal search outcomes for identical requests.
// Entries expire quickly: the repository tree can change under the
// server, so the TTL only needs to absorb immediate repeats of the same
// query. A nil *ResultCache is valid and caches nothing.
type ResultCache struct {
	lru *expirable.LRU[string, *types.SearchOutcome]
}

// NewResultCache creates a cache holding up to maxItems outcomes for ttl
// each. Returns nil (a no-op cache) when either bound disables caching.
func NewResultCache(maxItems int, ttl time.Duration) *ResultCache {
	if maxItems <= 0 || ttl <= 0 {
		return nil
	}
	return &ResultCache{
		lru: expirable.NewLRU[string, *types.SearchOutcome](maxItems, nil, ttl),
	}
}

// Get returns a copy of the cached outcome for key, if present.
func (c *ResultCache) Get(key string) (*types.SearchOutcome, bool) {
	if c == nil {
		return nil, false
	}
	out, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return out.Clone(), true
}

// Put stores a copy of the outcome under key.
func (c *ResultCache) Put(key string, out *types.SearchOutcome) {
	if c == nil || out == nil {
		return
	}
	c.lru.Add(key, out.Clone())
}

// Key canonicalizes a resolved request. Two requests share a key only if
// every field that can influence the outcome is identical.
func Key(req *types.SearchRequest) string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%t\x00%t",
		req.Query, req.PathFilter, req.Root, req.MaxResults, req.Hidden, req.Ignored)
}
