package taxonomy

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of vocabularies kept by CachedLoader.
const DefaultCacheSize = 256

// CachedLoader memoises vocabulary lookups in an LRU cache. Errors are not
// cached. It is safe for concurrent use.
type CachedLoader struct {
	next  Loader
	cache *lru.Cache[string, []Term]
}

// NewCachedLoader wraps next with an LRU cache holding up to size
// vocabularies (DefaultCacheSize when size <= 0).
func NewCachedLoader(next Loader, size int) (*CachedLoader, error) {
	if next == nil {
		return nil, fmt.Errorf("taxonomy: cached loader requires a loader")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []Term](size)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: create cache: %w", err)
	}
	return &CachedLoader{next: next, cache: cache}, nil
}

// LoadVocabulary implements Loader.
func (c *CachedLoader) LoadVocabulary(ctx context.Context, vocabularyID string) ([]Term, error) {
	if terms, ok := c.cache.Get(vocabularyID); ok {
		return append([]Term(nil), terms...), nil
	}
	terms, err := c.next.LoadVocabulary(ctx, vocabularyID)
	if err != nil {
		return nil, err
	}
	stored := append([]Term(nil), terms...)
	c.cache.Add(vocabularyID, stored)
	return append([]Term(nil), stored...), nil
}

// Invalidate drops a vocabulary from the cache.
func (c *CachedLoader) Invalidate(vocabularyID string) {
	c.cache.Remove(vocabularyID)
}

// Purge empties the cache.
func (c *CachedLoader) Purge() {
	c.cache.Purge()
}

// Len reports the number of cached vocabularies.
func (c *CachedLoader) Len() int {
	return c.cache.Len()
}
