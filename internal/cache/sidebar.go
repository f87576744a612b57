package cache

import (
	"context"
	"time"

	"github.com/avolkov/inkpress/internal/store"
)

const sidebarKey = "sidebar"

// SidebarData holds the category and tag listings shown in the blog
// sidebar, each with published post counts.
type SidebarData struct {
	Categories []store.CategoryCountRow `json:"categories"`
	Tags       []store.TagCountRow      `json:"tags"`
}

// SidebarCache caches the sidebar taxonomy listings. The counts only
// change when posts or taxonomy change, so a short TTL plus explicit
// invalidation on writes keeps them fresh.
type SidebarCache struct {
	cache   *TypedCache[SidebarData]
	queries *store.Queries
}

// NewSidebarCache creates a sidebar cache on top of the given backend.
func NewSidebarCache(backend Cacher, queries *store.Queries, ttl time.Duration) *SidebarCache {
	return &SidebarCache{
		cache:   NewTypedCache[SidebarData](backend, ttl),
		queries: queries,
	}
}

// Get returns the sidebar data, loading it from the database on a miss.
func (c *SidebarCache) Get(ctx context.Context) (*SidebarData, error) {
	return c.cache.GetOrSet(ctx, sidebarKey, func() (*SidebarData, error) {
		categories, err := c.queries.ListCategoriesWithCount(ctx)
		if err != nil {
			return nil, err
		}

		tags, err := c.queries.ListTagsWithCount(ctx)
		if err != nil {
			return nil, err
		}

		return &SidebarData{Categories: categories, Tags: tags}, nil
	})
}

// Invalidate drops the cached sidebar data so the next Get reloads it.
func (c *SidebarCache) Invalidate(ctx context.Context) {
	_ = c.cache.Delete(ctx, sidebarKey)
}
