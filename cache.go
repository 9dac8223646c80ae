package spacetraveling

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/spacetraveling/posts"
)

// BuildFunc produces the rendered page for a slug.
type BuildFunc func(ctx context.Context, slug string) (*RenderedPage, error)

// PageCache serves rendered pages with stale-while-revalidate semantics:
//
//   - a fresh page is returned as is;
//   - a stale page is returned immediately while one background rebuild runs;
//   - a missing page is built synchronously, with concurrent requests for the
//     same slug sharing one build.
//
// Pending pages are returned but never cached.
type PageCache struct {
	mu         sync.RWMutex
	pages      map[string]*RenderedPage
	refreshing map[string]bool

	ttl          time.Duration
	build        BuildFunc
	store        PageStore
	logger       *zap.Logger
	buildTimeout time.Duration
	now          func() time.Time

	group singleflight.Group
	wg    sync.WaitGroup
}

// CacheOption configures a PageCache.
type CacheOption func(*PageCache)

// WithStore backs the cache with a persistent PageStore.
func WithStore(s PageStore) CacheOption {
	return func(c *PageCache) {
		c.store = s
	}
}

// WithCacheLogger sets the logger used for background rebuild failures.
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *PageCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBuildTimeout bounds every build the cache starts.
func WithBuildTimeout(d time.Duration) CacheOption {
	return func(c *PageCache) {
		if d > 0 {
			c.buildTimeout = d
		}
	}
}

// NewPageCache creates a PageCache that rebuilds pages older than ttl.
func NewPageCache(build BuildFunc, ttl time.Duration, opts ...CacheOption) *PageCache {
	c := &PageCache{
		pages:        make(map[string]*RenderedPage),
		refreshing:   make(map[string]bool),
		ttl:          ttl,
		build:        build,
		logger:       zap.NewNop(),
		buildTimeout: 30 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the page for slug. A build error is returned only when no
// cached copy exists; errors.Is(err, posts.ErrNotFound) identifies an
// unknown slug.
func (c *PageCache) Get(ctx context.Context, slug string) (*RenderedPage, error) {
	page := c.lookup(ctx, slug)
	if page != nil {
		if c.now().Sub(page.BuiltAt) >= c.ttl {
			c.refresh(slug)
		}
		return page, nil
	}

	v, err, _ := c.group.Do(slug, func() (interface{}, error) {
		// The build outlives a caller that goes away; others may be waiting.
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.buildTimeout)
		defer cancel()
		page, err := c.build(bctx, slug)
		if err != nil {
			return nil, err
		}
		c.Put(bctx, page)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RenderedPage), nil
}

func (c *PageCache) lookup(ctx context.Context, slug string) *RenderedPage {
	c.mu.RLock()
	page := c.pages[slug]
	c.mu.RUnlock()
	if page != nil || c.store == nil {
		return page
	}

	stored, err := c.store.Get(ctx, slug)
	if err != nil {
		if !errors.Is(err, ErrPageNotStored) {
			c.logger.Warn("page store read failed", zap.String("slug", slug), zap.Error(err))
		}
		return nil
	}
	c.mu.Lock()
	if existing := c.pages[slug]; existing != nil {
		stored = existing
	} else {
		c.pages[slug] = stored
	}
	c.mu.Unlock()
	return stored
}

// Put caches a published page and writes it to the store. Other pages are
// ignored.
func (c *PageCache) Put(ctx context.Context, page *RenderedPage) {
	if page == nil || page.State != posts.StatePublished {
		return
	}
	c.mu.Lock()
	c.pages[page.Slug] = page
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Save(ctx, page); err != nil {
			c.logger.Warn("page store write failed", zap.String("slug", page.Slug), zap.Error(err))
		}
	}
}

// Invalidate drops the given pages so the next request rebuilds them.
func (c *PageCache) Invalidate(ctx context.Context, slugs ...string) {
	c.mu.Lock()
	for _, slug := range slugs {
		delete(c.pages, slug)
	}
	c.mu.Unlock()
	if c.store == nil {
		return
	}
	for _, slug := range slugs {
		if err := c.store.Delete(ctx, slug); err != nil {
			c.logger.Warn("page store delete failed", zap.String("slug", slug), zap.Error(err))
		}
	}
}

// InvalidateAll drops every page held in memory and returns their slugs.
func (c *PageCache) InvalidateAll(ctx context.Context) []string {
	c.mu.RLock()
	slugs := make([]string, 0, len(c.pages))
	for slug := range c.pages {
		slugs = append(slugs, slug)
	}
	c.mu.RUnlock()
	c.Invalidate(ctx, slugs...)
	return slugs
}

// Len returns the number of pages held in memory.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

// Wait blocks until every background rebuild has finished.
func (c *PageCache) Wait() {
	c.wg.Wait()
}

// refresh starts a background rebuild of slug unless one is running.
func (c *PageCache) refresh(slug string) {
	c.mu.Lock()
	if c.refreshing[slug] {
		c.mu.Unlock()
		return
	}
	c.refreshing[slug] = true
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, slug)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.buildTimeout)
		defer cancel()
		page, err := c.build(ctx, slug)
		switch {
		case errors.Is(err, posts.ErrNotFound):
			c.logger.Info("post removed, evicting page", zap.String("slug", slug))
			c.Invalidate(ctx, slug)
		case err != nil:
			c.logger.Warn("background rebuild failed, serving stale page", zap.String("slug", slug), zap.Error(err))
		case page.State != posts.StatePublished:
			c.logger.Info("post unpublished, evicting page", zap.String("slug", slug))
			c.Invalidate(ctx, slug)
		default:
			c.Put(ctx, page)
		}
	}()
}
