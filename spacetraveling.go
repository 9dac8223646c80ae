// Package spacetraveling serves blog post pages rendered from a headless CMS.
// Pages are built on first request, cached, and rebuilt in the background
// once they are older than the revalidation interval. The same pipeline
// exports the whole site as static files.
package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/spacetraveling/dateformat"
	"github.com/eringen/spacetraveling/localcms"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
	"github.com/eringen/spacetraveling/views"
)

// App wires together the CMS client, page builder, cache, store, handlers
// and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Logger  *zap.Logger
	Repo    *posts.Repository
	Builder *posts.Builder
	Cache   *PageCache
	Store   PageStore

	cms          posts.CMS
	limiter      *RateLimiter
	customRoutes []func(*App)
	ready        bool
}

// New creates an App with the given configuration. Nothing is opened until
// Setup or Start.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Logger: zap.NewNop(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup initializes the CMS client, builder, page store and cache and
// registers middleware and routes. It is called by Start; call it directly
// to use the App without serving (static export, tests).
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if a.cms == nil {
		cms, err := a.newCMS()
		if err != nil {
			return err
		}
		a.cms = cms
	}

	dates, err := dateformat.New(a.Config.Locale)
	if err != nil {
		return fmt.Errorf("spacetraveling: %w", err)
	}
	renderer := richtext.NewRenderer(richtext.WithLinkResolver(resolveDocumentLink))

	a.Repo = posts.NewRepository(a.cms,
		posts.WithDocumentType(a.Config.DocumentType),
		posts.WithLogger(a.Logger.Named("posts")),
	)
	a.Builder = posts.NewBuilder(a.Repo, dates, renderer, posts.WithBuilderLogger(a.Logger.Named("builder")))

	if a.Store == nil {
		store, err := a.newStore()
		if err != nil {
			return err
		}
		a.Store = store
	}

	cacheOpts := []CacheOption{
		WithCacheLogger(a.Logger.Named("cache")),
		WithBuildTimeout(a.Config.BuildTimeout),
	}
	if a.Store != nil {
		cacheOpts = append(cacheOpts, WithStore(a.Store))
	}
	a.Cache = NewPageCache(a.BuildPage, a.Config.RevalidateInterval, cacheOpts...)

	a.limiter = NewRateLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

func (a *App) newCMS() (posts.CMS, error) {
	switch {
	case a.Config.PrismicEndpoint != "":
		var opts []prismic.Option
		if a.Config.PrismicToken != "" {
			opts = append(opts, prismic.WithAccessToken(a.Config.PrismicToken))
		}
		client, err := prismic.NewClient(a.Config.PrismicEndpoint, opts...)
		if err != nil {
			return nil, fmt.Errorf("spacetraveling: init cms: %w", err)
		}
		a.Logger.Info("using prismic", zap.String("endpoint", a.Config.PrismicEndpoint))
		return client, nil
	case a.Config.ContentDir != "":
		a.Logger.Info("using local content", zap.String("dir", a.Config.ContentDir))
		return localcms.New(a.Config.ContentDir), nil
	}
	return nil, errors.New("spacetraveling: PrismicEndpoint or ContentDir is required")
}

func (a *App) newStore() (PageStore, error) {
	switch a.Config.StoreDriver {
	case StoreSQLite:
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("spacetraveling: init store: %w", err)
		}
		return store, nil
	case StoreRedis:
		if a.Config.RedisURL == "" {
			return nil, errors.New("spacetraveling: RedisURL is required for the redis store")
		}
		store, err := NewRedisStore(a.Config.RedisURL, 0)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoreNone:
		return nil, nil
	}
	return nil, fmt.Errorf("spacetraveling: unknown store %q", a.Config.StoreDriver)
}

// Start sets the App up and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Logger.Info("server starting", zap.String("addr", a.Config.Addr))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and waits for background rebuilds.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if a.Cache != nil {
		done := make(chan struct{})
		go func() {
			a.Cache.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return err
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// BuildPage builds slug and renders it to HTML. It is the cache's BuildFunc.
func (a *App) BuildPage(ctx context.Context, slug string) (*RenderedPage, error) {
	page, err := a.Builder.Build(ctx, slug)
	if err != nil {
		return nil, err
	}
	return a.renderPage(ctx, page)
}

func (a *App) renderPage(ctx context.Context, page *posts.Page) (*RenderedPage, error) {
	html, err := renderHTML(ctx, a.pageComponent(page))
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: render %q: %w", page.Slug, err)
	}
	return &RenderedPage{
		Slug:    page.Slug,
		State:   page.State,
		HTML:    html,
		BuiltAt: time.Now(),
	}, nil
}

func (a *App) pageComponent(page *posts.Page) templ.Component {
	if page.State == posts.StatePending || page.Post == nil {
		return views.Pending(a.viewConfig())
	}
	return views.Post(a.viewConfig(), page.Slug, page.Post)
}

func (a *App) viewConfig() views.SiteConfig {
	return views.SiteConfig{Name: a.Config.Name, URL: a.Config.URL, Lang: a.Config.Lang}
}

// resolveDocumentLink points links to other post documents at their page.
func resolveDocumentLink(d richtext.SpanData) string {
	if d.LinkType != "Document" || d.UID == "" {
		return ""
	}
	if d.Type != "" && d.Type != posts.DefaultDocumentType {
		return ""
	}
	return PostPath(d.UID)
}
