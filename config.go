package spacetraveling

import (
	"time"

	"go.uber.org/zap"

	"github.com/eringen/spacetraveling/posts"
)

// SiteConfig holds all configuration for a spacetraveling site. Field tags
// are the keys used by the config file and SPACETRAVELING_* environment
// variables.
type SiteConfig struct {
	Name string `mapstructure:"name"` // Site name, title suffix (default "spacetraveling")
	URL  string `mapstructure:"url"`  // Canonical URL (default "http://localhost:3000")
	Lang string `mapstructure:"lang"` // html lang attribute (default "en")

	Addr   string `mapstructure:"addr"`   // Listen address (default ":3000")
	Locale string `mapstructure:"locale"` // Month name locale (default "en_US")

	PrismicEndpoint string `mapstructure:"prismic_endpoint"` // e.g. https://repo.cdn.prismic.io/api/v2
	PrismicToken    string `mapstructure:"prismic_token"`    // Optional access token
	ContentDir      string `mapstructure:"content_dir"`      // Markdown content root, used when no endpoint is set
	DocumentType    string `mapstructure:"document_type"`    // CMS custom type (default "posts")

	StoreDriver  string `mapstructure:"store"`         // "sqlite" (default), "redis" or "none"
	DatabasePath string `mapstructure:"database_path"` // SQLite path (default "data/pages.db")
	RedisURL     string `mapstructure:"redis_url"`     // redis://host:6379/0

	RevalidateInterval time.Duration `mapstructure:"revalidate_interval"` // Page staleness interval (default 60s)
	RevalidateSecret   string        `mapstructure:"revalidate_secret"`   // Enables POST /api/revalidate/ when set
	BuildConcurrency   int           `mapstructure:"build_concurrency"`   // Parallel page builds (default 4)
	BuildTimeout       time.Duration `mapstructure:"build_timeout"`       // Per-page build timeout (default 30s)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Locale == "" {
		c.Locale = "en_US"
	}
	if c.DocumentType == "" {
		c.DocumentType = posts.DefaultDocumentType
	}
	if c.StoreDriver == "" {
		c.StoreDriver = StoreSQLite
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.RevalidateInterval == 0 {
		c.RevalidateInterval = 60 * time.Second
	}
	if c.BuildConcurrency <= 0 {
		c.BuildConcurrency = 4
	}
	if c.BuildTimeout == 0 {
		c.BuildTimeout = 30 * time.Second
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the application logger (default no-op).
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.Logger = l
		}
	}
}

// WithCMS injects the CMS client instead of building one from the config.
func WithCMS(cms posts.CMS) Option {
	return func(a *App) {
		a.cms = cms
	}
}

// WithPageStore injects the page store instead of opening one from the
// config. The App takes ownership and closes it.
func WithPageStore(s PageStore) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
