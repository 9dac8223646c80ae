// Package views holds the HTML components for the post pages.
package views

// SiteConfig holds the site-wide settings every page needs.
type SiteConfig struct {
	Name string // site name, used as the title suffix (default "spacetraveling")
	URL  string // canonical base URL
	Lang string // html lang attribute (default "en")
}

// PageMeta carries per-page SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
	Robots      string // robots meta, empty for the default
}
