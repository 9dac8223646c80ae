package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/posts"
)

// LoadingText is shown while a post has not been generated yet.
const LoadingText = "Loading..."

// Stylesheet is the path of the page stylesheet.
const Stylesheet = "/public/post.css"

func esc(s string) string {
	return templ.EscapeString(s)
}

func safeURL(s string) string {
	return esc(string(templ.URL(s)))
}

func component(fn func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		fn(&buf)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writeHead(buf *bytes.Buffer, cfg SiteConfig, meta PageMeta) {
	lang := cfg.Lang
	if lang == "" {
		lang = "en"
	}
	buf.WriteString(`<!DOCTYPE html><html lang="` + esc(lang) + `"><head><meta charset="utf-8"/>`)
	buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
	buf.WriteString(`<title>` + esc(meta.Title) + `</title>`)
	if meta.Description != "" {
		buf.WriteString(`<meta name="description" content="` + esc(meta.Description) + `"/>`)
	}
	if meta.Robots != "" {
		buf.WriteString(`<meta name="robots" content="` + esc(meta.Robots) + `"/>`)
	}
	if meta.URL != "" {
		buf.WriteString(`<link rel="canonical" href="` + safeURL(meta.URL) + `"/>`)
		buf.WriteString(`<meta property="og:url" content="` + safeURL(meta.URL) + `"/>`)
	}
	buf.WriteString(`<meta property="og:title" content="` + esc(meta.Title) + `"/>`)
	if meta.OGType != "" {
		buf.WriteString(`<meta property="og:type" content="` + esc(meta.OGType) + `"/>`)
	}
	if meta.Image != "" {
		buf.WriteString(`<meta property="og:image" content="` + safeURL(meta.Image) + `"/>`)
	}
	buf.WriteString(`<link rel="stylesheet" href="` + Stylesheet + `"/></head><body>`)
	buf.WriteString(`<header class="site-header"><a href="/" class="logo">` + esc(cfg.Name) + `</a></header>`)
}

func writeFoot(buf *bytes.Buffer) {
	buf.WriteString(`</body></html>`)
}

// Post renders a published post. Section HTML is inserted verbatim; it must
// already be sanitized.
func Post(cfg SiteConfig, slug string, post *posts.ViewModel) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, PageMeta{
			Title:  PageTitle(cfg, post.Title),
			URL:    PostURL(cfg, slug),
			OGType: "article",
			Image:  post.BannerURL,
		})
		if post.BannerURL != "" {
			buf.WriteString(`<img class="banner" src="` + safeURL(post.BannerURL) + `" alt="banner"/>`)
		}
		buf.WriteString(`<main class="post"><h1>` + esc(post.Title) + `</h1>`)
		buf.WriteString(`<div class="post-info">`)
		buf.WriteString(`<time>` + esc(post.FormattedDate) + `</time>`)
		buf.WriteString(`<span class="author">` + esc(post.Author) + `</span>`)
		buf.WriteString(`<span class="read-time">` + esc(ReadTimeLabel(post.ReadTimeMinutes)) + `</span>`)
		buf.WriteString(`</div>`)
		for _, s := range post.Sections {
			buf.WriteString(`<article><h2>` + esc(s.Heading) + `</h2><div class="post-content">`)
			buf.WriteString(s.HTML)
			buf.WriteString(`</div></article>`)
		}
		buf.WriteString(`</main>`)
		buf.WriteString(`<script type="application/ld+json">` + BlogPostingJsonLD(cfg, slug, post) + `</script>`)
		writeFoot(buf)
	})
}

// Pending renders the placeholder for a post that exists but has not been
// generated yet.
func Pending(cfg SiteConfig) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, PageMeta{Title: PageTitle(cfg, ""), Robots: "noindex"})
		buf.WriteString(`<main class="post"><p class="loading">` + LoadingText + `</p></main>`)
		writeFoot(buf)
	})
}

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, PageMeta{Title: PageTitle(cfg, "Not found"), Robots: "noindex"})
		buf.WriteString(`<main class="post"><h1>404</h1><p>This page could not be found.</p><a href="/">Back home</a></main>`)
		writeFoot(buf)
	})
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, PageMeta{Title: PageTitle(cfg, "Error"), Robots: "noindex"})
		buf.WriteString(`<main class="post"><h1>500</h1><p>Something went wrong.</p></main>`)
		writeFoot(buf)
	})
}
