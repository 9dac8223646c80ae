package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/posts"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostURL returns the canonical URL of a post.
func PostURL(cfg SiteConfig, slug string) string {
	return buildURL(cfg.URL, "post", slug)
}

// PageTitle formats a document title with the site name suffix.
func PageTitle(cfg SiteConfig, title string) string {
	if title == "" {
		return cfg.Name
	}
	return title + " | " + cfg.Name
}

// ReadTimeLabel renders a reading time such as "4 min".
func ReadTimeLabel(minutes int) string {
	return strconv.Itoa(minutes) + " min"
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, slug string, post *posts.ViewModel) string {
	postURL := PostURL(cfg, slug)
	data := map[string]interface{}{
		"@context":     "https://schema.org",
		"@type":        "BlogPosting",
		"headline":     post.Title,
		"url":          postURL,
		"timeRequired": "PT" + strconv.Itoa(post.ReadTimeMinutes) + "M",
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.BannerURL != "" && string(templ.URL(post.BannerURL)) == post.BannerURL {
		data["image"] = post.BannerURL
	}
	if post.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
