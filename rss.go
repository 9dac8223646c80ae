package spacetraveling

import (
	"encoding/xml"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/dateformat"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/views"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

func (a *App) renderFeed(c echo.Context, pages []*posts.Page) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return writeFeed(c.Response(), a.Config, pages)
}

// writeFeed writes an RSS 2.0 feed of the published pages, newest first.
// Pending pages and slugs that are not valid paths are left out.
func writeFeed(w io.Writer, cfg SiteConfig, pages []*posts.Page) error {
	type dated struct {
		item rssItem
		at   time.Time
	}
	entries := make([]dated, 0, len(pages))
	for _, p := range pages {
		if p == nil || p.State != posts.StatePublished || p.Post == nil || !ValidSlug(p.Slug) {
			continue
		}
		link := BuildURL(cfg.URL, "post", p.Slug)
		item := rssItem{
			Title:       p.Post.Title,
			Link:        link,
			Description: feedDescription(p.Post),
			GUID:        link,
		}
		at, err := dateformat.Parse(p.Post.PublishedAt)
		if err == nil {
			item.PubDate = at.Format(time.RFC1123Z)
		}
		entries = append(entries, dated{item: item, at: at})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })

	items := make([]rssItem, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Name,
			Link:        BuildURL(cfg.URL),
			Description: "Posts from " + cfg.Name,
			Language:    cfg.Lang,
			Items:       items,
		},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(feed)
}

func feedDescription(post *posts.ViewModel) string {
	desc := post.FormattedDate + ", " + views.ReadTimeLabel(post.ReadTimeMinutes)
	if post.Author != "" {
		desc = post.Author + ", " + desc
	}
	return desc
}
