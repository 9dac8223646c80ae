package spacetraveling

import (
	"encoding/xml"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

func (a *App) renderSitemap(c echo.Context, slugs []string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return writeSitemap(c.Response(), a.Config.URL, slugs)
}

// writeSitemap writes the sitemap for the given post slugs. Slugs that are
// not valid path segments are left out.
func writeSitemap(w io.Writer, base string, slugs []string) error {
	urls := []sitemapURL{{Loc: BuildURL(base)}}
	for _, slug := range slugs {
		if !ValidSlug(slug) {
			continue
		}
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "post", slug)})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(sitemap)
}
