package spacetraveling

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/views"
)

// ExportResult summarizes a static export.
type ExportResult struct {
	Written []string // slugs written to disk
	Pending []string // slugs skipped because they are not published yet
	Skipped []string // slugs that are not usable as file names
}

// Export builds every known post and writes the static site to dir:
// post/<slug>/index.html for each published post, 404.html, sitemap.xml,
// feed.xml and the stylesheet. Written pages also warm the page cache and store, so a
// server started afterwards has nothing to build. The first build failure
// aborts the export.
func (a *App) Export(ctx context.Context, dir string) (*ExportResult, error) {
	if err := a.Setup(); err != nil {
		return nil, err
	}
	all, err := a.Repo.ListAllSlugs(ctx)
	if err != nil {
		return nil, err
	}

	res := &ExportResult{}
	slugs := make([]string, 0, len(all))
	for _, slug := range all {
		if !ValidSlug(slug) {
			a.Logger.Warn("skipping slug that is not a valid path", zap.String("slug", slug))
			res.Skipped = append(res.Skipped, slug)
			continue
		}
		slugs = append(slugs, slug)
	}

	pages, err := a.Builder.BuildAll(ctx, slugs, a.Config.BuildConcurrency)
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: export: %w", err)
	}

	for _, page := range pages {
		if page.State == posts.StatePending {
			a.Logger.Info("skipping pending post", zap.String("slug", page.Slug))
			res.Pending = append(res.Pending, page.Slug)
			continue
		}
		rendered, err := a.renderPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if err := writeFile(filepath.Join(dir, "post", page.Slug, "index.html"), rendered.HTML); err != nil {
			return nil, err
		}
		a.Cache.Put(ctx, rendered)
		res.Written = append(res.Written, page.Slug)
	}

	notFound, err := renderHTML(ctx, views.NotFound(a.viewConfig()))
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, "404.html"), notFound); err != nil {
		return nil, err
	}

	var sitemap bytes.Buffer
	if err := writeSitemap(&sitemap, a.Config.URL, res.Written); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, "sitemap.xml"), sitemap.Bytes()); err != nil {
		return nil, err
	}

	var feed bytes.Buffer
	if err := writeFeed(&feed, a.Config, pages); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, "feed.xml"), feed.Bytes()); err != nil {
		return nil, err
	}

	css, err := EmbeddedAssets.ReadFile("embedded/post.css")
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, "public", "post.css"), css); err != nil {
		return nil, err
	}

	a.Logger.Info("export finished",
		zap.String("dir", dir),
		zap.Int("written", len(res.Written)),
		zap.Int("pending", len(res.Pending)),
	)
	return res, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("spacetraveling: export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("spacetraveling: export: %w", err)
	}
	return nil
}
