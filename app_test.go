package spacetraveling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/prismic"
)

const helloMD = `---
uid: hello
title: Hello space
author: Joseph Oliveira
banner: https://images.test/banner.png
first_publication_date: 2021-03-10T19:25:28+0000
---
## Intro
Hello **world**, see [the next one](post:next).

## Outro
<script>alert(1)</script>
Bye.
`

const draftMD = `---
uid: draft
title: Not yet
---
## Soon
Coming soon.
`

func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	root := writeContent(t, map[string]string{"hello.md": helloMD, "draft.md": draftMD})
	app := New(SiteConfig{
		URL:              "https://blog.test",
		ContentDir:       root,
		StoreDriver:      StoreNone,
		RevalidateSecret: "s3cret",
	}, opts...)
	if err := app.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() {
		app.Cache.Wait()
		app.Close()
	})
	return app
}

func do(app *App, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func TestPostPage(t *testing.T) {
	app := newTestApp(t)
	rec := do(app, http.MethodGet, "/post/hello/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>Hello space | spacetraveling</title>",
		"<time>10 Mar 2021</time>",
		`<span class="author">Joseph Oliveira</span>`,
		`<span class="read-time">1 min</span>`,
		"<h2>Intro</h2>",
		"<strong>world</strong>",
		`<a href="/post/next/">the next one</a>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "<script>alert") {
		t.Error("raw HTML from content must not reach the page")
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, s-maxage=60, stale-while-revalidate" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestPostRedirectsToTrailingSlash(t *testing.T) {
	app := newTestApp(t)
	rec := do(app, http.MethodGet, "/post/hello", "")
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/post/hello/" {
		t.Errorf("Location = %q, want %q", loc, "/post/hello/")
	}
}

func TestPendingPostPage(t *testing.T) {
	app := newTestApp(t)
	rec := do(app, http.MethodGet, "/post/draft/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Loading...") {
		t.Error("expected the loading placeholder")
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if app.Cache.Len() != 0 {
		t.Errorf("pending page was cached")
	}
}

func TestPostNotFound(t *testing.T) {
	app := newTestApp(t)
	for _, target := range []string{"/post/missing/", "/post/..%2F..%2Fetc/", "/nowhere/"} {
		rec := do(app, http.MethodGet, target, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "<h1>404</h1>") {
			t.Errorf("%s: expected the not found page", target)
		}
	}
}

type failingCMS struct{}

func (failingCMS) GetByType(context.Context, string, int) (*prismic.Response, error) {
	return nil, errors.New("cms unavailable")
}

func (failingCMS) GetByUID(context.Context, string, string) (*prismic.Document, error) {
	return nil, errors.New("cms unavailable")
}

func TestUpstreamFailureRendersServerError(t *testing.T) {
	app := newTestApp(t, WithCMS(failingCMS{}))
	rec := do(app, http.MethodGet, "/post/hello/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>500</h1>") {
		t.Error("expected the server error page")
	}
}

func TestSitemap(t *testing.T) {
	app := newTestApp(t)
	rec := do(app, http.MethodGet, "/sitemap.xml", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<loc>https://blog.test</loc>",
		"<loc>https://blog.test/post/hello/</loc>",
		"<loc>https://blog.test/post/draft/</loc>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
}

func TestFeed(t *testing.T) {
	app := newTestApp(t)
	rec := do(app, http.MethodGet, "/feed.xml", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(got, "application/rss+xml") {
		t.Errorf("Content-Type = %q", got)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>Hello space</title>",
		"<link>https://blog.test/post/hello/</link>",
		"<pubDate>Wed, 10 Mar 2021 19:25:28 +0000</pubDate>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("feed missing %q", want)
		}
	}
	if strings.Contains(body, "/post/draft/") {
		t.Error("pending posts must not be in the feed")
	}
}

func TestRevalidate(t *testing.T) {
	app := newTestApp(t)
	do(app, http.MethodGet, "/post/hello/", "")
	if app.Cache.Len() != 1 {
		t.Fatalf("Len = %d, want 1", app.Cache.Len())
	}

	rec := do(app, http.MethodPost, "/api/revalidate/", `{"secret":"s3cret","slugs":["hello"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp revalidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Revalidated) != 1 || resp.Revalidated[0] != "hello" {
		t.Errorf("Revalidated = %v", resp.Revalidated)
	}
	if app.Cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", app.Cache.Len())
	}
}

func TestRevalidateAll(t *testing.T) {
	app := newTestApp(t)
	do(app, http.MethodGet, "/post/hello/", "")

	rec := do(app, http.MethodPost, "/api/revalidate", `{"secret":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if app.Cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", app.Cache.Len())
	}
}

func TestRevalidateRejectsBadSecret(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 5; i++ {
		rec := do(app, http.MethodPost, "/api/revalidate/", `{"secret":"wrong"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i, rec.Code)
		}
	}
	rec := do(app, http.MethodPost, "/api/revalidate/", `{"secret":"s3cret"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestRevalidateDisabledWithoutSecret(t *testing.T) {
	root := writeContent(t, map[string]string{"hello.md": helloMD})
	app := New(SiteConfig{ContentDir: root, StoreDriver: StoreNone})
	if err := app.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer app.Close()

	rec := do(app, http.MethodPost, "/api/revalidate/", `{"secret":""}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthAndAssets(t *testing.T) {
	app := newTestApp(t)

	rec := do(app, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = do(app, http.MethodGet, "/public/post.css", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stylesheet status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q, want text/css", ct)
	}

	rec = do(app, http.MethodGet, "/robots.txt", "")
	if !strings.Contains(rec.Body.String(), "Sitemap: https://blog.test/sitemap.xml") {
		t.Errorf("robots.txt = %q", rec.Body.String())
	}
}

func TestSetupRequiresCMS(t *testing.T) {
	app := New(SiteConfig{StoreDriver: StoreNone})
	if err := app.Setup(); err == nil {
		t.Fatal("expected an error without a CMS source")
	}
}

func TestSetupRejectsUnknownLocale(t *testing.T) {
	app := New(SiteConfig{ContentDir: t.TempDir(), StoreDriver: StoreNone, Locale: "xx_XX"})
	if err := app.Setup(); err == nil {
		t.Fatal("expected an error for an unknown locale")
	}
}

func TestSetupRejectsUnknownStore(t *testing.T) {
	app := New(SiteConfig{ContentDir: t.TempDir(), StoreDriver: "etcd"})
	if err := app.Setup(); err == nil {
		t.Fatal("expected an error for an unknown store")
	}
}

func TestSetupWithSQLiteStore(t *testing.T) {
	root := writeContent(t, map[string]string{"hello.md": helloMD})
	app := New(SiteConfig{ContentDir: root, DatabasePath: filepath.Join(t.TempDir(), "pages.db")})
	if err := app.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer app.Close()

	do(app, http.MethodGet, "/post/hello/", "")
	if _, err := app.Store.Get(context.Background(), "hello"); err != nil {
		t.Errorf("expected the page in the store: %v", err)
	}
}

func TestPortugueseLocale(t *testing.T) {
	root := writeContent(t, map[string]string{"hello.md": helloMD})
	app := New(SiteConfig{ContentDir: root, StoreDriver: StoreNone, Locale: "pt_BR"})
	if err := app.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer app.Close()

	rec := do(app, http.MethodGet, "/post/hello/", "")
	if !strings.Contains(strings.ToLower(rec.Body.String()), "<time>10 mar 2021</time>") {
		t.Errorf("expected a pt_BR date in %q", rec.Body.String())
	}
}

func TestExport(t *testing.T) {
	app := newTestApp(t)
	out := t.TempDir()

	res, err := app.Export(context.Background(), out)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(res.Written) != 1 || res.Written[0] != "hello" {
		t.Errorf("Written = %v, want [hello]", res.Written)
	}
	if len(res.Pending) != 1 || res.Pending[0] != "draft" {
		t.Errorf("Pending = %v, want [draft]", res.Pending)
	}

	page, err := os.ReadFile(filepath.Join(out, "post", "hello", "index.html"))
	if err != nil {
		t.Fatalf("missing exported page: %v", err)
	}
	if !strings.Contains(string(page), "<time>10 Mar 2021</time>") {
		t.Error("exported page missing the formatted date")
	}
	if _, err := os.Stat(filepath.Join(out, "post", "draft")); !os.IsNotExist(err) {
		t.Error("pending post must not be exported")
	}
	sitemap, err := os.ReadFile(filepath.Join(out, "sitemap.xml"))
	if err != nil {
		t.Fatalf("missing sitemap: %v", err)
	}
	if !strings.Contains(string(sitemap), "/post/hello/") || strings.Contains(string(sitemap), "/post/draft/") {
		t.Errorf("sitemap = %s", sitemap)
	}
	for _, name := range []string{"404.html", "feed.xml", filepath.Join("public", "post.css")} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if app.Cache.Len() != 1 {
		t.Errorf("Cache.Len = %d, want 1 after export", app.Cache.Len())
	}
}

func TestWatchContentInvalidates(t *testing.T) {
	app := newTestApp(t)
	do(app, http.MethodGet, "/post/hello/", "")
	if app.Cache.Len() != 1 {
		t.Fatalf("Len = %d, want 1", app.Cache.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.WatchContent(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	path := filepath.Join(app.Config.ContentDir, "posts", "hello.md")
	deadline := time.Now().Add(5 * time.Second)
	for app.Cache.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("cache was not invalidated after a content change")
		}
		// Keep touching the file until the watcher has been registered.
		os.WriteFile(path, []byte(helloMD), 0o644)
		time.Sleep(100 * time.Millisecond)
	}
}
