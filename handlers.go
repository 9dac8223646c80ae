package spacetraveling

import (
	"crypto/subtle"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/views"
)

type revalidateRequest struct {
	Secret string   `json:"secret"`
	Slugs  []string `json:"slugs"`
}

type revalidateResponse struct {
	Revalidated []string `json:"revalidated"`
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	assetHandler := http.FileServer(http.FS(assets))
	e.GET(views.Stylesheet, echo.WrapHandler(http.StripPrefix("/public/", assetHandler)))
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", handleHealth)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/post/:slug/", a.handlePost)

	e.POST("/api/revalidate", a.handleRevalidate)
	e.POST("/api/revalidate/", a.handleRevalidate)
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	if !ValidSlug(slug) {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(a.viewConfig()))
	}
	page, err := a.Cache.Get(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, posts.ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, views.NotFound(a.viewConfig()))
		}
		return err
	}
	if page.State == posts.StatePending {
		c.Response().Header().Set("Cache-Control", cachePending)
	} else {
		c.Response().Header().Set("Cache-Control", a.publishedCacheControl())
	}
	return c.HTMLBlob(http.StatusOK, page.HTML)
}

func (a *App) handleSitemap(c echo.Context) error {
	slugs, err := a.Repo.ListAllSlugs(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, slugs)
}

func (a *App) handleFeed(c echo.Context) error {
	ctx := c.Request().Context()
	slugs, err := a.Repo.ListAllSlugs(ctx)
	if err != nil {
		return err
	}
	pages, err := a.Builder.BuildAll(ctx, slugs, a.Config.BuildConcurrency)
	if err != nil {
		return err
	}
	return a.renderFeed(c, pages)
}

func (a *App) handleRevalidate(c echo.Context) error {
	if a.Config.RevalidateSecret == "" {
		return echo.ErrNotFound
	}
	ip := c.RealIP()
	if !a.limiter.Check(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts")
	}

	var req revalidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(a.Config.RevalidateSecret)) != 1 {
		a.limiter.Record(ip)
		a.Logger.Warn("revalidate rejected", zap.String("ip", ip))
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid secret")
	}

	ctx := c.Request().Context()
	slugs := FilterEmpty(req.Slugs)
	if len(slugs) == 0 {
		slugs = a.Cache.InvalidateAll(ctx)
	} else {
		a.Cache.Invalidate(ctx, slugs...)
	}
	a.Logger.Info("revalidated", zap.Strings("slugs", slugs))
	return c.JSON(http.StatusOK, revalidateResponse{Revalidated: slugs})
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nSitemap: " + strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && !isAPI(c) {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.viewConfig()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		if !isAPI(c) {
			_ = RenderStatus(c, code, views.ServerError(a.viewConfig()))
			return
		}
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
