package spacetraveling

import (
	"bytes"
	"context"
	"embed"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// EmbeddedAssets holds the stylesheet served under /public/ and copied into
// static exports.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

// renderHTML renders cmp into memory so the result can be cached or written
// to disk.
func renderHTML(ctx context.Context, cmp templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderStatus writes cmp as an HTML response with the given status code.
// Server errors are never cached.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	html, err := renderHTML(c.Request().Context(), cmp)
	if err != nil {
		return err
	}
	if code >= http.StatusInternalServerError {
		c.Response().Header().Set("Cache-Control", "no-store")
	}
	return c.HTMLBlob(code, html)
}
