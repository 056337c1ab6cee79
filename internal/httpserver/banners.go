package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

func bannerError(l *slog.Logger, event, fallback string, err error) error {
	status := catalogStatus(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
		return echo.NewHTTPError(status, fallback)
	}
	l.Warn(event, "status", status, "error", err)
	return echo.NewHTTPError(status, err.Error())
}

func (h *CatalogHTTP) ListBanners(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_banners")

	items, err := h.Svc.ListBanners(ctx)
	if err != nil {
		l.Error("list_banners_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list banners")
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CatalogHTTP) CreateBanner(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_banner")

	var req transport.BannerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("banner_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	b, err := h.Svc.CreateBanner(ctx, req)
	if err != nil {
		return bannerError(l, "banner_create_error", "cannot add banner", err)
	}

	l.Info("create_banner_success", "banner_id", b.ID)
	return c.JSON(http.StatusCreated, b)
}

func (h *CatalogHTTP) PatchBanner(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_banner")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("banner_patch_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req transport.PatchBannerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("banner_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	b, err := h.Svc.PatchBanner(ctx, req, id)
	if err != nil {
		return bannerError(l, "banner_patch_error", "cannot update banner", err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *CatalogHTTP) DeleteBanner(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_banner")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("banner_delete_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.Svc.DeleteBanner(ctx, id); err != nil {
		return bannerError(l, "banner_delete_error", "cannot delete banner", err)
	}

	l.Info("delete_banner_success", "banner_id", id)
	return c.NoContent(http.StatusNoContent)
}
