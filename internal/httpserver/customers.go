package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/customer"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CustomerHTTP struct {
	Svc *customer.Service
}

func customerError(l *slog.Logger, event string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, customer.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, customer.ErrNotFound):
		status, msg = http.StatusNotFound, "profile not found"
	case errors.Is(err, customer.ErrEmailTaken):
		status, msg = http.StatusConflict, "email already in use"
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func (h *CustomerHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.get_profile")

	userID, err := currentUser(c, l, "get_profile_error")
	if err != nil {
		return err
	}

	profile, err := h.Svc.Profile(ctx, userID)
	if err != nil {
		return customerError(l, "get_profile_error", err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *CustomerHTTP) SaveProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.save_profile")

	userID, err := currentUser(c, l, "save_profile_error")
	if err != nil {
		return err
	}

	var req transport.ProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("save_profile_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	profile, err := h.Svc.SaveProfile(ctx, userID, req)
	if err != nil {
		return customerError(l, "save_profile_error", err)
	}

	l.Info("save_profile_success", "user_id", userID)
	return c.JSON(http.StatusOK, profile)
}

func (h *CustomerHTTP) ListCustomers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_customers")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return customerError(l, "list_customers_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *CustomerHTTP) GetCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_customer")

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_customer_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a uuid")
	}

	item, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return customerError(l, "get_customer_error", err)
	}
	return c.JSON(http.StatusOK, item)
}
