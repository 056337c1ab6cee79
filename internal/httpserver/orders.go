package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/ledger"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type OrdersHTTP struct {
	Ledger *ledger.Service
}

func (h *OrdersHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.history")

	userID, err := currentUser(c, l, "order_history_error")
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, err := h.Ledger.Orders(ctx, userID, limit, offset)
	if err != nil {
		return ledgerError(l, "order_history_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": orders, "page": page, "size": limit})
}

func (h *OrdersHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.cancel")

	userID, err := currentUser(c, l, "order_cancel_error")
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("order_cancel_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Ledger.Cancel(ctx, id, userID)
	if err != nil {
		return ledgerError(l, "order_cancel_error", err)
	}

	l.Info("order_cancelled", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}
