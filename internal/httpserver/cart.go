package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Skotchmaster/storefront/internal/ledger"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Ledger   *ledger.Service
	Payments payment.Gateway
	Currency string
}

func currentUser(c echo.Context, l *slog.Logger, event string) (uuid.UUID, error) {
	userID, err := middleware.UserID(c)
	if err != nil {
		l.Warn(event, "status", 401, "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}

func gatewayError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		l.Error(event, "status", 503, "reason", "payments disabled", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "payments are not available")
	case errors.Is(err, payment.ErrGateway):
		l.Error(event, "status", 502, "reason", "gateway error", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "payment gateway error")
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := currentUser(c, l, "get_cart_error")
	if err != nil {
		return err
	}

	summary, err := h.Ledger.BuildCartSummary(ctx, userID)
	if err != nil {
		return ledgerError(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUser(c, l, "add_to_cart_error")
	if err != nil {
		return err
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	line, err := h.Ledger.AddToCart(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return ledgerError(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "order_id", line.ID, "product_id", line.ProductID, "quantity", line.Quantity)
	return c.JSON(http.StatusCreated, line)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	userID, err := currentUser(c, l, "update_cart_error")
	if err != nil {
		return err
	}

	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	line, err := h.Ledger.UpdateQuantity(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return ledgerError(l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, line)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	userID, err := currentUser(c, l, "remove_cart_error")
	if err != nil {
		return err
	}

	var req transport.RemoveCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if _, err := h.Ledger.Remove(ctx, userID, req.ProductID); err != nil {
		return ledgerError(l, "remove_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StartCheckout opens a gateway order for the current cart total and records
// it as an unpaid checkout attempt. Cart lines stay pending until the
// payment is confirmed.
func (h *CartHTTP) StartCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	userID, err := currentUser(c, l, "checkout_error")
	if err != nil {
		return err
	}

	summary, err := h.Ledger.BuildCartSummary(ctx, userID)
	if err != nil {
		return ledgerError(l, "checkout_error", err)
	}
	if len(summary.Lines) == 0 {
		return ledgerError(l, "checkout_error", ledger.ErrEmptyCart)
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	handle, err := h.Payments.CreateOrder(ctx, summary.TotalAmount, h.Currency, receipt)
	if err != nil {
		return gatewayError(l, "checkout_error", err)
	}
	if _, err := h.Ledger.OpenCheckout(ctx, userID, handle.ID, handle.Amount); err != nil {
		return ledgerError(l, "checkout_error", err)
	}

	l.Info("checkout_started", "gateway_order_id", handle.ID, "amount", handle.Amount)
	return c.JSON(http.StatusCreated, transport.CheckoutResponse{
		GatewayOrderID: handle.ID,
		KeyID:          handle.KeyID,
		Amount:         handle.Amount,
		Currency:       handle.Currency,
		Receipt:        handle.Receipt,
	})
}

func (h *CartHTTP) ConfirmCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout_confirm")

	userID, err := currentUser(c, l, "checkout_confirm_error")
	if err != nil {
		return err
	}

	var req transport.ConfirmCheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_confirm_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	verdict, err := h.Payments.Verify(ctx, payment.Callback{
		OrderID:   req.GatewayOrderID,
		PaymentID: req.GatewayPaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		return gatewayError(l, "checkout_confirm_error", err)
	}

	conf := ledger.Confirmation{
		Success:          verdict.Success,
		Reason:           verdict.Reason,
		GatewayOrderID:   verdict.OrderID,
		GatewayPaymentID: verdict.PaymentID,
	}
	if conf.GatewayOrderID == "" {
		conf.GatewayOrderID = req.GatewayOrderID
	}
	if conf.GatewayPaymentID == "" {
		conf.GatewayPaymentID = req.GatewayPaymentID
	}

	orders, err := h.Ledger.Checkout(ctx, userID, conf, req.Address, req.Note)
	if err != nil {
		return ledgerError(l, "checkout_confirm_error", err)
	}

	l.Info("checkout_confirmed", "orders", len(orders), "gateway_payment_id", conf.GatewayPaymentID)
	return c.JSON(http.StatusOK, map[string]any{"data": orders})
}
