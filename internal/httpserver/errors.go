package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/ledger"
	"github.com/labstack/echo/v4"
)

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return uint(v), nil
}

// ledgerError logs err under event and turns it into the matching HTTP error.
func ledgerError(l *slog.Logger, event string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, ledger.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ledger.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrInvalidStateTransition),
		errors.Is(err, ledger.ErrEmptyCart),
		errors.Is(err, ledger.ErrCheckoutMismatch):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ledger.ErrPaymentFailed):
		status, msg = http.StatusPaymentRequired, err.Error()
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		status, msg = http.StatusServiceUnavailable, "the store is busy, please retry"
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}
