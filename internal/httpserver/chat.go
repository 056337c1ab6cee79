package httpserver

import (
	"errors"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/chat"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type ChatHTTP struct {
	Svc *chat.Service
}

func (h *ChatHTTP) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.reply")

	var req transport.ChatRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("chat_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	reply, err := h.Svc.Reply(ctx, req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrValidation) {
			l.Warn("chat_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("chat_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, reply)
}
