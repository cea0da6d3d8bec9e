package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/buzzbot/internal/chat"
	apperrors "github.com/pscheid92/buzzbot/internal/platform/errors"
)

type chatReply struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// handleChatMessage accepts one inbound chat message from the gateway and
// returns the rendered reply addressed to the raw sender.
func (s *Server) handleChatMessage(c echo.Context) error {
	from := c.FormValue("from")
	body := c.FormValue("body")
	if strings.TrimSpace(from) == "" || body == "" {
		return apperrors.Validation("from and body are required")
	}

	msg := chat.NewMessage(from, body)
	reply := s.chat.HandleMessage(c.Request().Context(), msg)

	if err := c.JSON(http.StatusOK, chatReply{To: from, Body: reply.Build()}); err != nil {
		return fmt.Errorf("failed to write chat reply: %w", err)
	}
	return nil
}
