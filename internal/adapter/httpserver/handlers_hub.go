package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/buzzbot/internal/app"
	"github.com/pscheid92/buzzbot/internal/domain"
	apperrors "github.com/pscheid92/buzzbot/internal/platform/errors"
)

func (s *Server) handleChallenge(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := app.ParseSubscriptionID(c.QueryParam("id"))
	if !ok {
		return apperrors.Validation("id must be a numeric subscription id").With("id", c.QueryParam("id"))
	}
	challenge := c.QueryParam("hub.challenge")
	if challenge == "" {
		return apperrors.Validation("hub.challenge is required")
	}
	mode := c.QueryParam("hub.mode")

	accepted, err := s.hub.VerifyChallenge(ctx, mode, id)
	if errors.Is(err, app.ErrUnknownHubMode) {
		return apperrors.Validation("hub.mode must be subscribe or unsubscribe").With("mode", mode)
	}
	if err != nil {
		return apperrors.Internal("failed to verify challenge", err)
	}
	if !accepted {
		return apperrors.NotFound("subscription state does not match hub.mode").
			With("subscription_id", id).
			With("mode", mode)
	}

	if err := c.String(http.StatusOK, challenge); err != nil {
		return fmt.Errorf("failed to write challenge response: %w", err)
	}
	return nil
}

func (s *Server) handleDelivery(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := app.ParseSubscriptionID(c.QueryParam("id"))
	if !ok {
		return apperrors.Validation("id must be a numeric subscription id").With("id", c.QueryParam("id"))
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var tooLarge *echo.HTTPError
		if errors.As(err, &tooLarge) {
			return tooLarge
		}
		return apperrors.Validation("failed to read delivery body")
	}

	report, err := s.hub.Deliver(ctx, id, body)
	if err != nil {
		var malformed *app.MalformedDeliveryError
		switch {
		case errors.Is(err, domain.ErrSubscriptionNotFound):
			return apperrors.NotFound("subscription not found").With("subscription_id", id)
		case errors.As(err, &malformed):
			return apperrors.Validation("malformed delivery").
				With("subscription_id", id).
				With("entries", malformed.Entries)
		default:
			return apperrors.Internal("failed to deliver posts", err)
		}
	}

	if err := c.JSON(http.StatusOK, report); err != nil {
		return fmt.Errorf("failed to write delivery response: %w", err)
	}
	return nil
}
