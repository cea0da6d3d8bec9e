package httpserver

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/buzzbot/internal/app"
	"github.com/pscheid92/buzzbot/internal/domain"
	apperrors "github.com/pscheid92/buzzbot/internal/platform/errors"
)

type removedSubscription struct {
	ID         domain.SubscriptionID `json:"id"`
	SearchTerm string                `json:"search_term"`
	Subscriber string                `json:"subscriber"`
}

func (s *Server) registerAdminRoutes() {
	if s.admin == nil || s.config.AdminToken == "" {
		return
	}

	// Expects "Authorization: Bearer <token>".
	admin := s.echo.Group("/admin", middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(s.config.AdminToken)) == 1, nil
		},
	}))
	admin.DELETE("/subscriptions/:id", s.handleRemoveSubscription)
}

func (s *Server) handleRemoveSubscription(c echo.Context) error {
	id, ok := app.ParseSubscriptionID(c.Param("id"))
	if !ok {
		return apperrors.Validation("id must be a numeric subscription id").With("id", c.Param("id"))
	}

	sub, err := s.admin.Remove(c.Request().Context(), id)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return apperrors.NotFound("subscription not found").With("subscription_id", id)
	}
	if err != nil {
		return apperrors.Internal("failed to remove subscription", err)
	}

	resp := removedSubscription{ID: sub.ID, SearchTerm: sub.SearchTerm, Subscriber: sub.Subscriber}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write removal response: %w", err)
	}
	return nil
}
