package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/buzzbot/internal/platform/correlation"
)

// correlationMiddleware adopts the caller's correlation ID when it is usable
// and echoes the effective ID back in the response.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlation.Header))
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlation.Header, id)
		return next(c)
	}
}
