package middleware

import (
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const CtxRequestIDKey = "request_id" // string

// X-Request-ID を採番（来ていればそのまま）して、usecaseのcontextにも載せる
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(CtxRequestIDKey, id)
			req := c.Request()
			c.SetRequest(req.WithContext(usecase.WithRequestID(req.Context(), id)))
		},
	})
}
