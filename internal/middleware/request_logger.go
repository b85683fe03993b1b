package middleware

import (
	"errors"
	"time"

	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 1リクエスト1行のアクセスログ（5xxはError、4xxはWarn）
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if cause, ok := c.Get(handler.ErrorKey).(error); ok {
				fields = append(fields, zap.Error(cause))
			} else if err != nil {
				fields = append(fields, zap.Error(err))
			}

			if ce := log.Check(levelFor(res.Status), "request"); ce != nil {
				ce.Write(fields...)
			}
			return nil
		}
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// echoが返すエラー（404ルートなど）もErrorResponseの形にする
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := 500
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		} else {
			log.Error("unhandled error", zap.Error(err))
		}
		_ = c.JSON(status, handler.ErrorResponse{Error: msg})
	}
}
