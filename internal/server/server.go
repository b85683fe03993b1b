package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Routes は handler の RegisterRoutes
type Routes interface {
	RegisterRoutes(e *echo.Echo)
}

type Server struct {
	e   *echo.Echo
	srv *http.Server
	log *zap.Logger
}

// New は共通ミドルウェアを載せた echo を作り、ルートを登録する
func New(service string, addr string, log *zap.Logger, routes ...Routes) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": service})
	})
	for _, r := range routes {
		r.RegisterRoutes(e)
	}

	return &Server{
		e: e,
		srv: &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(e, service),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Echo はテスト用
func (s *Server) Echo() *echo.Echo {
	return s.e
}

// Run は ctx がキャンセルされるまで待ち、その後 graceful shutdown する
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
