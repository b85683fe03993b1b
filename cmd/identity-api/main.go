package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/tracing"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnvFile(".env", "../.env"); err != nil {
		return err
	}
	cfg, err := config.Load(config.ServiceIdentity)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Service, cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Service, cfg.OtelEndpoint, log)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	//DB接続
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)
	if err := db.Migrate(gormDB, cfg.Service); err != nil {
		return err
	}

	userRepo := infraRepo.NewUserGormRepository(gormDB)
	userUC := usecase.NewUserUsecase(userRepo, validator.NewUserValidator(userRepo), log)

	srv := server.New(cfg.Service, cfg.Addr(), log, handler.NewUserHandler(userUC))
	return srv.Run(ctx)
}
