package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/client"
	"storefront/internal/infra/db"
	"storefront/internal/infra/event"
	"storefront/internal/infra/idempotency"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/tracing"
	"storefront/internal/usecase"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
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
	cfg, err := config.Load(config.ServiceOrder)
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

	//Repository（GORM実装）生成
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//相手サービス
	catalog := client.NewCatalogClient(cfg.CatalogURL, cfg.ClientTimeout, log)
	identity := client.NewIdentityClient(cfg.IdentityURL, cfg.ClientTimeout, log)

	opts := []usecase.OrderOption{}

	//Idempotency-Key（REDIS_ADDRがあるときだけ）
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable; idempotency keys may be ignored", zap.Error(err))
		}
		opts = append(opts, usecase.WithIdempotencyStore(idempotency.NewStore(rdb, cfg.IdempotencyTTL)))
	}

	//注文イベント（KAFKA_BROKERSがあるときだけ）
	if len(cfg.KafkaBrokers) > 0 {
		pub := event.NewKafkaPublisher(event.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.KafkaTopic)
		defer pub.Close()
		opts = append(opts, usecase.WithEventPublisher(pub))
	}

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(orderRepo, auditRepo, catalog, identity, log, opts...)

	//Server起動
	srv := server.New(cfg.Service, cfg.Addr(), log, handler.NewOrderHandler(orderUC))
	return srv.Run(ctx)
}
