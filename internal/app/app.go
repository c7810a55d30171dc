package app

import (
	"context"
	"database/sql"
	"fmt"

	"line-leave/internal/config"
	"line-leave/internal/database"
	"line-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const connectRetries = 5

// BuildApp connects the infrastructure and registers every route on router.
// The returned func releases what BuildApp opened.
func BuildApp(ctx context.Context, cfg config.Config, router *gin.Engine) (func(), error) {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Postgres, connectRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	logger.Info("database connection established")

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.Postgres.URL()); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("redis connection established")
	} else {
		logger.Warn("REDIS_ADDR not set: binding cache and webhook dedupe are process local")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	bgCtx, cancel := context.WithCancel(ctx)
	if err := registerModules(bgCtx, router, cfg, sqlDB, gormDB, rdb, reg); err != nil {
		cancel()
		closeAll(sqlDB, rdb)
		return nil, err
	}

	return func() {
		cancel()
		closeAll(sqlDB, rdb)
	}, nil
}

func closeAll(sqlDB *sql.DB, rdb *redis.Client) {
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = sqlDB.Close()
}
