package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"line-leave/internal/approval"
	"line-leave/internal/binding"
	"line-leave/internal/config"
	"line-leave/internal/conversation"
	"line-leave/internal/leave"
	"line-leave/internal/messaging/kafka"
	"line-leave/internal/messaging/line"
	"line-leave/internal/metrics"
	"line-leave/internal/middleware"
	"line-leave/internal/notification"
	"line-leave/internal/rbac"
	"line-leave/internal/rbac/infra"
	"line-leave/internal/shared/counter"
	"line-leave/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const sweepInterval = time.Minute

func registerModules(
	ctx context.Context,
	router *gin.Engine,
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	reg *prometheus.Registry,
) error {
	logger := zap.L()
	collector := metrics.NewCollector(reg)

	// --- Repositories ---
	bindingRepo := binding.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer("")
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbac.NewStaticPolicySource(), enforcer)
	if err := rbacService.LoadPolicy(); err != nil {
		return err
	}

	// --- Services ---
	bindingService := binding.NewService(bindingRepo, rdb)
	if err := bindingService.Seed(ctx, cfg.SeedBindings); err != nil {
		return err
	}
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, counterRepo, outboxRepo)

	lineClient := line.NewClient(cfg.Line.APIBaseURL, cfg.Line.ChannelAccessToken, &http.Client{Timeout: cfg.NotifyTimeout})
	dispatcher := notification.NewDispatcher(lineClient, bindingService, cfg.NotifyTimeout, collector)

	approvalRouter := approval.NewRouter(approval.Deps{
		Leaves:     leaveService,
		Bindings:   bindingService,
		Dispatcher: dispatcher,
		Authz:      rbacService,
		Metrics:    collector,
	}, cfg.StoreTimeout)

	tracker := conversation.NewTracker(conversation.Deps{
		Store:    conversationStore(ctx, cfg, rdb, logger),
		Bindings: bindingService,
		Leaves:   leaveService,
		Notifier: approvalRouter,
		Authz:    rbacService,
		Metrics:  collector,
	}, conversation.Config{
		TriggerPhrases: cfg.TriggerPhrases,
		Location:       cfg.Location,
		StoreTimeout:   cfg.StoreTimeout,
	})

	var deduper middleware.Deduper
	if rdb != nil {
		deduper = middleware.NewRedisDeduper(rdb, cfg.EventDedupeTTL)
	} else {
		memDeduper := middleware.NewMemoryDeduper(cfg.EventDedupeTTL)
		go memDeduper.RunSweeper(ctx, sweepInterval, logger)
		deduper = memDeduper
	}

	// --- Handlers ---
	webhookHandler := webhook.NewHandler(webhook.Deps{
		Tracker: tracker,
		Router:  approvalRouter,
		Replier: lineClient,
		Deduper: deduper,
		Limiter: middleware.NewKeyedLimiter(rate.Limit(cfg.RateLimitPerUser), int(cfg.RateLimitPerUser*2)),
		Metrics: collector,
	})

	// --- Routes Registration ---
	webhook.RegisterRoutes(router, webhookHandler, webhook.RouteConfig{
		ChannelSecret: cfg.Line.ChannelSecret,
		IPRateLimit:   rate.Limit(cfg.RateLimitPerIP),
		IPBurst:       int(cfg.RateLimitPerIP * 2),
		Gatherer:      reg,
		DB:            db,
	})

	return nil
}

func conversationStore(ctx context.Context, cfg config.Config, rdb *redis.Client, logger *zap.Logger) conversation.StateStore {
	if cfg.ConversationStore == config.ConversationStoreRedis && rdb != nil {
		return conversation.NewRedisStore(rdb, cfg.ConversationTTL)
	}
	store := conversation.NewMemoryStore(cfg.ConversationTTL)
	go store.RunSweeper(ctx, sweepInterval, logger)
	return store
}
