package webhook

import (
	"context"
	"net/http"
	"time"

	"line-leave/internal/metrics"
	"line-leave/internal/middleware"
	"line-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouteConfig struct {
	ChannelSecret string
	// IPRateLimit guards /webhook per client address before the body is
	// read; zero disables it.
	IPRateLimit rate.Limit
	IPBurst     int
	Gatherer      prometheus.Gatherer
	// DB is optional; when set /healthz also pings it.
	DB Pinger
}

func RegisterRoutes(r *gin.Engine, h *Handler, cfg RouteConfig) {
	chain := []gin.HandlerFunc{}
	if cfg.IPRateLimit > 0 {
		chain = append(chain, middleware.RateLimitByIP(cfg.IPRateLimit, cfg.IPBurst))
	}
	chain = append(chain, middleware.VerifyLineSignature(cfg.ChannelSecret), h.Receive)
	r.POST("/webhook", chain...)
	r.GET("/healthz", Health(cfg.DB))
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}
}

func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database unreachable", nil)
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
