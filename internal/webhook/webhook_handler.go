package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"line-leave/internal/approval"
	approvalerrors "line-leave/internal/approval/errors"
	"line-leave/internal/conversation"
	leaveerrors "line-leave/internal/leave/errors"
	"line-leave/internal/messaging/line"
	"line-leave/internal/metrics"
	"line-leave/internal/middleware"
	"line-leave/internal/notification"
	"line-leave/internal/shared/apperror"
	"line-leave/internal/shared/contextutil"
	"line-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Replier answers the event that triggered a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken string, msgs ...notification.Message) error
}

type Deps struct {
	Tracker conversation.Tracker
	Router  approval.Router
	Replier Replier
	// Deduper and Limiter are optional.
	Deduper middleware.Deduper
	Limiter *middleware.KeyedLimiter
	Metrics metrics.MetricsCollector
}

type Handler struct {
	deps   Deps
	logger *zap.Logger
}

func NewHandler(deps Deps, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("webhook.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("webhook.handler")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	return &Handler{deps: deps, logger: l}
}

// Receive handles POST /webhook. It decodes the body VerifyLineSignature
// already read. Events of one user are applied in order; different users
// are processed in parallel.
func (h *Handler) Receive(c *gin.Context) {
	body, err := rawBody(c)
	if err != nil {
		h.logger.Warn("webhook body unreadable", zap.Error(err))
		response.AbortWithError(c, apperror.ErrInvalidInput)
		return
	}
	payload, err := line.ParseWebhook(body)
	if err != nil {
		h.logger.Warn("webhook payload rejected", zap.Error(err))
		response.AbortWithError(c, apperror.ErrInvalidInput)
		return
	}

	ctx := c.Request.Context()
	log := contextutil.GetLogger(ctx, h.logger)

	var g errgroup.Group
	for _, events := range groupByUser(payload.Events) {
		events := events
		g.Go(func() error {
			for _, ev := range events {
				h.handleEvent(ctx, log, ev)
			}
			return nil
		})
	}
	_ = g.Wait()

	response.Success(c, http.StatusOK, nil)
}

func rawBody(c *gin.Context) ([]byte, error) {
	if v, ok := c.Get(middleware.RawBodyKey); ok {
		if body, ok := v.([]byte); ok {
			return body, nil
		}
	}
	return io.ReadAll(c.Request.Body)
}

// groupByUser keeps the arrival order of each user's events.
func groupByUser(events []line.Event) map[string][]line.Event {
	out := make(map[string][]line.Event)
	for _, ev := range events {
		out[ev.Source.UserID] = append(out[ev.Source.UserID], ev)
	}
	return out
}

func (h *Handler) handleEvent(ctx context.Context, log *zap.Logger, ev line.Event) {
	log = log.With(
		zap.String("event_type", ev.Type),
		zap.String("webhook_event_id", ev.WebhookEventID),
		zap.String("user_id", ev.Source.UserID),
	)

	if ev.Type != line.EventTypeMessage && ev.Type != line.EventTypePostback && ev.Type != line.EventTypeFollow {
		h.deps.Metrics.RecordWebhookEvent("ignored")
		return
	}
	if err := binding.Validator.ValidateStruct(ev); err != nil {
		h.deps.Metrics.RecordWebhookEvent("invalid")
		log.Warn("webhook event invalid", zap.Error(apperror.MapValidationError(err)))
		return
	}
	// Limited events must not claim their id, or LINE's redelivery of them
	// would be dropped as a duplicate.
	if h.deps.Limiter != nil && !h.deps.Limiter.Allow(ev.Source.UserID) {
		h.deps.Metrics.RecordWebhookEvent("rate_limited")
		log.Warn("webhook event rate limited")
		return
	}
	if h.seen(ctx, log, ev) {
		h.deps.Metrics.RecordWebhookEvent("duplicate")
		log.Info("webhook event already handled", zap.Bool("redelivery", ev.DeliveryContext.IsRedelivery))
		return
	}
	h.deps.Metrics.RecordWebhookEvent(ev.Type)

	eventCtx := contextutil.WithUserID(ctx, ev.Source.UserID)
	var replies []notification.Message
	switch ev.Type {
	case line.EventTypeMessage:
		replies = h.handleMessage(eventCtx, log, ev)
	case line.EventTypePostback:
		replies = h.handlePostback(eventCtx, log, ev)
	case line.EventTypeFollow:
		replies = []notification.Message{welcomeMessage()}
	}

	if len(replies) == 0 || ev.ReplyToken == "" {
		return
	}
	if err := h.deps.Replier.Reply(ctx, ev.ReplyToken, replies...); err != nil {
		log.Error("webhook reply failed", zap.Error(err))
	}
}

// seen claims the event id. A dedupe backend failure lets the event through;
// the store's stage guard still rejects repeated decisions.
func (h *Handler) seen(ctx context.Context, log *zap.Logger, ev line.Event) bool {
	if h.deps.Deduper == nil || ev.WebhookEventID == "" {
		return false
	}
	first, err := h.deps.Deduper.FirstSeen(ctx, ev.WebhookEventID)
	if err != nil {
		log.Warn("webhook dedupe unavailable", zap.Error(err))
		return false
	}
	return !first
}

func (h *Handler) handleMessage(ctx context.Context, log *zap.Logger, ev line.Event) []notification.Message {
	text, ok := ev.Text()
	if !ok {
		return nil
	}
	replies, err := h.deps.Tracker.Handle(ctx, ev.Source.UserID, text)
	if err != nil {
		log.Error("conversation handle failed", zap.Error(err))
		return []notification.Message{unavailableMessage()}
	}
	return replies
}

func (h *Handler) handlePostback(ctx context.Context, log *zap.Logger, ev line.Event) []notification.Message {
	pb, err := approval.ParsePostback(ev.Postback.Data)
	if err != nil {
		log.Warn("postback not understood", zap.String("data", ev.Postback.Data))
		return []notification.Message{unknownActionMessage()}
	}

	outcome, err := h.deps.Router.Decide(ctx, approval.DecideCommand{
		RequestID:   pb.RequestID,
		ActorUserID: ev.Source.UserID,
		Stage:       pb.Stage,
		Decision:    pb.Decision,
	})
	switch {
	case err == nil:
		return []notification.Message{approval.ActorReply(outcome)}
	case errors.Is(err, leaveerrors.ErrStageMismatch):
		return []notification.Message{approval.AlreadyProcessedReply()}
	case errors.Is(err, leaveerrors.ErrLeaveNotFound):
		log.Warn("postback for unknown request", zap.String("leave_id", pb.RequestID))
		return []notification.Message{approval.NotFoundReply()}
	case errors.Is(err, approvalerrors.ErrUnauthorized):
		return []notification.Message{approval.UnauthorizedReply()}
	default:
		log.Error("postback decide failed", zap.String("leave_id", pb.RequestID), zap.Error(err))
		return []notification.Message{unavailableMessage()}
	}
}
