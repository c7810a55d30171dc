package webhook_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"line-leave/internal/approval"
	approvalerrors "line-leave/internal/approval/errors"
	approvalMock "line-leave/internal/approval/mock"
	conversationMock "line-leave/internal/conversation/mock"
	"line-leave/internal/leave"
	leaveerrors "line-leave/internal/leave/errors"
	"line-leave/internal/messaging/line"
	"line-leave/internal/middleware"
	"line-leave/internal/notification"
	"line-leave/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

const channelSecret = "test-secret"

type sentReply struct {
	token string
	msgs  []notification.Message
}

type fakeReplier struct {
	mu      sync.Mutex
	replies []sentReply
}

func (f *fakeReplier) Reply(ctx context.Context, replyToken string, msgs ...notification.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, sentReply{token: replyToken, msgs: msgs})
	return nil
}

func (f *fakeReplier) byToken(token string) []notification.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.replies {
		if r.token == token {
			return r.msgs
		}
	}
	return nil
}

type webhookDeps struct {
	tracker *conversationMock.MockTracker
	router  *approvalMock.MockRouter
	replier *fakeReplier
	engine  *gin.Engine
}

func setupWebhookTest(t *testing.T, limiter *middleware.KeyedLimiter) *webhookDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	deps := &webhookDeps{
		tracker: conversationMock.NewMockTracker(ctrl),
		router:  approvalMock.NewMockRouter(ctrl),
		replier: &fakeReplier{},
		engine:  gin.New(),
	}
	h := webhook.NewHandler(webhook.Deps{
		Tracker: deps.tracker,
		Router:  deps.router,
		Replier: deps.replier,
		Deduper: middleware.NewMemoryDeduper(time.Hour),
		Limiter: limiter,
	})
	webhook.RegisterRoutes(deps.engine, h, webhook.RouteConfig{
		ChannelSecret: channelSecret,
		Gatherer:      prometheus.NewRegistry(),
	})
	return deps
}

func textEvent(id, userID, token, text string) line.Event {
	return line.Event{
		Type:           line.EventTypeMessage,
		ReplyToken:     token,
		WebhookEventID: id,
		Source:         line.Source{Type: "user", UserID: userID},
		Message:        &line.EventMessage{ID: "m-" + id, Type: line.MessageTypeText, Text: text},
	}
}

func postbackEvent(id, userID, token, data string) line.Event {
	return line.Event{
		Type:           line.EventTypePostback,
		ReplyToken:     token,
		WebhookEventID: id,
		Source:         line.Source{Type: "user", UserID: userID},
		Postback:       &line.Postback{Data: data},
	}
}

func (d *webhookDeps) post(t *testing.T, events ...line.Event) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(line.WebhookPayload{Destination: "U-bot", Events: events})
	assert.NoError(t, err)
	return d.postRaw(string(body), base64.StdEncoding.EncodeToString(line.Sign(channelSecret, body)))
}

func (d *webhookDeps) postRaw(body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(line.SignatureHeader, signature)
	w := httptest.NewRecorder()
	d.engine.ServeHTTP(w, req)
	return w
}

func TestWebhook_Message(t *testing.T) {
	t.Run("text goes to the conversation tracker", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		deps.tracker.EXPECT().
			Handle(gomock.Any(), "U-alice", "leave").
			Return([]notification.Message{notification.Text("What is your name?")}, nil)

		w := deps.post(t, textEvent("e1", "U-alice", "rt-1", "leave"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []notification.Message{notification.Text("What is your name?")}, deps.replier.byToken("rt-1"))
	})

	t.Run("redelivered event is handled once", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		deps.tracker.EXPECT().Handle(gomock.Any(), "U-alice", "yes").Return(nil, nil).Times(1)

		ev := textEvent("e1", "U-alice", "rt-1", "yes")
		assert.Equal(t, http.StatusOK, deps.post(t, ev).Code)

		ev.DeliveryContext.IsRedelivery = true
		ev.ReplyToken = "rt-2"
		assert.Equal(t, http.StatusOK, deps.post(t, ev).Code)
	})

	t.Run("tracker failure replies unavailable", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		deps.tracker.EXPECT().Handle(gomock.Any(), "U-alice", "leave").Return(nil, errors.New("redis down"))

		w := deps.post(t, textEvent("e1", "U-alice", "rt-1", "leave"))

		assert.Equal(t, http.StatusOK, w.Code)
		msgs := deps.replier.byToken("rt-1")
		assert.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Text, "temporarily unavailable")
	})

	t.Run("same user events keep their order", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		gomock.InOrder(
			deps.tracker.EXPECT().Handle(gomock.Any(), "U-alice", "leave").Return(nil, nil),
			deps.tracker.EXPECT().Handle(gomock.Any(), "U-alice", "Alice").Return(nil, nil),
		)
		deps.tracker.EXPECT().Handle(gomock.Any(), "U-bob", "status").Return(nil, nil)

		w := deps.post(t,
			textEvent("e1", "U-alice", "rt-1", "leave"),
			textEvent("e2", "U-bob", "rt-2", "status"),
			textEvent("e3", "U-alice", "rt-3", "Alice"),
		)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("per user rate limit drops excess events", func(t *testing.T) {
		deps := setupWebhookTest(t, middleware.NewKeyedLimiter(0.001, 1))
		deps.tracker.EXPECT().Handle(gomock.Any(), "U-alice", gomock.Any()).Return(nil, nil).Times(1)

		w := deps.post(t,
			textEvent("e1", "U-alice", "rt-1", "leave"),
			textEvent("e2", "U-alice", "rt-2", "leave"),
		)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rate limited event can be redelivered", func(t *testing.T) {
		deps := setupWebhookTest(t, middleware.NewKeyedLimiter(50, 1))
		deps.tracker.EXPECT().Handle(gomock.Any(), "U-alice", gomock.Any()).Return(nil, nil).Times(2)

		deps.post(t,
			textEvent("e1", "U-alice", "rt-1", "leave"),
			textEvent("e2", "U-alice", "rt-2", "leave"),
		)
		time.Sleep(100 * time.Millisecond)
		redelivered := textEvent("e2", "U-alice", "rt-3", "leave")
		redelivered.DeliveryContext.IsRedelivery = true
		w := deps.post(t, redelivered)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non text and unsupported events are ignored", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		sticker := textEvent("e1", "U-alice", "rt-1", "")
		sticker.Message.Type = "sticker"
		unfollow := line.Event{Type: "unfollow", Source: line.Source{Type: "user", UserID: "U-alice"}}

		w := deps.post(t, sticker, unfollow)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, deps.replier.replies)
	})

	t.Run("event without user is skipped", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)

		w := deps.post(t, textEvent("e1", "", "rt-1", "leave"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, deps.replier.replies)
	})

	t.Run("follow gets a welcome", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		follow := line.Event{Type: line.EventTypeFollow, ReplyToken: "rt-1", Source: line.Source{Type: "user", UserID: "U-alice"}}

		deps.post(t, follow)

		assert.Len(t, deps.replier.byToken("rt-1"), 1)
	})
}

func TestWebhook_Postback(t *testing.T) {
	id := "8a4f7a4e-2c1b-4b7e-9a55-0c3f1d2e3f40"
	data := approval.EncodePostback(leave.DecisionApproved, id, leave.StageSupervisor)

	t.Run("approve routes to the approval router", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		deps.router.EXPECT().
			Decide(gomock.Any(), approval.DecideCommand{
				RequestID:   id,
				ActorUserID: "U-bob",
				Stage:       leave.StageSupervisor,
				Decision:    leave.DecisionApproved,
			}).
			Return(approval.Outcome{Request: leave.LeaveRequest{
				RequestNo:          "LV-000001",
				SupervisorDecision: leave.DecisionApproved,
				HRDecision:         leave.DecisionPending,
			}}, nil)

		deps.post(t, postbackEvent("e1", "U-bob", "rt-1", data))

		msgs := deps.replier.byToken("rt-1")
		assert.Len(t, msgs, 1)
		assert.Equal(t, "LV-000001 approved. HR has been notified.", msgs[0].Text)
	})

	tests := []struct {
		name  string
		err   error
		reply string
	}{
		{"already processed", leaveerrors.ErrStageMismatch, approval.AlreadyProcessedReply().Text},
		{"unknown request", leaveerrors.ErrLeaveNotFound, approval.NotFoundReply().Text},
		{"not allowed", approvalerrors.ErrUnauthorized, approval.UnauthorizedReply().Text},
		{"store failure", errors.New("db down"), "The service is temporarily unavailable. Please try again later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := setupWebhookTest(t, nil)
			deps.router.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(approval.Outcome{}, tt.err)

			deps.post(t, postbackEvent("e1", "U-bob", "rt-1", data))

			msgs := deps.replier.byToken("rt-1")
			assert.Len(t, msgs, 1)
			assert.Equal(t, tt.reply, msgs[0].Text)
		})
	}

	t.Run("malformed data never reaches the router", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)

		deps.post(t, postbackEvent("e1", "U-bob", "rt-1", "action=maybe"))

		msgs := deps.replier.byToken("rt-1")
		assert.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Text, "no longer valid")
	})
}

func TestWebhook_Rejects(t *testing.T) {
	t.Run("bad signature", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		w := deps.postRaw(`{"events":[]}`, base64.StdEncoding.EncodeToString([]byte("nope")))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		deps := setupWebhookTest(t, nil)
		body := `{"events":`
		w := deps.postRaw(body, base64.StdEncoding.EncodeToString(line.Sign(channelSecret, []byte(body))))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWebhook_IPRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	tracker := conversationMock.NewMockTracker(ctrl)
	tracker.EXPECT().Handle(gomock.Any(), "U-alice", "leave").Return(nil, nil).Times(1)

	deps := &webhookDeps{tracker: tracker, replier: &fakeReplier{}, engine: gin.New()}
	h := webhook.NewHandler(webhook.Deps{Tracker: tracker, Replier: deps.replier})
	webhook.RegisterRoutes(deps.engine, h, webhook.RouteConfig{
		ChannelSecret: channelSecret,
		IPRateLimit:   0.001,
		IPBurst:       1,
	})

	first := deps.post(t, textEvent("e1", "U-alice", "rt-1", "leave"))
	second := deps.post(t, textEvent("e2", "U-alice", "rt-2", "leave"))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

type failingPinger struct{}

func (failingPinger) PingContext(ctx context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", webhook.Health(nil))
	r.GET("/down", webhook.Health(failingPinger{}))

	ok := httptest.NewRecorder()
	r.ServeHTTP(ok, httptest.NewRequest(http.MethodGet, "/ok", nil))
	down := httptest.NewRecorder()
	r.ServeHTTP(down, httptest.NewRequest(http.MethodGet, "/down", nil))

	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}
