package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"line-leave/internal/binding"
	bindingerrors "line-leave/internal/binding/errors"
	conversationerrors "line-leave/internal/conversation/errors"
	"line-leave/internal/leave"
	"line-leave/internal/metrics"
	"line-leave/internal/notification"
	"line-leave/internal/rbac"
	"line-leave/internal/shared/keylock"
	"line-leave/internal/workhours"

	"go.uber.org/zap"
)

var DefaultTriggerPhrases = []string{"leave", "請假"}

// FirstStageNotifier alerts the approvers of a freshly submitted request.
type FirstStageNotifier interface {
	NotifyFirstStage(ctx context.Context, l leave.LeaveRequest) notification.Report
}

type Config struct {
	TriggerPhrases []string
	Location       *time.Location
	StoreTimeout   time.Duration
	StatusLimit    int
}

type Deps struct {
	Store    StateStore
	Bindings binding.Service
	Leaves   leave.Service
	Notifier FirstStageNotifier
	// Authz is optional; without it every bound user may submit.
	Authz   rbac.Service
	Metrics metrics.MetricsCollector
}

//go:generate mockgen -source=conversation_tracker.go -destination=mock/conversation_tracker_mock.go -package=mock
type Tracker interface {
	Handle(ctx context.Context, userID, text string) ([]notification.Message, error)
}

type tracker struct {
	deps   Deps
	cfg    Config
	parser Parser
	locker *keylock.Locker
	logger *zap.Logger
}

func NewTracker(deps Deps, cfg Config, logger ...*zap.Logger) Tracker {
	l := zap.L().Named("conversation.tracker")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("conversation.tracker")
	}
	if len(cfg.TriggerPhrases) == 0 {
		cfg.TriggerPhrases = DefaultTriggerPhrases
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.StatusLimit <= 0 {
		cfg.StatusLimit = leave.DefaultListLimit
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	return &tracker{
		deps:   deps,
		cfg:    cfg,
		parser: Parser{Keywords: cfg.TriggerPhrases, Location: cfg.Location},
		locker: keylock.New(),
		logger: l,
	}
}

// Handle advances userID's conversation by one inbound text. Events of the
// same user are applied one at a time.
func (t *tracker) Handle(ctx context.Context, userID, text string) ([]notification.Message, error) {
	release, err := t.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	text = strings.TrimSpace(text)

	state, found, err := t.deps.Store.Get(ctx, userID)
	if err != nil {
		t.logger.Error("conversation load state failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if !found {
		state = State{UserID: userID, Step: StepIdle}
	}

	if state.Step != StepIdle && isCancel(text) {
		if err := t.deps.Store.Delete(ctx, userID); err != nil {
			t.logger.Error("conversation cancel failed", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
		t.enter(StepIdle)
		return reply(cancelledMessage()), nil
	}

	switch state.Step {
	case StepAwaitingName:
		return t.handleName(ctx, state, text)
	case StepAwaitingFields:
		return t.handleFields(ctx, state, text)
	case StepAwaitingConfirmation:
		return t.handleConfirmation(ctx, state, text)
	default:
		return t.handleIdle(ctx, state, text)
	}
}

func (t *tracker) handleIdle(ctx context.Context, state State, text string) ([]notification.Message, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 1 && isStatus(tokens[0]) {
		return t.handleStatus(ctx, state.UserID)
	}
	if len(tokens) == 0 || !t.parser.IsKeyword(tokens[0]) {
		return reply(helpMessage(t.cfg.TriggerPhrases[0])), nil
	}

	b, err := t.deps.Bindings.Resolve(ctx, state.UserID)
	if errors.Is(err, bindingerrors.ErrBindingNotFound) {
		state.Step = StepAwaitingName
		if err := t.save(ctx, state); err != nil {
			return nil, err
		}
		return reply(namePrompt()), nil
	}
	if err != nil {
		return nil, err
	}
	if !t.allowed(b.Role, rbac.ActionSubmit) {
		return reply(forbiddenMessage()), nil
	}

	state.Step = StepAwaitingFields
	state.Partial = nil
	if err := t.save(ctx, state); err != nil {
		return nil, err
	}
	if len(tokens) > 1 {
		return t.handleFields(ctx, state, text)
	}
	return reply(formatPrompt()), nil
}

func (t *tracker) handleName(ctx context.Context, state State, text string) ([]notification.Message, error) {
	if text == "" {
		return reply(namePrompt()), nil
	}

	b, err := t.deps.Bindings.Register(ctx, state.UserID, text, binding.RoleEmployee)
	if errors.Is(err, bindingerrors.ErrDuplicateBinding) {
		b, err = t.deps.Bindings.Resolve(ctx, state.UserID)
	}
	if err != nil {
		t.logger.Error("conversation register binding failed", zap.String("user_id", state.UserID), zap.Error(err))
		return nil, err
	}

	state.Step = StepAwaitingFields
	if err := t.save(ctx, state); err != nil {
		return nil, err
	}
	return reply(registeredMessage(b.DisplayName), formatPrompt()), nil
}

func (t *tracker) handleFields(ctx context.Context, state State, text string) ([]notification.Message, error) {
	parsed, err := t.parser.Parse(text)
	if err != nil {
		return reply(parseErrorMessage(), formatPrompt()), nil
	}

	partial, err := buildPartial(parsed)
	switch {
	case errors.Is(err, conversationerrors.ErrInvalidRange):
		return reply(rangeErrorMessage()), nil
	case errors.Is(err, conversationerrors.ErrNoWorkingHours):
		return reply(noHoursMessage()), nil
	}

	b, err := t.deps.Bindings.Resolve(ctx, state.UserID)
	if err != nil {
		t.logger.Error("conversation resolve requester failed", zap.String("user_id", state.UserID), zap.Error(err))
		return nil, err
	}
	partial.RequesterName = b.DisplayName

	state.Step = StepAwaitingConfirmation
	state.Partial = &partial
	if err := t.save(ctx, state); err != nil {
		return nil, err
	}
	return reply(summaryMessage(partial)), nil
}

func (t *tracker) handleConfirmation(ctx context.Context, state State, text string) ([]notification.Message, error) {
	if state.Partial == nil {
		state.Step = StepAwaitingFields
		if err := t.save(ctx, state); err != nil {
			return nil, err
		}
		return reply(formatPrompt()), nil
	}

	switch strings.ToLower(text) {
	case replyYes:
		return t.submit(ctx, state)
	case replyNo:
		if err := t.deps.Store.Delete(ctx, state.UserID); err != nil {
			return nil, err
		}
		t.enter(StepIdle)
		return reply(discardedMessage()), nil
	default:
		return reply(confirmPrompt()), nil
	}
}

// submit leaves the state untouched on failure so the user can answer yes
// again.
func (t *tracker) submit(ctx context.Context, state State) ([]notification.Message, error) {
	p := state.Partial

	storeCtx, cancel := t.storeContext(ctx)
	defer cancel()

	started := time.Now()
	l, err := t.deps.Leaves.Submit(storeCtx, leave.SubmitRequest{
		UserID:        state.UserID,
		RequesterName: p.RequesterName,
		LeaveType:     p.LeaveType,
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		Reason:        p.Reason,
	})
	t.deps.Metrics.RecordStoreLatency("submit", time.Since(started))
	if err != nil {
		t.deps.Metrics.RecordSubmission(false)
		t.logger.Error("conversation submit failed", zap.String("user_id", state.UserID), zap.Error(err))
		return reply(submitFailedMessage()), nil
	}
	t.deps.Metrics.RecordSubmission(true)

	if err := t.deps.Store.Delete(ctx, state.UserID); err != nil {
		t.logger.Error("conversation clear state after submit failed",
			zap.String("user_id", state.UserID),
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
	}
	t.enter(StepIdle)

	report := t.deps.Notifier.NotifyFirstStage(ctx, l)
	t.logger.Info("conversation request submitted",
		zap.String("user_id", state.UserID),
		zap.String("leave_id", l.ID.String()),
		zap.String("request_no", l.RequestNo),
		zap.Int("notified", report.Delivered()),
	)
	return reply(submittedMessage(l, report)), nil
}

func (t *tracker) handleStatus(ctx context.Context, userID string) ([]notification.Message, error) {
	b, err := t.deps.Bindings.Resolve(ctx, userID)
	if errors.Is(err, bindingerrors.ErrBindingNotFound) {
		return reply(statusMessage(nil)), nil
	}
	if err != nil {
		return nil, err
	}
	if !t.allowed(b.Role, rbac.ActionStatus) {
		return reply(forbiddenMessage()), nil
	}

	storeCtx, cancel := t.storeContext(ctx)
	defer cancel()

	requests, err := t.deps.Leaves.ListByUser(storeCtx, userID, t.cfg.StatusLimit)
	if err != nil {
		return nil, err
	}
	return reply(statusMessage(requests)), nil
}

func (t *tracker) save(ctx context.Context, state State) error {
	if err := t.deps.Store.Save(ctx, state); err != nil {
		t.logger.Error("conversation save state failed",
			zap.String("user_id", state.UserID),
			zap.String("step", string(state.Step)),
			zap.Error(err),
		)
		return err
	}
	t.enter(state.Step)
	return nil
}

func (t *tracker) enter(step Step) {
	t.deps.Metrics.RecordConversationStep(string(step))
}

func (t *tracker) allowed(role binding.Role, action string) bool {
	if t.deps.Authz == nil {
		return true
	}
	ok, err := t.deps.Authz.Enforce(rbac.EnforceRequest{
		Role:     string(role),
		Resource: rbac.ResourceLeave,
		Action:   action,
	})
	if err != nil {
		t.logger.Error("conversation authorize failed", zap.String("role", string(role)), zap.Error(err))
		return false
	}
	return ok
}

func (t *tracker) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.cfg.StoreTimeout)
}

func buildPartial(p ParsedRequest) (PartialRequest, error) {
	if !p.StartTime.Before(p.EndTime) {
		return PartialRequest{}, conversationerrors.ErrInvalidRange
	}
	hours, err := workhours.Compute(p.StartTime, p.EndTime)
	if err != nil {
		return PartialRequest{}, conversationerrors.ErrInvalidRange
	}
	if hours == 0 {
		return PartialRequest{}, conversationerrors.ErrNoWorkingHours
	}
	return PartialRequest{
		LeaveType: p.LeaveType,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Hours:     hours,
		Reason:    p.Reason,
	}, nil
}

func isCancel(text string) bool {
	return strings.EqualFold(text, "cancel") || text == "取消"
}

func isStatus(token string) bool {
	return strings.EqualFold(token, "status") || token == "狀態"
}

func reply(msgs ...notification.Message) []notification.Message {
	return msgs
}
