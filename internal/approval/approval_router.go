package approval

import (
	"context"
	"errors"
	"time"

	approvalerrors "line-leave/internal/approval/errors"
	"line-leave/internal/binding"
	bindingerrors "line-leave/internal/binding/errors"
	"line-leave/internal/leave"
	leaveerrors "line-leave/internal/leave/errors"
	"line-leave/internal/metrics"
	"line-leave/internal/notification"
	"line-leave/internal/rbac"
	"line-leave/internal/shared/contextutil"
	"line-leave/internal/shared/keylock"

	"go.uber.org/zap"
)

type DecideCommand struct {
	RequestID   string
	ActorUserID string
	// Stage may be empty, in which case the actor's own stage is used.
	Stage    leave.Stage
	Decision leave.Decision
}

// Outcome is the request after a recorded decision plus the delivery
// report of the notifications it triggered.
type Outcome struct {
	Request  leave.LeaveRequest
	Stage    leave.Stage
	Delivery notification.Report
}

//go:generate mockgen -source=approval_router.go -destination=mock/approval_router_mock.go -package=mock
type Router interface {
	Decide(ctx context.Context, cmd DecideCommand) (Outcome, error)
	NotifyFirstStage(ctx context.Context, l leave.LeaveRequest) notification.Report
}

type Deps struct {
	Leaves     leave.Service
	Bindings   binding.Service
	Dispatcher notification.Dispatcher
	// Authz is optional; without it an actor may only decide the stage
	// named after their role.
	Authz   rbac.Service
	Metrics metrics.MetricsCollector
}

type router struct {
	deps         Deps
	storeTimeout time.Duration
	locker       *keylock.Locker
	logger       *zap.Logger
}

func NewRouter(deps Deps, storeTimeout time.Duration, logger ...*zap.Logger) Router {
	l := zap.L().Named("approval.router")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.router")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	return &router{
		deps:         deps,
		storeTimeout: storeTimeout,
		locker:       keylock.New(),
		logger:       l,
	}
}

func (r *router) NotifyFirstStage(ctx context.Context, l leave.LeaveRequest) notification.Report {
	report := r.deps.Dispatcher.NotifyRole(ctx, binding.RoleSupervisor, approvalCard(l, leave.StageSupervisor))
	r.logDelivery("first stage notified", l, report)
	return report
}

func (r *router) Decide(ctx context.Context, cmd DecideCommand) (Outcome, error) {
	rid := contextutil.GetRequestID(ctx)
	r.logger.Debug("decide requested",
		zap.String("request_id", rid),
		zap.String("leave_id", cmd.RequestID),
		zap.String("actor_id", cmd.ActorUserID),
		zap.String("stage", string(cmd.Stage)),
		zap.String("decision", string(cmd.Decision)),
	)

	actor, err := r.deps.Bindings.Resolve(ctx, cmd.ActorUserID)
	if errors.Is(err, bindingerrors.ErrBindingNotFound) {
		r.refuse("unauthorized", cmd, "actor not bound")
		return Outcome{}, approvalerrors.ErrUnauthorized
	}
	if err != nil {
		r.logger.Error("decide resolve actor failed", zap.String("actor_id", cmd.ActorUserID), zap.Error(err))
		return Outcome{}, err
	}

	stage := cmd.Stage
	if stage == "" {
		stage = stageForRole(actor.Role)
	}
	if !stage.Valid() {
		r.refuse("unauthorized", cmd, "actor role has no stage")
		return Outcome{}, approvalerrors.ErrUnauthorized
	}

	ok, err := r.authorize(actor.Role, stage)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		r.refuse("unauthorized", cmd, "role may not decide stage")
		return Outcome{}, approvalerrors.ErrUnauthorized
	}

	release, err := r.locker.Lock(ctx, cmd.RequestID)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	storeCtx, cancel := r.storeContext(contextutil.WithUserID(ctx, actor.UserID))
	defer cancel()

	started := time.Now()
	l, err := r.deps.Leaves.UpdateDecision(storeCtx, cmd.RequestID, stage, cmd.Decision)
	r.deps.Metrics.RecordStoreLatency("update_decision", time.Since(started))
	switch {
	case errors.Is(err, leaveerrors.ErrStageMismatch):
		r.refuse("stage_mismatch", cmd, "stage already processed")
		return Outcome{}, err
	case errors.Is(err, leaveerrors.ErrLeaveNotFound):
		r.refuse("not_found", cmd, "leave request not found")
		return Outcome{}, err
	case err != nil:
		r.logger.Error("decide update failed", zap.String("leave_id", cmd.RequestID), zap.Error(err))
		return Outcome{}, err
	}
	r.deps.Metrics.RecordDecision(string(stage), string(cmd.Decision))

	outcome := Outcome{Request: l, Stage: stage}
	switch l.Status() {
	case leave.StatusAwaitingHR:
		outcome.Delivery = r.deps.Dispatcher.NotifyRole(ctx, binding.RoleHR, approvalCard(l, leave.StageHR))
	case leave.StatusRejected:
		outcome.Delivery = r.deps.Dispatcher.NotifyUser(ctx, l.UserID, rejectedMessage(l, stage))
	case leave.StatusApproved:
		outcome.Delivery = r.deps.Dispatcher.NotifyUser(ctx, l.UserID, approvedMessage(l))
	}

	r.logger.Info("decide success", append(contextutil.ExtractMetadata(storeCtx).Fields(),
		zap.String("leave_id", l.ID.String()),
		zap.String("stage", string(stage)),
		zap.String("decision", string(cmd.Decision)),
		zap.String("status", l.Status()),
	)...)
	r.logDelivery("decision notified", l, outcome.Delivery)
	return outcome, nil
}

func (r *router) authorize(role binding.Role, stage leave.Stage) (bool, error) {
	if r.deps.Authz == nil {
		return stageForRole(role) == stage, nil
	}
	ok, err := r.deps.Authz.Enforce(rbac.EnforceRequest{
		Role:     string(role),
		Resource: rbac.ResourceLeave,
		Action:   rbac.DecideAction(string(stage)),
	})
	if err != nil {
		r.logger.Error("decide authorize failed", zap.String("role", string(role)), zap.Error(err))
		return false, err
	}
	return ok, nil
}

func (r *router) refuse(reason string, cmd DecideCommand, msg string) {
	r.deps.Metrics.RecordDecisionRefused(reason)
	r.logger.Warn("decide refused: "+msg,
		zap.String("leave_id", cmd.RequestID),
		zap.String("actor_id", cmd.ActorUserID),
		zap.String("stage", string(cmd.Stage)),
	)
}

func (r *router) logDelivery(msg string, l leave.LeaveRequest, report notification.Report) {
	fields := []zap.Field{
		zap.String("leave_id", l.ID.String()),
		zap.Int("attempted", report.Attempted),
		zap.Int("failed", len(report.Failures)),
	}
	if report.OK() {
		r.logger.Debug(msg, fields...)
		return
	}
	r.logger.Warn(msg, fields...)
}

func (r *router) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.storeTimeout)
}

func stageForRole(role binding.Role) leave.Stage {
	switch role {
	case binding.RoleSupervisor:
		return leave.StageSupervisor
	case binding.RoleHR:
		return leave.StageHR
	}
	return ""
}
