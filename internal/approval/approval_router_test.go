package approval_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"line-leave/internal/approval"
	approvalerrors "line-leave/internal/approval/errors"
	"line-leave/internal/binding"
	bindingerrors "line-leave/internal/binding/errors"
	"line-leave/internal/leave"
	leaveerrors "line-leave/internal/leave/errors"
	"line-leave/internal/notification"
	notificationMock "line-leave/internal/notification/mock"
	"line-leave/internal/rbac"
	"line-leave/internal/rbac/infra"
	"line-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

type fakeBindings struct {
	bindings map[string]binding.UserBinding
}

func (f *fakeBindings) Resolve(ctx context.Context, userID string) (binding.UserBinding, error) {
	b, ok := f.bindings[userID]
	if !ok {
		return binding.UserBinding{}, bindingerrors.ErrBindingNotFound
	}
	return b, nil
}

func (f *fakeBindings) Register(ctx context.Context, userID, displayName string, role binding.Role) (binding.UserBinding, error) {
	return binding.UserBinding{}, errors.New("not used")
}

func (f *fakeBindings) ListByRole(ctx context.Context, role binding.Role) ([]binding.UserBinding, error) {
	return nil, errors.New("not used")
}

func (f *fakeBindings) Seed(ctx context.Context, seeds []binding.SeedBinding) error {
	return nil
}

// fakeLeaves keeps one request and applies the stage guard the real store
// enforces inside its transaction.
type fakeLeaves struct {
	mu      sync.Mutex
	request leave.LeaveRequest
	actors  []string
}

func (f *fakeLeaves) Submit(ctx context.Context, req leave.SubmitRequest) (leave.LeaveRequest, error) {
	return leave.LeaveRequest{}, errors.New("not used")
}

func (f *fakeLeaves) Get(ctx context.Context, id string) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.request.ID.String() {
		return leave.LeaveRequest{}, leaveerrors.ErrLeaveNotFound
	}
	return f.request, nil
}

func (f *fakeLeaves) UpdateDecision(ctx context.Context, id string, stage leave.Stage, decision leave.Decision) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.request.ID.String() {
		return leave.LeaveRequest{}, leaveerrors.ErrLeaveNotFound
	}
	l := f.request
	switch {
	case stage == leave.StageSupervisor && l.SupervisorDecision == leave.DecisionPending:
		l.SupervisorDecision = decision
	case stage == leave.StageHR && l.SupervisorDecision == leave.DecisionApproved && l.HRDecision == leave.DecisionPending:
		l.HRDecision = decision
	default:
		return leave.LeaveRequest{}, leaveerrors.ErrStageMismatch
	}
	f.actors = append(f.actors, contextutil.GetUserID(ctx))
	f.request = l
	return l, nil
}

func (f *fakeLeaves) ListByUser(ctx context.Context, userID string, limit int) ([]leave.LeaveRequest, error) {
	return nil, nil
}

type routerDeps struct {
	leaves     *fakeLeaves
	dispatcher *notificationMock.MockDispatcher
	router     approval.Router
}

func pendingRequest() leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:                 uuid.New(),
		RequestNo:          "LV-000001",
		UserID:             "U-alice",
		RequesterName:      "Alice",
		LeaveType:          "annual",
		StartTime:          time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:            time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
		Hours:              8,
		SupervisorDecision: leave.DecisionPending,
		HRDecision:         leave.DecisionPending,
	}
}

func setupRouterTest(t *testing.T, authz rbac.Service) *routerDeps {
	t.Helper()
	ctrl := gomock.NewController(t)
	deps := &routerDeps{
		leaves:     &fakeLeaves{request: pendingRequest()},
		dispatcher: notificationMock.NewMockDispatcher(ctrl),
	}
	bindings := &fakeBindings{bindings: map[string]binding.UserBinding{
		"U-alice": {UserID: "U-alice", DisplayName: "Alice", Role: binding.RoleEmployee},
		"U-bob":   {UserID: "U-bob", DisplayName: "Bob", Role: binding.RoleSupervisor},
		"U-carol": {UserID: "U-carol", DisplayName: "Carol", Role: binding.RoleHR},
	}}
	deps.router = approval.NewRouter(approval.Deps{
		Leaves:     deps.leaves,
		Bindings:   bindings,
		Dispatcher: deps.dispatcher,
		Authz:      authz,
	}, time.Second)
	return deps
}

func casbinAuthz(t *testing.T) rbac.Service {
	t.Helper()
	e, err := infra.NewEnforcer("")
	assert.NoError(t, err)
	svc := rbac.NewService(rbac.NewStaticPolicySource(), e)
	assert.NoError(t, svc.LoadPolicy())
	return svc
}

func delivered(n int) notification.Report {
	return notification.Report{Attempted: n}
}

func TestRouter_NotifyFirstStage(t *testing.T) {
	deps := setupRouterTest(t, nil)
	l := deps.leaves.request

	deps.dispatcher.EXPECT().
		NotifyRole(gomock.Any(), binding.RoleSupervisor, gomock.Any()).
		DoAndReturn(func(ctx context.Context, role binding.Role, msg notification.Message) notification.Report {
			assert.Contains(t, msg.Text, "LV-000001")
			assert.Len(t, msg.Actions, 2)
			assert.Equal(t, approval.EncodePostback(leave.DecisionApproved, l.ID.String(), leave.StageSupervisor), msg.Actions[0].Data)
			assert.Equal(t, approval.EncodePostback(leave.DecisionRejected, l.ID.String(), leave.StageSupervisor), msg.Actions[1].Data)
			return delivered(2)
		})

	report := deps.router.NotifyFirstStage(context.Background(), l)
	assert.Equal(t, 2, report.Attempted)
}

func TestRouter_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("supervisor approval notifies hr once", func(t *testing.T) {
		deps := setupRouterTest(t, casbinAuthz(t))
		id := deps.leaves.request.ID.String()

		deps.dispatcher.EXPECT().
			NotifyRole(gomock.Any(), binding.RoleHR, gomock.Any()).
			DoAndReturn(func(ctx context.Context, role binding.Role, msg notification.Message) notification.Report {
				assert.Equal(t, approval.EncodePostback(leave.DecisionApproved, id, leave.StageHR), msg.Actions[0].Data)
				return delivered(1)
			}).
			Times(1)

		cmd := approval.DecideCommand{RequestID: id, ActorUserID: "U-bob", Stage: leave.StageSupervisor, Decision: leave.DecisionApproved}
		outcome, err := deps.router.Decide(ctx, cmd)
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusAwaitingHR, outcome.Request.Status())
		assert.Equal(t, 1, outcome.Delivery.Attempted)
		assert.Contains(t, approval.ActorReply(outcome).Text, "HR has been notified")

		_, err = deps.router.Decide(ctx, cmd)
		assert.ErrorIs(t, err, leaveerrors.ErrStageMismatch)
		assert.Equal(t, []string{"U-bob"}, deps.leaves.actors)
	})

	t.Run("hr approval notifies the requester", func(t *testing.T) {
		deps := setupRouterTest(t, casbinAuthz(t))
		deps.leaves.request.SupervisorDecision = leave.DecisionApproved
		id := deps.leaves.request.ID.String()

		deps.dispatcher.EXPECT().
			NotifyUser(gomock.Any(), "U-alice", gomock.Any()).
			DoAndReturn(func(ctx context.Context, userID string, msg notification.Message) notification.Report {
				assert.Contains(t, msg.Text, "fully approved")
				return delivered(1)
			})

		outcome, err := deps.router.Decide(ctx, approval.DecideCommand{
			RequestID: id, ActorUserID: "U-carol", Stage: leave.StageHR, Decision: leave.DecisionApproved,
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, outcome.Request.Status())
	})

	t.Run("supervisor rejection notifies the requester only", func(t *testing.T) {
		deps := setupRouterTest(t, casbinAuthz(t))
		id := deps.leaves.request.ID.String()

		deps.dispatcher.EXPECT().
			NotifyUser(gomock.Any(), "U-alice", gomock.Any()).
			DoAndReturn(func(ctx context.Context, userID string, msg notification.Message) notification.Report {
				assert.Contains(t, msg.Text, "rejected by your supervisor")
				return delivered(1)
			})

		outcome, err := deps.router.Decide(ctx, approval.DecideCommand{
			RequestID: id, ActorUserID: "U-bob", Stage: leave.StageSupervisor, Decision: leave.DecisionRejected,
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, outcome.Request.Status())
		assert.Equal(t, leave.DecisionPending, outcome.Request.HRDecision)
	})

	t.Run("hr before supervisor is refused", func(t *testing.T) {
		deps := setupRouterTest(t, casbinAuthz(t))

		_, err := deps.router.Decide(ctx, approval.DecideCommand{
			RequestID:   deps.leaves.request.ID.String(),
			ActorUserID: "U-carol",
			Stage:       leave.StageHR,
			Decision:    leave.DecisionApproved,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrStageMismatch)
		assert.Equal(t, leave.DecisionPending, deps.leaves.request.HRDecision)
	})

	t.Run("stage defaults from the actor role", func(t *testing.T) {
		deps := setupRouterTest(t, nil)

		deps.dispatcher.EXPECT().NotifyRole(gomock.Any(), binding.RoleHR, gomock.Any()).Return(delivered(1))

		outcome, err := deps.router.Decide(ctx, approval.DecideCommand{
			RequestID:   deps.leaves.request.ID.String(),
			ActorUserID: "U-bob",
			Decision:    leave.DecisionApproved,
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StageSupervisor, outcome.Stage)
	})

	t.Run("unbound actor is unauthorized", func(t *testing.T) {
		deps := setupRouterTest(t, casbinAuthz(t))

		_, err := deps.router.Decide(ctx, approval.DecideCommand{
			RequestID:   deps.leaves.request.ID.String(),
			ActorUserID: "U-stranger",
			Stage:       leave.StageSupervisor,
			Decision:    leave.DecisionApproved,
		})
		assert.ErrorIs(t, err, approvalerrors.ErrUnauthorized)
		assert.Empty(t, deps.leaves.actors)
	})

	t.Run("wrong role is unauthorized", func(t *testing.T) {
		tests := []struct {
			name  string
			actor string
			stage leave.Stage
		}{
			{"employee on supervisor stage", "U-alice", leave.StageSupervisor},
			{"supervisor on hr stage", "U-bob", leave.StageHR},
			{"hr on supervisor stage", "U-carol", leave.StageSupervisor},
			{"employee without stage", "U-alice", ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				deps := setupRouterTest(t, casbinAuthz(t))

				_, err := deps.router.Decide(ctx, approval.DecideCommand{
					RequestID:   deps.leaves.request.ID.String(),
					ActorUserID: tt.actor,
					Stage:       tt.stage,
					Decision:    leave.DecisionApproved,
				})
				assert.ErrorIs(t, err, approvalerrors.ErrUnauthorized)
				assert.Empty(t, deps.leaves.actors)
			})
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		deps := setupRouterTest(t, nil)

		_, err := deps.router.Decide(ctx, approval.DecideCommand{
			RequestID:   uuid.NewString(),
			ActorUserID: "U-bob",
			Stage:       leave.StageSupervisor,
			Decision:    leave.DecisionApproved,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("concurrent approvals record one decision", func(t *testing.T) {
		deps := setupRouterTest(t, nil)
		id := deps.leaves.request.ID.String()

		deps.dispatcher.EXPECT().NotifyRole(gomock.Any(), binding.RoleHR, gomock.Any()).Return(delivered(1)).Times(1)

		var wg sync.WaitGroup
		errs := make([]error, 5)
		for i := range errs {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = deps.router.Decide(ctx, approval.DecideCommand{
					RequestID: id, ActorUserID: "U-bob", Stage: leave.StageSupervisor, Decision: leave.DecisionApproved,
				})
			}()
		}
		wg.Wait()

		var ok, mismatch int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, leaveerrors.ErrStageMismatch):
				mismatch++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 4, mismatch)
	})
}
