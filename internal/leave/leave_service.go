package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"line-leave/internal/events"
	leaveerrors "line-leave/internal/leave/errors"
	"line-leave/internal/messaging/kafka"
	"line-leave/internal/shared/contextutil"
	"line-leave/internal/shared/counter"
	"line-leave/internal/workhours"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	requestNoScope     = "leave_request"
	DefaultListLimit   = 5
	approvalTimeLayout = "2006-01-02 15:04"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (LeaveRequest, error)
	Get(ctx context.Context, id string) (LeaveRequest, error)
	UpdateDecision(ctx context.Context, id string, stage Stage, decision Decision) (LeaveRequest, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]LeaveRequest, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	counter counter.Repository
	outbox  kafka.OutboxRepository
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, counter counter.Repository, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, counter, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	counter counter.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		counter: counter,
		outbox:  outboxRepo,
		now:     time.Now,
		logger:  l,
	}
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (LeaveRequest, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit leave requested",
		zap.String("request_id", rid),
		zap.String("user_id", req.UserID),
		zap.Time("start_time", req.StartTime),
		zap.Time("end_time", req.EndTime),
	)

	hours, err := validateSubmitRequest(&req)
	if err != nil {
		s.logger.Warn("submit leave validation failed", zap.String("user_id", req.UserID), zap.Error(err))
		return LeaveRequest{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequest{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	seq, err := s.counter.GetNextValue(ctx, requestNoScope)
	if err != nil {
		s.logger.Error("submit leave generate number failed", zap.Error(err))
		return LeaveRequest{}, err
	}

	now := s.now()
	l := &LeaveRequest{
		SubmittedAt:        now,
		RequesterName:      req.RequesterName,
		UserID:             req.UserID,
		LeaveType:          req.LeaveType,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Hours:              hours,
		Reason:             req.Reason,
		SupervisorDecision: DecisionPending,
		HRDecision:         DecisionPending,
		ID:                 uuid.New(),
		RequestNo:          fmt.Sprintf("LV-%06d", seq),
		UpdatedAt:          now,
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("submit leave persist failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequest{}, err
	}

	if err := s.queueEvent(ctx, tx, events.LeaveSubmitted, "", *l); err != nil {
		return LeaveRequest{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequest{}, err
	}
	s.logger.Info("submit leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("request_no", l.RequestNo),
		zap.Int("hours", l.Hours),
	)

	return *l, nil
}

func (s *service) Get(ctx context.Context, id string) (LeaveRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequest{}, leaveerrors.ErrLeaveNotFound
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequest{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveRequest{}, err
	}
	return *l, nil
}

func (s *service) UpdateDecision(ctx context.Context, id string, stage Stage, decision Decision) (LeaveRequest, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update leave decision requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("stage", string(stage)),
		zap.String("decision", string(decision)),
	)

	if !stage.Valid() {
		return LeaveRequest{}, leaveerrors.ErrInvalidStage
	}
	if !decision.Final() {
		return LeaveRequest{}, leaveerrors.ErrInvalidDecision
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequest{}, leaveerrors.ErrLeaveNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update leave decision begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequest{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequest{}, leaveerrors.ErrLeaveNotFound
		}
		s.logger.Error("update leave decision lookup failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveRequest{}, err
	}

	if !isAllowedDecision(*l, stage) {
		s.logger.Warn("update leave decision stage mismatch",
			zap.String("leave_id", id),
			zap.String("stage", string(stage)),
			zap.String("supervisor_decision", string(l.SupervisorDecision)),
			zap.String("hr_decision", string(l.HRDecision)),
		)
		return LeaveRequest{}, leaveerrors.ErrStageMismatch
	}

	now := s.now()
	switch stage {
	case StageSupervisor:
		l.SupervisorDecision = decision
	case StageHR:
		l.HRDecision = decision
	}
	l.ApprovalLog = appendApprovalLog(l.ApprovalLog, now, stage, decision, contextutil.GetUserID(ctx))
	l.UpdatedAt = now

	if err := qtx.UpdateDecisions(ctx, l); err != nil {
		s.logger.Error("update leave decision persist failed",
			zap.String("leave_id", id),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		return LeaveRequest{}, err
	}

	if err := s.queueEvent(ctx, tx, decisionEventType(stage, decision), stage, *l); err != nil {
		return LeaveRequest{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update leave decision commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveRequest{}, err
	}
	s.logger.Info("update leave decision success",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("stage", string(stage)),
		zap.String("decision", string(decision)),
		zap.String("status", l.Status()),
	)

	return *l, nil
}

func (s *service) ListByUser(ctx context.Context, userID string, limit int) ([]LeaveRequest, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, leaveerrors.ErrInvalidUserID
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	requests, err := s.repo.FindByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error("list leave by user failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return requests, nil
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, eventType string, stage Stage, l LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}
	rid := contextutil.GetRequestID(ctx)
	eventID := uuid.NewString()

	payload, err := json.Marshal(events.LeaveLifecycleEvent{
		EventID:            eventID,
		EventType:          eventType,
		RequestID:          rid,
		LeaveID:            l.ID.String(),
		RequestNo:          l.RequestNo,
		UserID:             l.UserID,
		RequesterName:      l.RequesterName,
		Stage:              string(stage),
		SupervisorDecision: string(l.SupervisorDecision),
		HRDecision:         string(l.HRDecision),
		Hours:              l.Hours,
		OccurredAt:         l.UpdatedAt.UTC(),
	})
	if err != nil {
		s.logger.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            eventID,
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func validateSubmitRequest(req *SubmitRequest) (int, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.RequesterName = strings.TrimSpace(req.RequesterName)
	req.LeaveType = strings.TrimSpace(req.LeaveType)
	req.Reason = strings.TrimSpace(req.Reason)

	if req.UserID == "" {
		return 0, leaveerrors.ErrInvalidUserID
	}
	if req.RequesterName == "" {
		return 0, leaveerrors.ErrRequesterNameRequired
	}
	if req.LeaveType == "" {
		return 0, leaveerrors.ErrLeaveTypeRequired
	}
	if !req.StartTime.Before(req.EndTime) {
		return 0, leaveerrors.ErrInvalidRange
	}
	hours, err := workhours.Compute(req.StartTime, req.EndTime)
	if err != nil {
		return 0, leaveerrors.ErrInvalidRange
	}
	if hours == 0 {
		return 0, leaveerrors.ErrNoWorkingHours
	}
	return hours, nil
}

// isAllowedDecision reports whether stage is the one currently pending.
// HR can only act after the supervisor approved.
func isAllowedDecision(l LeaveRequest, stage Stage) bool {
	switch stage {
	case StageSupervisor:
		return l.SupervisorDecision == DecisionPending
	case StageHR:
		return l.SupervisorDecision == DecisionApproved && l.HRDecision == DecisionPending
	default:
		return false
	}
}

func decisionEventType(stage Stage, decision Decision) string {
	switch {
	case decision == DecisionRejected:
		return events.LeaveRejected
	case stage == StageSupervisor:
		return events.LeaveSupervisorApproved
	default:
		return events.LeaveApproved
	}
}

func appendApprovalLog(log string, at time.Time, stage Stage, decision Decision, actorID string) string {
	line := fmt.Sprintf("%s %s %s", at.Format(approvalTimeLayout), stage, decision)
	if actorID != "" {
		line += " by " + actorID
	}
	if log == "" {
		return line
	}
	return log + "\n" + line
}
