package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"line-leave/internal/audit"
	"line-leave/internal/events"
	"line-leave/internal/leave"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const LeaveAuditGroupID = "line-leave-audit"

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

var errUndecodable = errors.New("undecodable lifecycle event")

// Backoff bounds for a failing fetch or audit write.
var (
	minRetryDelay = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

// ConsumeLeaveLifecycle writes one audit entry per lifecycle event until ctx
// is done. A message is committed only once its entry is stored; a failed
// write is retried for the same message before the next one is fetched, so
// the group offset never moves past an unrecorded event.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	repo audit.Repository,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")
	defer log.Info("leave lifecycle consumer stopped")

	fetchDelay := minRetryDelay
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err), zap.Duration("retry_in", fetchDelay))
			if !sleep(ctx, fetchDelay) {
				return
			}
			fetchDelay = nextDelay(fetchDelay)
			continue
		}
		fetchDelay = minRetryDelay

		if !recordWithRetry(ctx, repo, msg, log) {
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
		}
	}
}

// recordWithRetry returns false only when ctx ended before msg was handled.
func recordWithRetry(ctx context.Context, repo audit.Repository, msg kafkago.Message, log *zap.Logger) bool {
	delay := minRetryDelay
	for {
		err := handleLifecycleMessage(ctx, repo, msg, log)
		if err == nil || errors.Is(err, errUndecodable) {
			return true
		}
		log.Warn("retrying leave audit entry",
			zap.Int64("offset", msg.Offset),
			zap.Duration("retry_in", delay),
		)
		if !sleep(ctx, delay) {
			return false
		}
		delay = nextDelay(delay)
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func handleLifecycleMessage(ctx context.Context, repo audit.Repository, msg kafkago.Message, log *zap.Logger) error {
	entry, err := toAuditEntry(msg.Value)
	if err != nil {
		log.Error("decode leave lifecycle event failed",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return err
	}

	fields := []zap.Field{
		zap.String("event_id", entry.EventID),
		zap.String("event_type", entry.EventType),
		zap.String("leave_id", entry.LeaveID.String()),
		zap.String("request_no", entry.RequestNo),
	}

	written, err := repo.Record(ctx, entry)
	if err != nil {
		log.Error("record leave audit entry failed", append(fields, zap.Error(err))...)
		return err
	}
	if !written {
		log.Warn("leave audit entry already recorded, skipping", fields...)
		return nil
	}

	log.Info("leave audit entry recorded", append(fields, zap.String("status", entry.Status))...)
	return nil
}

func toAuditEntry(value []byte) (audit.Entry, error) {
	var event events.LeaveLifecycleEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return audit.Entry{}, fmt.Errorf("%w: %v", errUndecodable, err)
	}
	if event.EventID == "" || event.EventType == "" {
		return audit.Entry{}, fmt.Errorf("%w: missing event id or type", errUndecodable)
	}
	leaveID, err := uuid.Parse(event.LeaveID)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("%w: leave id: %v", errUndecodable, err)
	}

	status := leave.LeaveRequest{
		SupervisorDecision: leave.Decision(event.SupervisorDecision),
		HRDecision:         leave.Decision(event.HRDecision),
	}.Status()

	return audit.Entry{
		EventID:    event.EventID,
		LeaveID:    leaveID,
		RequestNo:  event.RequestNo,
		EventType:  event.EventType,
		Stage:      event.Stage,
		Status:     status,
		OccurredAt: event.OccurredAt,
	}, nil
}
