package kafka

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
	// OutboxStatusDead is terminal: the relay gave up after MaxPublishAttempts.
	OutboxStatusDead = "dead"
)

const (
	MaxPublishAttempts = 10
	retryStep          = 15 * time.Second
	maxReasonLength    = 500
)

// OutboxEvent is a lifecycle event stored in the same transaction as the
// leave request change that produced it.
type OutboxEvent struct {
	ID            string
	RequestID     string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

const (
	insertOutboxSQL = `
INSERT INTO outbox_events (id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// Only the oldest unsent event of each leave request is eligible, so a
	// decision is never relayed ahead of the submission it follows.
	listPendingSQL = `
SELECT id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status, retry_count, next_retry_at
FROM (
	SELECT DISTINCT ON (aggregate_id)
		id::text AS id,
		COALESCE(request_id, '') AS request_id,
		aggregate_type,
		aggregate_id::text AS aggregate_id,
		event_type,
		topic,
		payload,
		status,
		retry_count,
		COALESCE(next_retry_at, created_at) AS next_retry_at,
		created_at
	FROM outbox_events
	WHERE status IN ($1, $2)
	ORDER BY aggregate_id, created_at
) head
WHERE head.next_retry_at <= NOW()
ORDER BY head.created_at
LIMIT $3`

	markSentSQL = `
UPDATE outbox_events
SET status = $2, processed_at = NOW(), error_message = NULL, updated_at = NOW()
WHERE id = $1`

	// $3 is the terminal status applied once retry_count reaches $4.
	markFailedSQL = `
UPDATE outbox_events
SET status = CASE WHEN retry_count + 1 >= $4 THEN $3 ELSE $2 END,
	retry_count = retry_count + 1,
	error_message = $5,
	next_retry_at = NOW() + make_interval(secs => (LEAST(retry_count + 1, $4) * $6)::float8),
	updated_at = NOW()
WHERE id = $1`
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewOutboxRepository works on database/sql so it can join the *sql.Tx the
// leave service opens for a state change.
func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

func (r *outboxRepository) conn() execer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if err := ValidateOutboxEvent(event); err != nil {
		return err
	}
	_, err := r.conn().ExecContext(ctx, insertOutboxSQL,
		event.ID, event.RequestID, event.AggregateType, event.AggregateID,
		event.EventType, event.Topic, event.Payload, event.Status,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event %s: %w", event.EventType, err)
	}
	return nil
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, listPendingSQL, OutboxStatusPending, OutboxStatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID, &e.RequestID, &e.AggregateType, &e.AggregateID, &e.EventType,
			&e.Topic, &e.Payload, &e.Status, &e.RetryCount, &e.NextRetryAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, markSentSQL, id, OutboxStatusSent)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx, markFailedSQL,
		id, OutboxStatusFailed, OutboxStatusDead, MaxPublishAttempts,
		truncateReason(reason), int(retryStep/time.Second),
	)
	return err
}

func truncateReason(reason string) string {
	r := []rune(reason)
	if len(r) <= maxReasonLength {
		return reason
	}
	return string(r[:maxReasonLength])
}

func ValidateOutboxEvent(event OutboxEvent) error {
	switch {
	case event.ID == "":
		return errors.New("outbox id is required")
	case event.AggregateID == "":
		return errors.New("outbox aggregate id is required")
	case event.Topic == "":
		return errors.New("outbox topic is required")
	case len(event.Payload) == 0:
		return errors.New("outbox payload is required")
	}
	switch event.Status {
	case OutboxStatusPending, OutboxStatusSent, OutboxStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid outbox status: %s", event.Status)
	}
}
