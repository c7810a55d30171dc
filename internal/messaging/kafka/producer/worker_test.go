package producer

import (
	"context"
	"errors"
	"testing"

	"line-leave/internal/messaging/kafka"
	kafkaMock "line-leave/internal/messaging/kafka/mock"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeWriter struct {
	written []kafkago.Message
	failOn  string
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if string(m.Key) == f.failOn {
			return errors.New("broker unavailable")
		}
		f.written = append(f.written, m)
	}
	return nil
}

func pendingEvent(id, leaveID string) kafka.OutboxEvent {
	return kafka.OutboxEvent{
		ID:            id,
		RequestID:     "req-" + id,
		AggregateType: "leave_request",
		AggregateID:   leaveID,
		EventType:     "leave.submitted",
		Topic:         "hr.leave.lifecycle.v1",
		Payload:       []byte(`{"event_id":"` + id + `"}`),
		Status:        kafka.OutboxStatusPending,
	}
}

func TestProcessPendingEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes and marks each event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{}

		repo.EXPECT().ListPending(ctx, 10).Return([]kafka.OutboxEvent{
			pendingEvent("e1", "l1"),
			pendingEvent("e2", "l2"),
		}, nil)
		repo.EXPECT().MarkSent(ctx, "e1").Return(nil)
		repo.EXPECT().MarkSent(ctx, "e2").Return(nil)

		sent, err := processPendingEvents(ctx, repo, writer, zap.NewNop(), 10)

		assert.NoError(t, err)
		assert.Equal(t, 2, sent)
		assert.Len(t, writer.written, 2)
		msg := writer.written[0]
		assert.Equal(t, "hr.leave.lifecycle.v1", msg.Topic)
		assert.Equal(t, "l1", string(msg.Key))
		assert.Contains(t, msg.Headers, kafkago.Header{Key: "event_type", Value: []byte("leave.submitted")})
		assert.Contains(t, msg.Headers, kafkago.Header{Key: "request_id", Value: []byte("req-e1")})
	})

	t.Run("failed publish is marked for retry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{failOn: "l1"}

		repo.EXPECT().ListPending(ctx, 10).Return([]kafka.OutboxEvent{
			pendingEvent("e1", "l1"),
			pendingEvent("e2", "l2"),
		}, nil)
		repo.EXPECT().MarkFailed(ctx, "e1", "broker unavailable").Return(nil)
		repo.EXPECT().MarkSent(ctx, "e2").Return(nil)

		sent, err := processPendingEvents(ctx, repo, writer, zap.NewNop(), 10)

		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("invalid event is not published", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{}
		broken := pendingEvent("e1", "l1")
		broken.Payload = nil

		repo.EXPECT().ListPending(ctx, 10).Return([]kafka.OutboxEvent{broken}, nil)
		repo.EXPECT().MarkFailed(ctx, "e1", gomock.Any()).Return(nil)

		sent, err := processPendingEvents(ctx, repo, writer, zap.NewNop(), 10)

		assert.NoError(t, err)
		assert.Zero(t, sent)
		assert.Empty(t, writer.written)
	})

	t.Run("list failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)

		repo.EXPECT().ListPending(ctx, 10).Return(nil, errors.New("db down"))

		_, err := processPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop(), 10)
		assert.Error(t, err)
	})
}
