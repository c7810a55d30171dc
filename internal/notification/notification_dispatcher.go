package notification

import (
	"context"
	"fmt"
	"time"

	"line-leave/internal/binding"
	"line-leave/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxParallelSends = 8

//go:generate mockgen -source=notification_dispatcher.go -destination=mock/notification_dispatcher_mock.go -package=mock
type Sender interface {
	Push(ctx context.Context, to string, msgs ...Message) error
}

type Dispatcher interface {
	NotifyUser(ctx context.Context, userID string, msg Message) Report
	NotifyRole(ctx context.Context, role binding.Role, msg Message) Report
}

// DeliveryFailure records one recipient that did not receive a message.
type DeliveryFailure struct {
	UserID string
	Err    error
}

func (f DeliveryFailure) Error() string {
	return fmt.Sprintf("deliver to %s: %v", f.UserID, f.Err)
}

func (f DeliveryFailure) Unwrap() error {
	return f.Err
}

type Report struct {
	Attempted int
	Failures  []DeliveryFailure
}

func (r Report) Delivered() int {
	return r.Attempted - len(r.Failures)
}

func (r Report) OK() bool {
	return len(r.Failures) == 0
}

type dispatcher struct {
	sender    Sender
	bindings  binding.Service
	timeout   time.Duration
	collector metrics.MetricsCollector
	logger    *zap.Logger
}

// NewDispatcher never returns delivery errors to callers; they are
// reported, counted and logged.
func NewDispatcher(
	sender Sender,
	bindings binding.Service,
	timeout time.Duration,
	collector metrics.MetricsCollector,
	logger ...*zap.Logger,
) Dispatcher {
	l := zap.L().Named("notification.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.dispatcher")
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &dispatcher{
		sender:    sender,
		bindings:  bindings,
		timeout:   timeout,
		collector: collector,
		logger:    l,
	}
}

// NotifyUser only pushes to users the registry knows; an unbound id is
// reported as a failed delivery.
func (d *dispatcher) NotifyUser(ctx context.Context, userID string, msg Message) Report {
	if _, err := d.bindings.Resolve(ctx, userID); err != nil {
		d.collector.RecordNotification(false)
		d.logger.Warn("notify user resolve failed", zap.String("user_id", userID), zap.Error(err))
		return Report{Attempted: 1, Failures: []DeliveryFailure{{UserID: userID, Err: err}}}
	}
	return d.deliver(ctx, []string{userID}, msg)
}

func (d *dispatcher) NotifyRole(ctx context.Context, role binding.Role, msg Message) Report {
	recipients, err := d.bindings.ListByRole(ctx, role)
	if err != nil {
		d.logger.Error("notify role list recipients failed", zap.String("role", string(role)), zap.Error(err))
		d.collector.RecordNotification(false)
		return Report{Failures: []DeliveryFailure{{UserID: "role:" + string(role), Err: err}}}
	}
	if len(recipients) == 0 {
		d.logger.Warn("notify role has no recipients", zap.String("role", string(role)))
		return Report{}
	}

	ids := make([]string, len(recipients))
	for i, r := range recipients {
		ids[i] = r.UserID
	}
	return d.deliver(ctx, ids, msg)
}

func (d *dispatcher) deliver(ctx context.Context, userIDs []string, msg Message) Report {
	errs := make([]error, len(userIDs))

	var g errgroup.Group
	g.SetLimit(maxParallelSends)
	for i, id := range userIDs {
		i, id := i, id
		g.Go(func() error {
			errs[i] = d.send(ctx, id, msg)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Attempted: len(userIDs)}
	for i, err := range errs {
		if err == nil {
			d.collector.RecordNotification(true)
			continue
		}
		d.collector.RecordNotification(false)
		d.logger.Warn("notification delivery failed", zap.String("user_id", userIDs[i]), zap.Error(err))
		report.Failures = append(report.Failures, DeliveryFailure{UserID: userIDs[i], Err: err})
	}
	return report
}

func (d *dispatcher) send(ctx context.Context, userID string, msg Message) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.sender.Push(ctx, userID, msg)
}
