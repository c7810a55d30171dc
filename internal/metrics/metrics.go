// Package metrics exposes Prometheus counters for the leave workflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is the recording surface used by the workflow services.
type MetricsCollector interface {
	RecordWebhookEvent(kind string)
	RecordConversationStep(step string)
	RecordSubmission(success bool)
	RecordDecision(stage, decision string)
	RecordDecisionRefused(reason string)
	RecordNotification(success bool)
	RecordStoreLatency(op string, duration time.Duration)
}

type Collector struct {
	webhookEvents    *prometheus.CounterVec
	conversationStep *prometheus.CounterVec
	submissions      *prometheus.CounterVec
	decisions        *prometheus.CounterVec
	decisionsRefused *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	storeLatency     *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_webhook_events_total",
			Help: "Inbound webhook events by kind.",
		}, []string{"kind"}),
		conversationStep: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_conversation_steps_total",
			Help: "Conversation transitions by entered step.",
		}, []string{"step"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_submissions_total",
			Help: "Leave request submissions by result.",
		}, []string{"result"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_decisions_total",
			Help: "Recorded approval decisions by stage and decision.",
		}, []string{"stage", "decision"}),
		decisionsRefused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_decisions_refused_total",
			Help: "Approval actions refused by reason.",
		}, []string{"reason"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_notifications_total",
			Help: "Notification deliveries by result.",
		}, []string{"result"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leave_store_latency_seconds",
			Help:    "Request store call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.webhookEvents,
		c.conversationStep,
		c.submissions,
		c.decisions,
		c.decisionsRefused,
		c.notifications,
		c.storeLatency,
	)

	return c
}

func (c *Collector) RecordWebhookEvent(kind string) {
	c.webhookEvents.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordConversationStep(step string) {
	c.conversationStep.WithLabelValues(step).Inc()
}

func (c *Collector) RecordSubmission(success bool) {
	c.submissions.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordDecision(stage, decision string) {
	c.decisions.WithLabelValues(stage, decision).Inc()
}

func (c *Collector) RecordDecisionRefused(reason string) {
	c.decisionsRefused.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordNotification(success bool) {
	c.notifications.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordStoreLatency(op string, duration time.Duration) {
	c.storeLatency.WithLabelValues(op).Observe(duration.Seconds())
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordWebhookEvent(string) {}
func (Nop) RecordConversationStep(string) {}
func (Nop) RecordSubmission(bool) {}
func (Nop) RecordDecision(string, string) {}
func (Nop) RecordDecisionRefused(string) {}
func (Nop) RecordNotification(bool) {}
func (Nop) RecordStoreLatency(string, time.Duration) {}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
