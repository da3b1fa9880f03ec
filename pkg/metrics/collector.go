// Package metrics exposes Prometheus instrumentation for the ordering dialog.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hexlibris/bookbot/internal/flow"
	"github.com/hexlibris/bookbot/internal/store"
)

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_turns_total",
			Help: "Total number of dialog turns labeled by step and status",
		},
		[]string{"step", "status"},
	)
	turnDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "turn_duration_seconds",
			Help:    "Duration of dialog turns in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)
	stepTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "step_transitions_total",
			Help: "Total number of dialog step transitions",
		},
		[]string{"from", "to"},
	)
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_lookups_total",
			Help: "Total number of catalog lookups by outcome",
		},
		[]string{"status"},
	)
	confirmationSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confirmation_sends_total",
			Help: "Total number of order confirmation sends by outcome",
		},
		[]string{"status"},
	)
	activeConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_conversations",
			Help: "Current number of stored conversations",
		},
	)
	conversationsByStep = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conversations_by_step",
			Help: "Number of conversations per dialog step",
		},
		[]string{"step"},
	)
)

var trackedSteps = []flow.Step{
	flow.StepAskName,
	flow.StepAskAddress,
	flow.StepAskEmail,
	flow.StepAskBook,
	flow.StepPickingBook,
	flow.StepConfirmBook,
	flow.StepSummary,
}

func init() {
	flow.RegisterTransitionRecorder(RecordStepTransition)
}

// RecordTurn increments turn counters and records duration.
func RecordTurn(step, status string, duration time.Duration) {
	if step == "" {
		step = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	turnsTotal.WithLabelValues(step, status).Inc()
	turnDurationSeconds.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordStepTransition tracks dialog step transitions.
func RecordStepTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stepTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordLookup tracks a catalog lookup outcome.
func RecordLookup(status string) {
	if status == "" {
		status = "unknown"
	}

	lookupsTotal.WithLabelValues(status).Inc()
}

// RecordConfirmationSend tracks an order confirmation send outcome.
func RecordConfirmationSend(status string) {
	if status == "" {
		status = "unknown"
	}

	confirmationSendsTotal.WithLabelValues(status).Inc()
}

// StepCollector periodically gathers conversation counts and emits gauge metrics.
type StepCollector struct {
	conversations store.ConversationStore
}

// NewStepCollector builds a metrics collector bound to the conversation store.
func NewStepCollector(conversations store.ConversationStore) *StepCollector {
	return &StepCollector{conversations: conversations}
}

// Run polls the store every 10 seconds, updating conversation gauges until ctx is cancelled.
func (c *StepCollector) Run(ctx context.Context) {
	if c == nil || c.conversations == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

func (c *StepCollector) collect(ctx context.Context) error {
	records, err := c.conversations.All(ctx)
	if err != nil {
		return err
	}

	activeConversations.Set(float64(len(records)))

	stepCounts := make(map[string]int, len(records))
	for _, record := range records {
		label := "unknown"
		if record != nil && record.Conversation.Step != "" {
			label = string(record.Conversation.Step)
		}
		stepCounts[label]++
	}

	conversationsByStep.Reset()

	for _, tracked := range trackedSteps {
		label := string(tracked)
		conversationsByStep.WithLabelValues(label).Set(float64(stepCounts[label]))
		delete(stepCounts, label)
	}

	for label, count := range stepCounts {
		conversationsByStep.WithLabelValues(label).Set(float64(count))
	}

	return nil
}
