package observability

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors for a stash host.
type Metrics struct {
	operations      *prometheus.CounterVec
	denied          *prometheus.CounterVec
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stash_namespace_operations_total",
				Help: "Total number of namespace operations that took effect",
			},
			[]string{"namespace", "operation"},
		),
		denied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stash_namespace_denied_total",
				Help: "Total number of mutations refused because the namespace was locked",
			},
			[]string{"namespace", "operation"},
		),
		backendCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stash_backend_calls_total",
				Help: "Total number of backend calls by outcome",
			},
			[]string{"op", "result"},
		),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stash_backend_duration_seconds",
				Help:    "Duration of backend calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}

	for _, c := range []prometheus.Collector{m.operations, m.denied, m.backendCalls, m.backendDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns namespace hooks that record into m. Existing hooks are chained after.
func (m *Metrics) Hooks(next domain.Hooks) domain.Hooks {
	return domain.Hooks{
		OnMutation: func(e *domain.NamespaceEvent) {
			m.operations.WithLabelValues(e.Namespace, string(e.Operation)).Inc()
			if next.OnMutation != nil {
				next.OnMutation(e)
			}
		},
		OnDenied: func(e *domain.NamespaceEvent) {
			m.denied.WithLabelValues(e.Namespace, string(e.Operation)).Inc()
			if next.OnDenied != nil {
				next.OnDenied(e)
			}
		},
	}
}

// Middleware returns a backend middleware that records call counts and latency.
func (m *Metrics) Middleware() middleware.Middleware {
	return func(next ports.Backend) ports.Backend {
		return &instrumented{next: next, m: m}
	}
}

type instrumented struct {
	next ports.Backend
	m    *Metrics
}

func (b *instrumented) Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error {
	defer b.observe("save", time.Now())
	err := b.next.Save(ctx, sessionID, snapshot)
	b.count("save", err)
	return err
}

func (b *instrumented) Load(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	defer b.observe("load", time.Now())
	snap, err := b.next.Load(ctx, sessionID)
	b.count("load", err)
	return snap, err
}

func (b *instrumented) Delete(ctx context.Context, sessionID string) error {
	defer b.observe("delete", time.Now())
	err := b.next.Delete(ctx, sessionID)
	b.count("delete", err)
	return err
}

func (b *instrumented) List(ctx context.Context) ([]string, error) {
	defer b.observe("list", time.Now())
	ids, err := b.next.List(ctx)
	b.count("list", err)
	return ids, err
}

func (b *instrumented) observe(op string, start time.Time) {
	b.m.backendDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (b *instrumented) count(op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	b.m.backendCalls.WithLabelValues(op, result).Inc()
}
