package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/brokerage/internal/authorization"
	"github.com/smallbiznis/brokerage/internal/clock"
	obsmetrics "github.com/smallbiznis/brokerage/internal/observability/metrics"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"go.uber.org/zap"
)

type fakePolicyService struct {
	policydomain.Service
	calls  []time.Time
	report policydomain.OverdueReport
	err    error
}

func (f *fakePolicyService) ReclassifyOverdue(_ context.Context, today time.Time) (policydomain.OverdueReport, error) {
	f.calls = append(f.calls, today)
	return f.report, f.err
}

type denyAll struct{}

func (denyAll) Authorize(context.Context, string, string, string, string) error {
	return authorization.ErrForbidden
}

func newTestScheduler(t *testing.T, policies policydomain.Service, cfg Config) *Scheduler {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	s, err := New(Params{
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2025, time.April, 2, 6, 15, 0, 0, time.UTC)),
		PolicySvc: policies,
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s
}

func withTestRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	t.Cleanup(restore)

	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{
		ServiceName: "brokerage",
		Environment: "test",
	})
	return registry
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := withTestRegistry(t)

	s := newTestScheduler(t, &fakePolicyService{}, Config{})
	err := s.runJob(context.Background(), "timeout_job", 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	labels := map[string]string{
		"service": "brokerage",
		"env":     "test",
		"job":     "timeout_job",
	}
	if got := getCounterValue(t, registry, "brokerage_scheduler_job_timeouts_total", labels); got != 1 {
		t.Fatalf("expected timeout count 1, got %v", got)
	}

	errorLabels := map[string]string{
		"service": "brokerage",
		"env":     "test",
		"job":     "timeout_job",
		"reason":  obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}
	if got := getCounterValue(t, registry, "brokerage_scheduler_job_errors_total", errorLabels); got != 1 {
		t.Fatalf("expected error count 1, got %v", got)
	}
}

func TestOverdueSweepUsesClockDate(t *testing.T) {
	registry := withTestRegistry(t)

	policies := &fakePolicyService{report: policydomain.OverdueReport{
		Reclassified: 3,
		Count:        4,
		Total:        decimal.RequireFromString("1250000"),
	}}
	s := newTestScheduler(t, policies, Config{})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(policies.calls) != 1 {
		t.Fatalf("expected one sweep, got %d", len(policies.calls))
	}
	if want := time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC); !policies.calls[0].Equal(want) {
		t.Fatalf("expected sweep as of %v, got %v", want, policies.calls[0])
	}

	labels := map[string]string{
		"service":  "brokerage",
		"env":      "test",
		"job":      JobOverdueSweep,
		"resource": "installment",
	}
	if got := getCounterValue(t, registry, "brokerage_scheduler_batch_processed_total", labels); got != 3 {
		t.Fatalf("expected 3 processed installments, got %v", got)
	}
}

func TestOverdueSweepErrorIsWrapped(t *testing.T) {
	withTestRegistry(t)

	boom := errors.New("connection reset")
	s := newTestScheduler(t, &fakePolicyService{err: boom}, Config{})

	err := s.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestOverdueSweepRequiresSystemGrant(t *testing.T) {
	withTestRegistry(t)

	policies := &fakePolicyService{}
	s := newTestScheduler(t, policies, Config{})
	s.authzSvc = denyAll{}

	err := s.RunOnce(context.Background())
	if !errors.Is(err, authorization.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(policies.calls) != 0 {
		t.Fatalf("sweep must not run without the grant")
	}
}

func TestDisabledJobIsSkipped(t *testing.T) {
	withTestRegistry(t)

	policies := &fakePolicyService{}
	s := newTestScheduler(t, policies, Config{EnabledJobs: []string{"something_else"}})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(policies.calls) != 0 {
		t.Fatalf("expected no sweep, got %d", len(policies.calls))
	}
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			if metric.Counter == nil {
				t.Fatalf("metric %s is not a counter", name)
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
