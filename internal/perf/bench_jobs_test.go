package perf

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
	jobmetrics "github.com/hotelpulse/hotelpulse/internal/jobs"
	"github.com/hotelpulse/hotelpulse/internal/tenants"
	"github.com/hotelpulse/hotelpulse/jobs"
)

type userList []tenants.User

func (u userList) Users() []tenants.User { return u }

func manyUsers(n int) userList {
	users := make(userList, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, tenants.User{
			ID:       fmt.Sprintf("user-%02d", i),
			TenantID: "t1",
			HotelIDs: []string{"h1", "h2"},
		})
	}
	return users
}

func TestWarmupThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	var calls atomic.Int64
	fetcher := dashboard.FetcherFunc(func(ctx context.Context, q dashboard.Query) (*dashboard.RawPeriodPayload, error) {
		calls.Add(1)
		time.Sleep(time.Millisecond)
		return &dashboard.RawPeriodPayload{}, nil
	})
	job := jobs.NewDashboardWarmupJob(fetcher, manyUsers(40), nil, metrics)
	job.WithClock(func() time.Time { return time.Date(2024, 3, 31, 6, 0, 0, 0, time.UTC) })

	task, err := jobs.NewDashboardWarmupTask("", 7, 30)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := job.Handle(context.Background(), task); err != nil {
			t.Fatalf("warmup run %d: %v", i, err)
		}
	}
	// Every user shares the same hotels, so each window collapses to one current and one prior query.
	if got := calls.Load(); got != 5*4 {
		t.Fatalf("fetch calls = %d, want %d", got, 5*4)
	}

	failing := jobs.NewDashboardWarmupJob(dashboard.FetcherFunc(func(ctx context.Context, q dashboard.Query) (*dashboard.RawPeriodPayload, error) {
		return nil, dashboard.ErrTransport
	}), manyUsers(1), nil, metrics)
	if err := failing.Handle(context.Background(), task); !errors.Is(err, dashboard.ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "hotelpulse_jobs_total", map[string]string{"job": jobs.TaskDashboardWarmup, "status": "success"})
	failure := metricValue(t, families, "hotelpulse_jobs_total", map[string]string{"job": jobs.TaskDashboardWarmup, "status": "failure"})
	if ratio := success / (success + failure); ratio < 0.8 {
		t.Fatalf("warmup success ratio too low: %f", ratio)
	}
	if warmed := metricValue(t, families, "hotelpulse_dashboard_warmed_total", map[string]string{"window": "7d"}); warmed != 10 {
		t.Fatalf("warmed 7d = %f, want 10", warmed)
	}

	mean := histogramMean(t, families, "hotelpulse_job_duration_seconds", map[string]string{"job": jobs.TaskDashboardWarmup})
	if mean > 2.0 {
		t.Fatalf("warmup duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}
