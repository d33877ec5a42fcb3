package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
	jobmetrics "github.com/hotelpulse/hotelpulse/internal/jobs"
	"github.com/hotelpulse/hotelpulse/internal/tenants"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// UserLister enumerates the tenant users to warm.
type UserLister interface {
	Users() []tenants.User
}

// Invalidator drops every cached payload.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// DashboardWarmupJob loads the default dashboard ranges of every user through the
// caching fetcher so the first page view hits a warm cache.
type DashboardWarmupJob struct {
	Fetcher   dashboard.Fetcher
	Directory UserLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(fetcher dashboard.Fetcher, directory UserLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Fetcher:   fetcher,
		Directory: directory,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the job clock for testing.
func (j *DashboardWarmupJob) WithClock(fn func() time.Time) {
	if fn != nil {
		j.clock = fn
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Fetcher == nil || j.Directory == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("dashboard warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	windows := payload.Windows
	if len(windows) == 0 {
		windows = DefaultWarmupWindows
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	users := j.users(payload.UserID)
	if len(users) == 0 {
		logger.Info("no users to warm")
		return nil
	}

	start := time.Now()
	today := j.now().Truncate(24 * time.Hour)
	seen := make(map[string]struct{})
	var failures []error
	for _, window := range windows {
		if window <= 0 {
			continue
		}
		warmed := 0
		for _, q := range warmupQueries(users, today, window) {
			if _, dup := seen[q.Key()]; dup {
				continue
			}
			seen[q.Key()] = struct{}{}
			if err := j.warm(ctx, q); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("warm range", slog.String("key", q.Key()), slog.Any("error", err))
				failures = append(failures, err)
				continue
			}
			warmed++
		}
		j.metrics().AddWarmed(fmt.Sprintf("%dd", window), warmed)
	}

	logger.Info("completed dashboard warmup",
		slog.Int("users", len(users)),
		slog.Int("queries", len(seen)),
		slog.Int("failures", len(failures)),
		slog.Duration("duration", time.Since(start)),
	)
	return errors.Join(failures...)
}

// warmupQueries builds the current and comparison queries the dashboard issues for
// a window ending today. A window of n days matches the handler default of [today-n, today].
func warmupQueries(users []tenants.User, today time.Time, window int) []dashboard.Query {
	r := dashboard.DateRange{From: today.AddDate(0, 0, -window), To: today}
	prior := dashboard.ResolveComparison(r).Range
	out := make([]dashboard.Query, 0, 2*len(users))
	for _, u := range users {
		out = append(out,
			dashboard.Query{Range: r, HotelIDs: u.HotelIDs},
			dashboard.Query{Range: prior, HotelIDs: u.HotelIDs},
		)
	}
	return out
}

func (j *DashboardWarmupJob) warm(ctx context.Context, q dashboard.Query) error {
	qctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	_, err := j.Fetcher.Fetch(qctx, q)
	return err
}

func (j *DashboardWarmupJob) users(only string) []tenants.User {
	users := j.Directory.Users()
	if only == "" {
		return users
	}
	for _, u := range users {
		if u.ID == only {
			return []tenants.User{u}
		}
	}
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// InvalidateHandler bumps the cache version.
func InvalidateHandler(cache Invalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return func(ctx context.Context, t *asynq.Task) error {
		if cache == nil {
			return errors.New("dashboard invalidate: cache not configured")
		}
		err := metrics.Track(TaskDashboardInvalidate).End(cache.Bump(ctx))
		if err != nil && logger != nil {
			logger.Error("bump dashboard cache", slog.Any("error", err))
		}
		return err
	}
}
