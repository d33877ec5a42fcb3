package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Query scopes one metrics fetch.
type Query struct {
	Range      DateRange
	HotelIDs   []string
	Credential string
}

// Key renders a stable identity for the query, independent of hotel order and credential.
func (q Query) Key() string {
	ids := append([]string(nil), q.HotelIDs...)
	sort.Strings(ids)
	return strings.Join([]string{FormatDay(q.Range.From), FormatDay(q.Range.To), strings.Join(ids, ",")}, "|")
}

// Fetcher loads the raw payload for a query from the metrics collaborator.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (*RawPeriodPayload, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, q Query) (*RawPeriodPayload, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, q Query) (*RawPeriodPayload, error) {
	return f(ctx, q)
}

// Recorder observes refresh cycles. Implemented by observability.Metrics.
type Recorder interface {
	ObserveFetch(period string, d time.Duration, err error)
	ObserveDropped(series string, n int)
}

// Cycle is the outcome of one successful build.
type Cycle struct {
	ID       string
	Model    Model
	Report   AssemblyReport
	PriorErr error
}

// Aggregator runs a full refresh cycle against a Fetcher.
type Aggregator struct {
	fetcher  Fetcher
	logger   *slog.Logger
	recorder Recorder
}

// NewAggregator wires the aggregator.
func NewAggregator(fetcher Fetcher, logger *slog.Logger, recorder Recorder) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{fetcher: fetcher, logger: logger, recorder: recorder}
}

// Build fetches current and prior payloads concurrently and assembles the model.
// A failed current fetch aborts the cycle; a failed prior fetch only drops variations.
func (a *Aggregator) Build(ctx context.Context, q Query, opts Options) (Cycle, error) {
	if a == nil || a.fetcher == nil {
		return Cycle{}, errors.New("dashboard: fetcher not configured")
	}
	if !q.Range.Valid() {
		return Cycle{}, ErrInvalidRange
	}
	cycleID := uuid.NewString()
	logger := a.logger.With(
		slog.String("cycle_id", cycleID),
		slog.String("from", FormatDay(q.Range.From)),
		slog.String("to", FormatDay(q.Range.To)),
		slog.Int("hotels", len(q.HotelIDs)),
	)

	comparison := ResolveComparison(q.Range)
	priorQuery := q
	priorQuery.Range = comparison.Range

	var current, prior *RawPeriodPayload
	var priorErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		payload, err := a.fetch(gctx, "current", q)
		if err != nil {
			return fmt.Errorf("fetch current period: %w", err)
		}
		current = payload
		return nil
	})
	g.Go(func() error {
		payload, err := a.fetch(gctx, "prior", priorQuery)
		if err != nil {
			priorErr = err
			return nil
		}
		prior = payload
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Warn("dashboard cycle failed", slog.Any("error", err))
		return Cycle{ID: cycleID}, err
	}
	if priorErr != nil && ctx.Err() == nil {
		logger.Warn("prior period unavailable, comparison disabled", slog.Any("error", priorErr))
	}

	model, report := Assemble(q.Range, current, prior, opts)
	if dropped := report.Dropped(); dropped > 0 {
		logger.Info("raw records without matching bucket", slog.Int("dropped", dropped))
	}
	if a.recorder != nil {
		for name, stats := range report.Series {
			a.recorder.ObserveDropped(name, stats.Dropped)
		}
	}
	return Cycle{ID: cycleID, Model: model, Report: report, PriorErr: priorErr}, nil
}

func (a *Aggregator) fetch(ctx context.Context, period string, q Query) (*RawPeriodPayload, error) {
	start := time.Now()
	payload, err := a.fetcher.Fetch(ctx, q)
	if err == nil && payload == nil {
		payload = &RawPeriodPayload{}
	}
	if a.recorder != nil {
		a.recorder.ObserveFetch(period, time.Since(start), err)
	}
	return payload, err
}
