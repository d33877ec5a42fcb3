package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
)

const metricsPayloadSQL = `SELECT metrics_payload($1::date, $2::date, $3::text[])`

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSource reads period payloads straight from the metrics database.
type PostgresSource struct {
	db Querier
}

// NewPostgresSource wires the source around a pool.
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

// Fetch implements dashboard.Fetcher.
func (s *PostgresSource) Fetch(ctx context.Context, q dashboard.Query) (*dashboard.RawPeriodPayload, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("source: postgres not configured")
	}
	hotels := q.HotelIDs
	if hotels == nil {
		hotels = []string{}
	}
	var body []byte
	err := s.db.QueryRow(ctx, metricsPayloadSQL, q.Range.From, q.Range.To, hotels).Scan(&body)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return &dashboard.RawPeriodPayload{}, nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: metrics_payload: %v", dashboard.ErrTransport, err)
	}
	if len(body) == 0 {
		return &dashboard.RawPeriodPayload{}, nil
	}
	return dashboard.DecodePayload(body)
}
