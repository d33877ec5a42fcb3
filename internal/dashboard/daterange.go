package dashboard

import (
	"errors"
	"math"
	"time"
)

const day = 24 * time.Hour

// ErrInvalidRange is returned when a range ends before it starts.
var ErrInvalidRange = errors.New("dashboard: range end before start")

// DateRange is an inclusive reporting window. Values are treated as immutable.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange builds a validated range.
func NewDateRange(from, to time.Time) (DateRange, error) {
	if to.Before(from) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{From: from, To: to}, nil
}

// Days returns ceil((To - From) / 1 day).
func (r DateRange) Days() int {
	diff := r.To.Sub(r.From)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// Valid reports whether From <= To.
func (r DateRange) Valid() bool {
	return !r.To.Before(r.From)
}

// ParseDay parses an ISO calendar date in UTC.
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

// FormatDay renders t as an ISO calendar date.
func FormatDay(t time.Time) string {
	return t.Format("2006-01-02")
}
