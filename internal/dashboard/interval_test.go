package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, from, to time.Time) DateRange {
	t.Helper()
	r, err := NewDateRange(from, to)
	require.NoError(t, err)
	return r
}

func TestNewDateRangeRejectsInvertedRange(t *testing.T) {
	_, err := NewDateRange(date(2024, 1, 8), date(2024, 1, 1))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestInferIntervalThresholds(t *testing.T) {
	from := date(2024, 1, 1)
	cases := []struct {
		name  string
		days  int
		gran  Granularity
		step  int
		count int
	}{
		{"single day", 0, GranularityDay, 1, 1},
		{"three days", 3, GranularityDay, 1, 3},
		{"week", 7, GranularityDay, 1, 7},
		{"eight days", 8, GranularityWeek, 7, 2},
		{"month", 30, GranularityWeek, 7, 5},
		{"two months", 60, GranularityMonth, 30, 2},
		{"quarter", 90, GranularityMonth, 30, 3},
		{"half year", 180, GranularityQuarter, 90, 2},
		{"year", 365, GranularityQuarter, 90, 5},
		{"two years", 730, GranularityMonth, 30, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			iv := InferInterval(mustRange(t, from, from.AddDate(0, 0, tc.days)), 0)
			assert.Equal(t, tc.gran, iv.Granularity)
			assert.Equal(t, tc.step, iv.Days)
			assert.Equal(t, tc.count, iv.Count)
		})
	}
}

func TestInferIntervalDailyBucketsBoundedByMaxPoints(t *testing.T) {
	from := date(2024, 3, 10)
	for days := 1; days <= 7; days++ {
		r := mustRange(t, from, from.AddDate(0, 0, days))
		assert.Equal(t, days, InferInterval(r, 7).Count)
		assert.Equal(t, min(days, 4), InferInterval(r, 4).Count)
		assert.Equal(t, GranularityDay, InferInterval(r, 7).Granularity)
	}
}

func TestInferIntervalPartialDayRoundsUp(t *testing.T) {
	r := mustRange(t, date(2024, 1, 1), date(2024, 1, 3).Add(5*time.Hour))
	assert.Equal(t, 3, r.Days())
	assert.Equal(t, 3, InferInterval(r, 7).Count)
}

func TestBucketsWeekScenario(t *testing.T) {
	r := mustRange(t, date(2024, 1, 1), date(2024, 1, 8))
	buckets := InferInterval(r, DefaultMaxPoints).Buckets(r)
	require.Len(t, buckets, 7)

	labels := make([]string, 0, len(buckets))
	for _, b := range buckets {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"01/01", "02/01", "03/01", "04/01", "05/01", "06/01", "07/01"}, labels)
	assert.Equal(t, date(2024, 1, 2), buckets[0].End)
}

func TestBucketsUseCalendarMonths(t *testing.T) {
	r := mustRange(t, date(2024, 1, 31), date(2024, 4, 30))
	buckets := InferInterval(r, DefaultMaxPoints).Buckets(r)
	require.Len(t, buckets, 3)
	assert.Equal(t, date(2024, 1, 31), buckets[0].Start)
	// AddDate normalises Feb 31 to Mar 2 in a leap year
	assert.Equal(t, date(2024, 3, 2), buckets[1].Start)
	assert.Equal(t, date(2024, 3, 31), buckets[2].Start)
}

func TestBucketsOverrunAtMostOneStep(t *testing.T) {
	from := date(2023, 5, 17)
	for _, days := range []int{1, 5, 9, 23, 31, 45, 95, 200, 364, 500} {
		r := mustRange(t, from, from.AddDate(0, 0, days))
		iv := InferInterval(r, DefaultMaxPoints)
		buckets := iv.Buckets(r)
		require.NotEmpty(t, buckets)
		last := buckets[len(buckets)-1]
		assert.False(t, last.Start.After(iv.Boundary(r.To, 1)), "days=%d", days)
	}
}

func TestBucketLabelsAreUnique(t *testing.T) {
	from := date(2023, 1, 1)
	for days := 0; days <= 800; days += 7 {
		r := mustRange(t, from, from.AddDate(0, 0, days))
		buckets := InferInterval(r, DefaultMaxPoints).Buckets(r)
		seen := map[string]bool{}
		for _, b := range buckets {
			assert.False(t, seen[b.Label], "duplicate label %q for %d days", b.Label, days)
			seen[b.Label] = true
		}
	}
}

func TestFormatLabelPrecision(t *testing.T) {
	d := date(2024, 2, 5)
	assert.Equal(t, "05/02", FormatLabel(d, mustRange(t, d, d.AddDate(0, 0, 7))))
	assert.Equal(t, "05", FormatLabel(d, mustRange(t, d, d.AddDate(0, 0, 30))))
	assert.Equal(t, "Feb", FormatLabel(d, mustRange(t, d, d.AddDate(0, 0, 31))))
	assert.Equal(t, FormatLabel(d, mustRange(t, d, d.AddDate(0, 0, 31))), FormatLabel(d, mustRange(t, d, d.AddDate(0, 0, 31))))
}

func TestBucketLabelsEscalateCollisions(t *testing.T) {
	r := mustRange(t, date(2024, 1, 1), date(2024, 12, 31))
	buckets := InferInterval(r, DefaultMaxPoints).Buckets(r)
	require.Len(t, buckets, 5)
	assert.Equal(t, "Jan 24", buckets[0].Label)
	assert.Equal(t, "Apr", buckets[1].Label)
	assert.Equal(t, "Jan 25", buckets[4].Label)

	r = mustRange(t, date(2023, 2, 1), date(2023, 3, 3))
	buckets = InferInterval(r, DefaultMaxPoints).Buckets(r)
	require.Len(t, buckets, 5)
	assert.Equal(t, "01/02", buckets[0].Label)
	assert.Equal(t, "01/03", buckets[4].Label)
}

func TestBucketLabelsLeaveUniqueLabelsAlone(t *testing.T) {
	r := mustRange(t, date(2024, 1, 1), date(2024, 12, 31))
	starts := []time.Time{date(2024, 1, 1), date(2024, 4, 1), date(2024, 7, 1), date(2024, 10, 1), date(2025, 1, 1)}
	assert.Equal(t, []string{"Jan 24", "Apr", "Jul", "Oct", "Jan 25"}, BucketLabels(starts, r))

	assert.Equal(t, []string{"Jan", "Apr"}, BucketLabels(starts[:2], r))
	assert.Empty(t, BucketLabels(nil, r))
}
