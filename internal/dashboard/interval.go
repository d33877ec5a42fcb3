package dashboard

import "time"

// DefaultMaxPoints bounds the number of buckets on a chart axis.
const DefaultMaxPoints = 7

// Granularity is the width of one chart bucket.
type Granularity string

// Supported granularities.
const (
	GranularityDay     Granularity = "day"
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
)

// Interval describes the bucketing chosen for a range.
type Interval struct {
	Granularity Granularity `json:"granularity"`
	Days        int         `json:"days"`
	Count       int         `json:"count"`
}

// Bucket is one aggregation slot. Start is inclusive, End exclusive.
type Bucket struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
	// base is the label before collision escalation, still used by upstream series.
	base string
}

// InferInterval picks the granularity and bucket count for r.
func InferInterval(r DateRange, maxPoints int) Interval {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	totalDays := r.Days()

	var interval Interval
	switch {
	case totalDays <= 7:
		interval = Interval{Granularity: GranularityDay, Days: 1}
	case totalDays <= 30:
		interval = Interval{Granularity: GranularityWeek, Days: 7}
	case totalDays <= 90:
		interval = Interval{Granularity: GranularityMonth, Days: 30}
	case totalDays <= 365:
		interval = Interval{Granularity: GranularityQuarter, Days: 90}
	default:
		interval = Interval{Granularity: GranularityMonth, Days: 30}
	}

	count := (totalDays + interval.Days - 1) / interval.Days
	if count > maxPoints {
		count = maxPoints
	}
	if count < 1 {
		count = 1
	}
	interval.Count = count
	return interval
}

// Boundary returns the start of the i-th bucket counted from from.
func (iv Interval) Boundary(from time.Time, i int) time.Time {
	switch iv.Granularity {
	case GranularityDay:
		return from.AddDate(0, 0, i)
	case GranularityWeek:
		return from.AddDate(0, 0, 7*i)
	case GranularityMonth:
		return from.AddDate(0, i, 0)
	case GranularityQuarter:
		return from.AddDate(0, 3*i, 0)
	default:
		return from.AddDate(0, 0, i*iv.Days)
	}
}

// Boundaries lists the start date of every bucket for r.
func (iv Interval) Boundaries(r DateRange) []time.Time {
	out := make([]time.Time, 0, iv.Count)
	for i := 0; i < iv.Count; i++ {
		out = append(out, iv.Boundary(r.From, i))
	}
	return out
}

// Buckets returns the labelled buckets for r. The last bucket may overrun r.To by one step.
func (iv Interval) Buckets(r DateRange) []Bucket {
	starts := iv.Boundaries(r)
	labels := BucketLabels(starts, r)
	buckets := make([]Bucket, 0, len(starts))
	for i, start := range starts {
		buckets = append(buckets, Bucket{
			Index: i,
			Start: start,
			End:   iv.Boundary(r.From, i+1),
			Label: labels[i],
			base:  FormatLabel(start, r),
		})
	}
	return buckets
}
