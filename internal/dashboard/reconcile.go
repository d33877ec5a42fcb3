package dashboard

import (
	"strings"
	"time"
)

// MetricPoint is one chart-ready value. Label is unique within its series.
type MetricPoint struct {
	Label  string             `json:"label"`
	Value  float64            `json:"value"`
	Fields map[string]float64 `json:"fields,omitempty"`
}

// ReconcileStats reports how raw records were consumed.
type ReconcileStats struct {
	Matched int
	Filled  int
	Dropped int
}

// Reconcile aligns raw onto buckets. Each bucket takes the first raw record whose name
// equals its label, or failing that whose name is an ISO date or month inside the bucket.
// Buckets without a record get a zero point carrying the label and every field in fields.
// The result always has len(buckets) points in bucket order.
func Reconcile(buckets []Bucket, raw []RawPoint, fields ...string) ([]MetricPoint, ReconcileStats) {
	var stats ReconcileStats
	used := make([]bool, len(raw))
	byName := make(map[string]int, len(raw))
	keyed := make([]time.Time, len(raw))
	for i, point := range raw {
		name := strings.TrimSpace(point.Name)
		if _, exists := byName[name]; !exists {
			byName[name] = i
		}
		if t, ok := parseBucketKey(name); ok {
			keyed[i] = t
		}
	}

	out := make([]MetricPoint, 0, len(buckets))
	for _, bucket := range buckets {
		idx, ok := byName[bucket.Label]
		if ok && used[idx] {
			ok = false
		}
		if !ok {
			idx, ok = findByDate(bucket, raw, keyed, used)
		}
		if !ok && bucket.base != "" && bucket.base != bucket.Label {
			idx, ok = byName[bucket.base]
			if ok && used[idx] {
				ok = false
			}
		}
		if !ok {
			stats.Filled++
			out = append(out, zeroPoint(bucket.Label, fields))
			continue
		}
		used[idx] = true
		stats.Matched++
		out = append(out, toMetricPoint(bucket.Label, raw[idx], fields))
	}
	for _, u := range used {
		if !u {
			stats.Dropped++
		}
	}
	return out, stats
}

// ZeroSeries returns a zero point for every bucket.
func ZeroSeries(buckets []Bucket, fields ...string) []MetricPoint {
	out := make([]MetricPoint, 0, len(buckets))
	for _, bucket := range buckets {
		out = append(out, zeroPoint(bucket.Label, fields))
	}
	return out
}

func findByDate(bucket Bucket, raw []RawPoint, keyed []time.Time, used []bool) (int, bool) {
	for i := range raw {
		if used[i] || keyed[i].IsZero() {
			continue
		}
		t := keyed[i]
		if !t.Before(bucket.Start) && t.Before(bucket.End) {
			return i, true
		}
	}
	return 0, false
}

func parseBucketKey(name string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.ParseInLocation(layout, name, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func zeroPoint(label string, fields []string) MetricPoint {
	point := MetricPoint{Label: label}
	if len(fields) > 0 {
		point.Fields = make(map[string]float64, len(fields))
		for _, f := range fields {
			point.Fields[f] = 0
		}
	}
	return point
}

func toMetricPoint(label string, raw RawPoint, fields []string) MetricPoint {
	point := MetricPoint{Label: label, Value: raw.Value}
	if len(fields) == 0 && len(raw.Fields) == 0 {
		return point
	}
	point.Fields = make(map[string]float64, len(fields)+len(raw.Fields))
	for _, f := range fields {
		point.Fields[f] = 0
	}
	for k, v := range raw.Fields {
		point.Fields[k] = v
	}
	return point
}
