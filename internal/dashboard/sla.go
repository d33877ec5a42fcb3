package dashboard

import (
	"math"
	"sort"
)

// SLAShare is one SLA response-time bucket expressed as a share of the period total.
type SLAShare struct {
	Name       string  `json:"name"`
	Count      float64 `json:"count"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// SLAPercentages converts absolute bucket counts into percentages of their total,
// rounded to one decimal so that they sum to exactly 100 (largest remainder).
// A zero (or negative) total yields 0% everywhere.
func SLAPercentages(raw []RawPoint) []SLAShare {
	var total float64
	for _, point := range raw {
		if point.Value > 0 {
			total += point.Value
		}
	}
	out := make([]SLAShare, 0, len(raw))
	for _, point := range raw {
		out = append(out, SLAShare{
			Name:  point.Name,
			Count: point.Value,
			Color: ColorFor(DomainSLABucket, point.Name),
		})
	}
	if total <= 0 {
		return out
	}

	// Work in tenths of a percent: floor every share, then hand the missing
	// tenths to the buckets with the largest remainders.
	tenths := make([]int, len(raw))
	remainders := make([]float64, len(raw))
	assigned := 0
	for i, point := range raw {
		if point.Value <= 0 {
			continue
		}
		exact := point.Value / total * 1000
		floor := math.Floor(exact)
		tenths[i] = int(floor)
		remainders[i] = exact - floor
		assigned += tenths[i]
	}
	order := make([]int, 0, len(raw))
	for i, point := range raw {
		if point.Value > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := 0; assigned < 1000 && len(order) > 0; k++ {
		tenths[order[k%len(order)]]++
		assigned++
	}
	for i := range out {
		out[i].Percentage = float64(tenths[i]) / 10
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
