package dashboard

import "math"

// Variation carries the magnitude and direction of a change between two readings.
type Variation struct {
	Percentage float64 `json:"percentage"`
	IsIncrease bool    `json:"isIncrease"`
}

// Variance compares current against previous. A zero baseline reports a 100% increase
// when current is positive and no change otherwise.
func Variance(current, previous float64) Variation {
	if previous == 0 {
		if current > 0 {
			return Variation{Percentage: 100, IsIncrease: true}
		}
		return Variation{}
	}
	delta := current - previous
	return Variation{
		Percentage: math.Abs(delta / previous * 100),
		IsIncrease: delta > 0,
	}
}

// KPI pairs a scalar reading with its optional comparison.
type KPI struct {
	Value     float64    `json:"value"`
	Previous  *float64   `json:"previous,omitempty"`
	Variation *Variation `json:"variation,omitempty"`
}

// NewKPI builds a KPI. The variation stays nil when there is no prior reading.
func NewKPI(current float64, previous *float64) KPI {
	kpi := KPI{Value: current}
	if previous == nil {
		return kpi
	}
	prev := *previous
	v := Variance(current, prev)
	kpi.Previous = &prev
	kpi.Variation = &v
	return kpi
}
