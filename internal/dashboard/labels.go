package dashboard

import "time"

type labelPrecision int

const (
	precisionDayMonth labelPrecision = iota
	precisionDay
	precisionMonth
	precisionMonthYear
)

// FormatLabel renders a bucket boundary with a precision driven by the span of r.
func FormatLabel(t time.Time, r DateRange) string {
	return formatWith(t, basePrecision(r))
}

// BucketLabels formats every boundary and escalates every member of a colliding group
// to a finer format, so a bucket set never carries the same label twice.
func BucketLabels(starts []time.Time, r DateRange) []string {
	base := basePrecision(r)
	labels := make([]string, len(starts))
	counts := make(map[string]int, len(starts))
	for i, start := range starts {
		labels[i] = formatWith(start, base)
		counts[labels[i]]++
	}
	for i, start := range starts {
		if counts[labels[i]] > 1 {
			labels[i] = formatWith(start, escalate(base))
		}
	}
	return labels
}

func basePrecision(r DateRange) labelPrecision {
	span := r.Days()
	switch {
	case span <= 7:
		return precisionDayMonth
	case span <= 30:
		return precisionDay
	default:
		return precisionMonth
	}
}

func escalate(p labelPrecision) labelPrecision {
	switch p {
	case precisionDay:
		return precisionDayMonth
	case precisionMonth:
		return precisionMonthYear
	default:
		return p
	}
}

func formatWith(t time.Time, p labelPrecision) string {
	switch p {
	case precisionDay:
		return t.Format("02")
	case precisionMonth:
		return t.Format("Jan")
	case precisionMonthYear:
		return t.Format("Jan 06")
	default:
		return t.Format("02/01")
	}
}
