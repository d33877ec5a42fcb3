package dashboard

import "strings"

// ColorDomain names one categorical lookup table.
type ColorDomain string

// Categorical domains with fixed palettes.
const (
	DomainSentiment    ColorDomain = "sentiment"
	DomainLanguage     ColorDomain = "language"
	DomainCategory     ColorDomain = "category"
	DomainSLABucket    ColorDomain = "sla-bucket"
	DomainIncidentType ColorDomain = "incident-type"
)

// NeutralColor is returned for any name missing from its domain table.
const NeutralColor = "#94a3b8"

var palettes = map[ColorDomain]map[string]string{
	DomainSentiment: {
		"positive": "#22c55e",
		"positivo": "#22c55e",
		"neutral":  "#eab308",
		"negative": "#ef4444",
		"negativo": "#ef4444",
	},
	DomainLanguage: {
		"es": "#f97316",
		"en": "#3b82f6",
		"fr": "#8b5cf6",
		"de": "#facc15",
		"it": "#10b981",
		"pt": "#ec4899",
		"nl": "#f43f5e",
	},
	DomainCategory: {
		"booking":      "#3b82f6",
		"reservas":     "#3b82f6",
		"cancellation": "#ef4444",
		"cancelacion":  "#ef4444",
		"information":  "#06b6d4",
		"informacion":  "#06b6d4",
		"complaint":    "#f97316",
		"queja":        "#f97316",
		"upselling":    "#22c55e",
		"billing":      "#a855f7",
		"facturacion":  "#a855f7",
	},
	DomainSLABucket: {
		"<10min":   "#22c55e",
		"10-30min": "#84cc16",
		"30-60min": "#eab308",
		"1-4h":     "#f97316",
		"4-24h":    "#ef4444",
		">24h":     "#991b1b",
	},
	DomainIncidentType: {
		"maintenance":   "#f97316",
		"mantenimiento": "#f97316",
		"cleaning":      "#06b6d4",
		"limpieza":      "#06b6d4",
		"noise":         "#a855f7",
		"ruido":         "#a855f7",
		"billing":       "#eab308",
		"other":         "#64748b",
		"otros":         "#64748b",
	},
}

// ColorFor returns the display color of name within domain. It never fails: unknown
// domains and names map to NeutralColor.
func ColorFor(domain ColorDomain, name string) string {
	palette, ok := palettes[domain]
	if !ok {
		return NeutralColor
	}
	if color, ok := palette[strings.ToLower(strings.TrimSpace(name))]; ok {
		return color
	}
	return NeutralColor
}

// CategoryPoint is a categorical breakdown entry with its display color.
type CategoryPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Categorize attaches colors to a raw categorical series, preserving upstream order.
func Categorize(domain ColorDomain, raw []RawPoint) []CategoryPoint {
	out := make([]CategoryPoint, 0, len(raw))
	for _, point := range raw {
		out = append(out, CategoryPoint{
			Name:  point.Name,
			Value: point.Value,
			Color: ColorFor(domain, point.Name),
		})
	}
	return out
}
