package dashboard

import "golang.org/x/text/language"

// KPIs lists the headline cards of the dashboard.
type KPIs struct {
	TotalEmails      KPI `json:"totalEmails"`
	EmailsManual     KPI `json:"emailsManual"`
	AutomationRate   KPI `json:"automationRate"`
	MTTRAverage      KPI `json:"mttrAverage"`
	SLA10Min         KPI `json:"sla10min"`
	AvgResponseTime  KPI `json:"avgResponseTime"`
	UpsellingRevenue KPI `json:"upsellingRevenue"`
	SavingsEuros     KPI `json:"savingsEuros"`
}

// Incidents summarises incident tracking for the period.
type Incidents struct {
	Total    KPI             `json:"total"`
	Open     KPI             `json:"open"`
	Resolved KPI             `json:"resolved"`
	ByType   []CategoryPoint `json:"byType"`
	ByMonth  []MetricPoint   `json:"byMonth"`
}

// Model is the presentation-ready dashboard. Every series is populated; downstream
// consumers never need to nil-check.
type Model struct {
	Range                DateRange  `json:"range"`
	Comparison           Comparison `json:"comparison"`
	ComparisonPeriodText string     `json:"comparisonPeriodText"`
	HasComparison        bool       `json:"hasComparison"`
	Interval             Interval   `json:"interval"`
	Labels               []string   `json:"labels"`

	KPIs KPIs `json:"kpis"`

	Volume                  []MetricPoint   `json:"volume"`
	MTTR                    []MetricPoint   `json:"mttr"`
	Manual                  []MetricPoint   `json:"manual"`
	UpsellingRevenueByMonth []MetricPoint   `json:"upsellingRevenueByMonth"`
	UpsellingByMonth        []MetricPoint   `json:"upsellingByMonth"`
	SLA                     []SLAShare      `json:"sla"`
	Sentiment               []CategoryPoint `json:"sentiment"`
	Language                []CategoryPoint `json:"language"`
	Category                []CategoryPoint `json:"category"`
	Incidents               Incidents       `json:"incidents"`
}

// Options tunes model assembly.
type Options struct {
	MaxPoints int
	Language  language.Tag
}

func (o Options) maxPoints() int {
	if o.MaxPoints <= 0 {
		return DefaultMaxPoints
	}
	return o.MaxPoints
}

func (o Options) lang() language.Tag {
	if o.Language == language.Und {
		return language.English
	}
	return o.Language
}

// EmptyModel is the canonical zero model for r: zero-filled buckets, empty breakdowns,
// no variations.
func EmptyModel(r DateRange, opts Options) Model {
	model, _ := Assemble(r, nil, nil, opts)
	return model
}
