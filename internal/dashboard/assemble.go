package dashboard

var upsellingFields = []string{"offered", "accepted"}

// AssemblyReport counts reconciliation outcomes per series for logging.
type AssemblyReport struct {
	Series map[string]ReconcileStats
}

// Dropped sums raw records that matched no bucket.
func (r AssemblyReport) Dropped() int {
	total := 0
	for _, s := range r.Series {
		total += s.Dropped
	}
	return total
}

// Assemble builds the model for r from the current and optional prior payloads.
// It is pure: the same inputs always give the same model. A nil current payload is
// treated as empty; a nil prior payload leaves every variation absent.
func Assemble(r DateRange, current, prior *RawPeriodPayload, opts Options) (Model, AssemblyReport) {
	if current == nil {
		current = &RawPeriodPayload{}
	}
	comparison := ResolveComparisonIn(r, opts.lang())
	interval := InferInterval(r, opts.maxPoints())
	buckets := interval.Buckets(r)

	labels := make([]string, 0, len(buckets))
	for _, b := range buckets {
		labels = append(labels, b.Label)
	}

	model := Model{
		Range:                r,
		Comparison:           comparison,
		ComparisonPeriodText: comparison.Text,
		HasComparison:        prior != nil,
		Interval:             interval,
		Labels:               labels,
		KPIs:                 buildKPIs(current, prior),
	}

	report := AssemblyReport{Series: make(map[string]ReconcileStats, 6)}
	reconcile := func(name string, raw []RawPoint, fields ...string) []MetricPoint {
		points, stats := Reconcile(buckets, raw, fields...)
		report.Series[name] = stats
		return points
	}
	model.Volume = reconcile("volume", current.Volume)
	model.MTTR = reconcile("mttr", current.MTTR)
	model.Manual = reconcile("manual", current.Manual)
	model.UpsellingRevenueByMonth = reconcile("upsellingRevenueByMonth", current.UpsellingRevenueByMonth)
	model.UpsellingByMonth = reconcile("upsellingByMonth", current.UpsellingByMonth, upsellingFields...)

	model.SLA = SLAPercentages(current.SLABuckets)
	model.Sentiment = Categorize(DomainSentiment, current.Sentiment)
	model.Language = Categorize(DomainLanguage, current.Language)
	model.Category = Categorize(DomainCategory, current.Category)

	var priorIncidents *RawIncidents
	if prior != nil {
		priorIncidents = &prior.Incidents
	}
	model.Incidents = Incidents{
		Total:    NewKPI(current.Incidents.Total.Float(), pick(priorIncidents, func(i *RawIncidents) Number { return i.Total })),
		Open:     NewKPI(current.Incidents.Open.Float(), pick(priorIncidents, func(i *RawIncidents) Number { return i.Open })),
		Resolved: NewKPI(current.Incidents.Resolved.Float(), pick(priorIncidents, func(i *RawIncidents) Number { return i.Resolved })),
		ByType:   Categorize(DomainIncidentType, current.Incidents.ByType),
		ByMonth:  reconcile("incidents.byMonth", current.Incidents.ByMonth),
	}
	return model, report
}

func buildKPIs(current, prior *RawPeriodPayload) KPIs {
	field := func(get func(*RawPeriodPayload) float64) KPI {
		if prior == nil {
			return NewKPI(get(current), nil)
		}
		prev := get(prior)
		return NewKPI(get(current), &prev)
	}
	return KPIs{
		TotalEmails:      field(func(p *RawPeriodPayload) float64 { return p.TotalEmails.Float() }),
		EmailsManual:     field(func(p *RawPeriodPayload) float64 { return p.EmailsManual.Float() }),
		AutomationRate:   field(automationRate),
		MTTRAverage:      field(func(p *RawPeriodPayload) float64 { return p.MTTRAverage.Float() }),
		SLA10Min:         field(func(p *RawPeriodPayload) float64 { return p.SLA10Min.Float() }),
		AvgResponseTime:  field(func(p *RawPeriodPayload) float64 { return p.AvgResponseTime.Float() }),
		UpsellingRevenue: field(func(p *RawPeriodPayload) float64 { return p.UpsellingRevenue.Float() }),
		SavingsEuros:     field(func(p *RawPeriodPayload) float64 { return p.SavingsEuros.Float() }),
	}
}

// automationRate is the share of emails handled without manual intervention.
func automationRate(p *RawPeriodPayload) float64 {
	total := p.TotalEmails.Float()
	if total <= 0 {
		return 0
	}
	manual := p.EmailsManual.Float()
	if manual < 0 {
		manual = 0
	}
	if manual > total {
		manual = total
	}
	return round1((total - manual) / total * 100)
}

func pick(i *RawIncidents, get func(*RawIncidents) Number) *float64 {
	if i == nil {
		return nil
	}
	v := get(i).Float()
	return &v
}
