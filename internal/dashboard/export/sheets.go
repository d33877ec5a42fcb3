// Package export renders a dashboard model as CSV or XLSX.
package export

import (
	"sort"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
)

// Sheet is one tabular section of an export.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Sheets flattens model into the sections shared by every export format.
func Sheets(model dashboard.Model) []Sheet {
	sheets := []Sheet{kpiSheet(model)}
	sheets = append(sheets,
		seriesSheet("Volume", model.Volume),
		seriesSheet("MTTR", model.MTTR),
		seriesSheet("Manual", model.Manual),
		seriesSheet("Upselling Revenue", model.UpsellingRevenueByMonth),
		seriesSheet("Upselling", model.UpsellingByMonth),
		seriesSheet("Incidents By Month", model.Incidents.ByMonth),
		slaSheet(model.SLA),
		categorySheet("Sentiment", model.Sentiment),
		categorySheet("Language", model.Language),
		categorySheet("Category", model.Category),
		categorySheet("Incidents By Type", model.Incidents.ByType),
	)
	return sheets
}

func kpiSheet(model dashboard.Model) Sheet {
	sheet := Sheet{
		Name:   "KPIs",
		Header: []string{"Metric", "Value", "Previous", "Variation %", "Direction"},
	}
	sheet.Rows = append(sheet.Rows,
		[]any{"Period", dashboard.FormatDay(model.Range.From) + " - " + dashboard.FormatDay(model.Range.To), nil, nil, nil},
		[]any{"Compared With", model.ComparisonPeriodText, nil, nil, nil},
	)
	kpis := []struct {
		name string
		kpi  dashboard.KPI
	}{
		{"Total Emails", model.KPIs.TotalEmails},
		{"Manual Emails", model.KPIs.EmailsManual},
		{"Automation Rate", model.KPIs.AutomationRate},
		{"MTTR Average", model.KPIs.MTTRAverage},
		{"SLA 10 Min", model.KPIs.SLA10Min},
		{"Avg Response Time", model.KPIs.AvgResponseTime},
		{"Upselling Revenue", model.KPIs.UpsellingRevenue},
		{"Savings EUR", model.KPIs.SavingsEuros},
		{"Incidents Total", model.Incidents.Total},
		{"Incidents Open", model.Incidents.Open},
		{"Incidents Resolved", model.Incidents.Resolved},
	}
	for _, entry := range kpis {
		row := []any{entry.name, entry.kpi.Value, nil, nil, nil}
		if entry.kpi.Previous != nil {
			row[2] = *entry.kpi.Previous
		}
		if v := entry.kpi.Variation; v != nil {
			row[3] = v.Percentage
			row[4] = direction(*v)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func direction(v dashboard.Variation) string {
	switch {
	case v.IsIncrease:
		return "up"
	case v.Percentage == 0:
		return "flat"
	default:
		return "down"
	}
}

func seriesSheet(name string, points []dashboard.MetricPoint) Sheet {
	fields := fieldNames(points)
	sheet := Sheet{Name: name, Header: append([]string{"Label", "Value"}, fields...)}
	for _, p := range points {
		row := []any{p.Label, p.Value}
		for _, f := range fields {
			row = append(row, p.Fields[f])
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func fieldNames(points []dashboard.MetricPoint) []string {
	set := map[string]struct{}{}
	for _, p := range points {
		for name := range p.Fields {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func slaSheet(shares []dashboard.SLAShare) Sheet {
	sheet := Sheet{Name: "SLA", Header: []string{"Bucket", "Count", "Percentage", "Color"}}
	for _, s := range shares {
		sheet.Rows = append(sheet.Rows, []any{s.Name, s.Count, s.Percentage, s.Color})
	}
	return sheet
}

func categorySheet(name string, points []dashboard.CategoryPoint) Sheet {
	sheet := Sheet{Name: name, Header: []string{"Name", "Value", "Color"}}
	for _, p := range points {
		sheet.Rows = append(sheet.Rows, []any{p.Name, p.Value, p.Color})
	}
	return sheet
}
