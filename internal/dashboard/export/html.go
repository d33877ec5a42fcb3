package export

import (
	"html/template"
	"io"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
)

var reportTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"cell": formatCell,
	"day":  dashboard.FormatDay,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Dashboard {{day .Model.Range.From}} - {{day .Model.Range.To}}</title>
<style>
body { font-family: sans-serif; font-size: 10pt; margin: 24px; }
h1 { font-size: 16pt; }
h2 { font-size: 12pt; margin-top: 18px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 3px 6px; text-align: left; }
th { background: #f2f2f2; }
</style>
</head>
<body>
<h1>Dashboard {{day .Model.Range.From}} - {{day .Model.Range.To}}</h1>
{{range .Sheets}}{{if .Rows}}<h2>{{.Name}}</h2>
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{cell .}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{end}}{{end}}</body>
</html>
`))

// WriteHTML renders model as a printable HTML report. Empty sections are skipped.
func WriteHTML(w io.Writer, model dashboard.Model) error {
	return reportTemplate.Execute(w, struct {
		Model  dashboard.Model
		Sheets []Sheet
	}{Model: model, Sheets: Sheets(model)})
}
