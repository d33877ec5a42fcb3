package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
)

// WriteCSV serialises a dashboard model as consecutive CSV sections separated by blank lines.
func WriteCSV(w io.Writer, model dashboard.Model) error {
	for i, sheet := range Sheets(model) {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := writeSection(w, sheet); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w io.Writer, sheet Sheet) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"# " + sheet.Name}); err != nil {
		return err
	}
	if err := writer.Write(sheet.Header); err != nil {
		return err
	}
	for _, row := range sheet.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return formatFloat(value)
	case int:
		return strconv.Itoa(value)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
