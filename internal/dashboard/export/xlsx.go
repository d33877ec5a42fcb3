package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
)

// WriteXLSX writes one worksheet per section to w.
func WriteXLSX(w io.Writer, model dashboard.Model) error {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, sheet := range Sheets(model) {
		name := sheetName(sheet.Name)
		if i == 0 {
			if err := file.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := file.NewSheet(name); err != nil {
			return err
		}
		if err := writeSheet(file, name, sheet, bold); err != nil {
			return fmt.Errorf("export: sheet %s: %w", name, err)
		}
	}
	file.SetActiveSheet(0)
	_, err = file.WriteTo(w)
	return err
}

func writeSheet(file *excelize.File, name string, sheet Sheet, headerStyle int) error {
	header := make([]any, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	if err := file.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if len(sheet.Header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(sheet.Header), 1)
		if err != nil {
			return err
		}
		if err := file.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return err
		}
	}
	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := append([]any(nil), row...)
		if err := file.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// sheetName keeps names within the 31 character worksheet limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
