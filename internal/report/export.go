// Package report renders analysis results as an Excel summary workbook and
// a per-condition PDF report.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	application "github.com/webbidevaajat/tsatool-app/internal/analysis/application"
	analysis "github.com/webbidevaajat/tsatool-app/internal/analysis/domain"
	conditions "github.com/webbidevaajat/tsatool-app/internal/conditions/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// AddSummarySheet appends a worksheet with the collection's summary rows:
// the window and run timestamp on top, one row per condition with its data
// extent, validity shares and slice count.
func AddSummarySheet(f *excelize.File, coll *conditions.Collection, run *application.RunResult) error {
	sheet := coll.Title
	if sheet == "" {
		sheet = "conditions"
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := map[string]string{
		"A1": "start",
		"B1": "end",
		"D1": "analyzed",
		"A3": "site",
		"B3": "master_alias",
		"C3": "condition",
		"D3": "data_from",
		"E3": "data_until",
		"F3": "valid",
		"G3": "notvalid",
		"H3": "nodata",
		"I3": "rows",
	}
	for cell, text := range headers {
		if err := f.SetCellValue(sheet, cell, text); err != nil {
			return err
		}
	}

	_ = f.SetCellValue(sheet, "A2", coll.TimeFrom.Format(dateTimeLayout))
	_ = f.SetCellValue(sheet, "B2", coll.TimeUntil.Format(dateTimeLayout))
	_ = f.SetCellValue(sheet, "D2", coll.CreatedAt.Format(dateTimeLayout))

	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return err
	}

	row := 4
	for _, cond := range coll.Conditions() {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), cond.Site)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), cond.MasterAlias)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), cond.Raw)

		if result := run.Result(cond.ID); result != nil {
			if !result.DataFrom.IsZero() {
				_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), result.DataFrom.Format(dateTimeLayout))
				_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), result.DataUntil.Format(dateTimeLayout))
			}
			_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), result.Summary.PercentValid)
			_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), result.Summary.PercentInvalid)
			_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), result.Summary.PercentNoData)
			_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), len(result.Slices))
		} else if err, failed := run.Errors[cond.ID]; failed {
			_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), err.Error())
		}
		_ = f.SetCellStyle(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("H%d", row), percentStyle)
		row++
	}
	return nil
}

// BuildSummaryXLSX renders the summary workbook for a set of collections.
// runs is keyed by collection title.
func BuildSummaryXLSX(colls []*conditions.Collection, runs map[string]*application.RunResult) ([]byte, error) {
	f := excelize.NewFile()
	for _, coll := range colls {
		run, ok := runs[coll.Title]
		if !ok {
			continue
		}
		if err := AddSummarySheet(f, coll, run); err != nil {
			return nil, err
		}
	}
	// Drop the default sheet once real ones exist.
	if len(f.GetSheetList()) > 1 {
		_ = f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildConditionsPDF renders one page per condition with its expression,
// data extent, validity table and any collected errors.
func BuildConditionsPDF(coll *conditions.Collection, run *application.RunResult) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 10)

	for _, cond := range coll.Conditions() {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 8, cond.ID)
		pdf.Ln(10)

		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, fmt.Sprintf("Condition: %s", cond.Raw), "", "L", false)
		pdf.MultiCell(0, 5, fmt.Sprintf("Alias: %s", cond.AliasExpression), "", "L", false)
		pdf.Cell(0, 5, fmt.Sprintf("Window: %s - %s",
			coll.TimeFrom.Format(dateLayout), coll.TimeUntil.Format(dateLayout)))
		pdf.Ln(6)

		result := run.Result(cond.ID)
		if result == nil {
			if err, ok := run.Errors[cond.ID]; ok {
				pdf.SetFont("Arial", "I", 10)
				pdf.MultiCell(0, 5, fmt.Sprintf("Not analyzed: %v", err), "", "L", false)
			}
			continue
		}

		if !result.DataFrom.IsZero() {
			pdf.Cell(0, 5, fmt.Sprintf("Data range: %s - %s",
				result.DataFrom.Format(dateTimeLayout), result.DataUntil.Format(dateTimeLayout)))
		} else {
			pdf.Cell(0, 5, "No data available")
		}
		pdf.Ln(8)

		writeValidityTable(pdf, result.Summary)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValidityTable(pdf *gofpdf.Fpdf, s analysis.Summary) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Valid", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Not valid", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "No data", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(45, 6, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, formatDuration(s.Valid), "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, formatDuration(s.Invalid), "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, formatDuration(s.NoData), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.CellFormat(45, 6, "Share of window", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, fmt.Sprintf("%.2f %%", s.PercentValid*100), "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, fmt.Sprintf("%.2f %%", s.PercentInvalid*100), "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, fmt.Sprintf("%.2f %%", s.PercentNoData*100), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
}

// formatDuration renders a duration as days, hours and minutes.
func formatDuration(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%dd %dh %dmin", days, hours, minutes)
}
