// Package excel reads condition workbooks: one collection per sheet, the
// analysis window in fixed cells and condition rows below.
package excel

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	conditions "github.com/webbidevaajat/tsatool-app/internal/conditions/domain"
	"github.com/webbidevaajat/tsatool-app/internal/observability/metrics"
)

// Sheet layout: start and end dates in A2 and B2, condition rows from row 4
// with site in column A, master alias in B and the raw condition in C.
// Columns outside A:C are ignored.
const (
	cellTimeFrom      = "A2"
	cellTimeUntil     = "B2"
	firstConditionRow = 4
)

var dateLayouts = []string{"2.1.2006", "02.01.2006", "2006-01-02", "01-02-06", "1/2/06"}

// ReadWorkbook parses every sheet of an xlsx workbook into a collection.
// Rows that fail to parse are collected into the collection's error list; a
// sheet with an unusable window fails the whole read since nothing on it
// can be analyzed.
func ReadWorkbook(r io.Reader, rules conditions.Rules) ([]*conditions.Collection, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excel: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel: workbook has no sheets")
	}

	collections := make([]*conditions.Collection, 0, len(sheets))
	for _, sheet := range sheets {
		coll, err := readSheet(f, sheet, rules)
		if err != nil {
			return nil, fmt.Errorf("excel: sheet %q: %w", sheet, err)
		}
		collections = append(collections, coll)
	}
	return collections, nil
}

func readSheet(f *excelize.File, sheet string, rules conditions.Rules) (*conditions.Collection, error) {
	fromText, err := f.GetCellValue(sheet, cellTimeFrom)
	if err != nil {
		return nil, err
	}
	untilText, err := f.GetCellValue(sheet, cellTimeUntil)
	if err != nil {
		return nil, err
	}

	from, err := parseDate(fromText)
	if err != nil {
		return nil, fmt.Errorf("cannot parse start date in cell %s: %w", cellTimeFrom, err)
	}
	until, err := parseDate(untilText)
	if err != nil {
		return nil, fmt.Errorf("cannot parse end date in cell %s: %w", cellTimeUntil, err)
	}
	if from.After(until) {
		return nil, fmt.Errorf("start date %s is after end date %s", fromText, untilText)
	}

	// Dates span whole days: the window runs from midnight of the first day
	// to the end of the last day, half-open.
	coll, err := conditions.NewCollection(sheet, from, until.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	for row := firstConditionRow; ; row++ {
		site, err := f.GetCellValue(sheet, fmt.Sprintf("A%d", row))
		if err != nil {
			return nil, err
		}
		masterAlias, err := f.GetCellValue(sheet, fmt.Sprintf("B%d", row))
		if err != nil {
			return nil, err
		}
		raw, err := f.GetCellValue(sheet, fmt.Sprintf("C%d", row))
		if err != nil {
			return nil, err
		}

		site, masterAlias, raw = strings.TrimSpace(site), strings.TrimSpace(masterAlias), strings.TrimSpace(raw)
		if site == "" && masterAlias == "" && raw == "" {
			break
		}
		if site == "" || masterAlias == "" || raw == "" {
			coll.Errors = append(coll.Errors, conditions.RowError{
				Row: row,
				Err: errors.New("row has empty cells and was ignored"),
			})
			continue
		}
		// Add records its own failures in coll.Errors.
		err = coll.Add(site, masterAlias, raw, row, rules)
		metrics.IncConditionParsed(err == nil)
	}
	return coll, nil
}

func parseDate(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, errors.New("cell is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", trimmed)
}
