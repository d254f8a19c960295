package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	application "github.com/webbidevaajat/tsatool-app/internal/analysis/application"
	conditions "github.com/webbidevaajat/tsatool-app/internal/conditions/domain"
	observations "github.com/webbidevaajat/tsatool-app/internal/observations/domain"
	"github.com/webbidevaajat/tsatool-app/internal/observations/infrastructure/memory"
)

func buildRun(t *testing.T) (*conditions.Collection, *application.RunResult) {
	t.Helper()
	from := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	coll, err := conditions.NewCollection("tammikuu", from, from.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	if err := coll.Add("site", "ok", "s1122#tila = 8", 4, conditions.DefaultRules()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := coll.Add("site", "rikki", "s1122#tuntematon = 1", 5, conditions.DefaultRules()); err != nil {
		t.Fatalf("add: %v", err)
	}

	source := memory.NewSource()
	source.RegisterSensor("tila", 1)
	for m := 0; m < 120; m += 10 {
		source.AddObservations(1122, 1, observations.Observation{Time: from.Add(time.Duration(m) * time.Minute), Value: 8})
	}
	analyzer, err := application.NewAnalyzer(source, source)
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	run, err := analyzer.Run(context.Background(), coll)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return coll, run
}

func TestBuildSummaryXLSX(t *testing.T) {
	coll, run := buildRun(t)
	data, err := BuildSummaryXLSX([]*conditions.Collection{coll}, map[string]*application.RunResult{coll.Title: run})
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "tammikuu" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	site, err := f.GetCellValue("tammikuu", "A4")
	if err != nil {
		t.Fatalf("get cell: %v", err)
	}
	if site != "site" {
		t.Fatalf("expected site in A4, got %q", site)
	}
	condition, err := f.GetCellValue("tammikuu", "C4")
	if err != nil {
		t.Fatalf("get cell: %v", err)
	}
	if condition != "s1122#tila = 8" {
		t.Fatalf("unexpected condition cell %q", condition)
	}
	// The failed condition carries its error text in the valid column.
	errCell, err := f.GetCellValue("tammikuu", "F5")
	if err != nil {
		t.Fatalf("get cell: %v", err)
	}
	if errCell == "" {
		t.Fatal("expected error text for failed condition")
	}
}

func TestBuildConditionsPDF(t *testing.T) {
	coll, run := buildRun(t)
	data, err := BuildConditionsPDF(coll, run)
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if len(data) == 0 || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected pdf output, got %d bytes", len(data))
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{90 * time.Minute, "0d 1h 30min"},
		{25*time.Hour + 5*time.Minute, "1d 1h 5min"},
		{0, "0d 0h 0min"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.d); got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.d, tc.want, got)
		}
	}
}
