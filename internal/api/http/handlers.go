// Package apihttp serves the analysis HTTP API.
package apihttp

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	application "github.com/webbidevaajat/tsatool-app/internal/analysis/application"
	conditions "github.com/webbidevaajat/tsatool-app/internal/conditions/domain"
	"github.com/webbidevaajat/tsatool-app/internal/ingest/excel"
	"github.com/webbidevaajat/tsatool-app/internal/report"
)

const maxWorkbookBytes = 16 << 20

// AnalysisHandler accepts a condition workbook upload, runs the analysis
// and returns the summaries.
type AnalysisHandler struct {
	analyzer *application.Analyzer
	rules    conditions.Rules
	logger   *log.Logger
}

// NewAnalysisHandler constructs an AnalysisHandler.
func NewAnalysisHandler(analyzer *application.Analyzer, rules conditions.Rules, logger *log.Logger) (*AnalysisHandler, error) {
	if analyzer == nil {
		return nil, errors.New("analysis handler: nil analyzer")
	}
	if logger == nil {
		return nil, errors.New("analysis handler: nil logger")
	}
	return &AnalysisHandler{analyzer: analyzer, rules: rules, logger: logger}, nil
}

type conditionResponse struct {
	ID              string  `json:"id"`
	Site            string  `json:"site"`
	MasterAlias     string  `json:"master_alias"`
	Condition       string  `json:"condition"`
	AliasExpression string  `json:"alias_expression"`
	Error           string  `json:"error,omitempty"`
	DataFrom        string  `json:"data_from,omitempty"`
	DataUntil       string  `json:"data_until,omitempty"`
	ValidSeconds    float64 `json:"valid_seconds"`
	InvalidSeconds  float64 `json:"invalid_seconds"`
	NoDataSeconds   float64 `json:"nodata_seconds"`
	PercentValid    float64 `json:"percent_valid"`
	PercentInvalid  float64 `json:"percent_invalid"`
	PercentNoData   float64 `json:"percent_nodata"`
}

type collectionResponse struct {
	Title      string              `json:"title"`
	TimeFrom   time.Time           `json:"time_from"`
	TimeUntil  time.Time           `json:"time_until"`
	RowErrors  []string            `json:"row_errors,omitempty"`
	Conditions []conditionResponse `json:"conditions"`
}

// ServeHTTP handles POST /api/v1/analyses. The workbook travels as the
// multipart field "workbook" or as the raw request body; ?format=xlsx
// returns the summary workbook instead of JSON.
func (h *AnalysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.analyzer == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	body, err := workbookBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	colls, err := excel.ReadWorkbook(body, h.rules)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runs := make(map[string]*application.RunResult, len(colls))
	for _, coll := range colls {
		run, err := h.analyzer.Run(r.Context(), coll)
		if err != nil {
			h.logger.Printf("analysis run error: %v", err)
			http.Error(w, "analysis error", http.StatusInternalServerError)
			return
		}
		runs[coll.Title] = run
	}

	if r.URL.Query().Get("format") == "xlsx" {
		out, err := report.BuildSummaryXLSX(colls, runs)
		if err != nil {
			h.logger.Printf("summary workbook error: %v", err)
			http.Error(w, "report error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="analysis.xlsx"`)
		_, _ = w.Write(out)
		return
	}

	response := make([]collectionResponse, 0, len(colls))
	for _, coll := range colls {
		response = append(response, buildCollectionResponse(coll, runs[coll.Title]))
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Printf("encode response error: %v", err)
	}
}

func workbookBody(r *http.Request) (io.Reader, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxWorkbookBytes); err != nil {
			return nil, errors.New("cannot parse multipart form")
		}
		file, _, err := r.FormFile("workbook")
		if err != nil {
			return nil, errors.New(`multipart field "workbook" is required`)
		}
		return file, nil
	}
	return io.LimitReader(r.Body, maxWorkbookBytes), nil
}

func buildCollectionResponse(coll *conditions.Collection, run *application.RunResult) collectionResponse {
	resp := collectionResponse{
		Title:     coll.Title,
		TimeFrom:  coll.TimeFrom,
		TimeUntil: coll.TimeUntil,
	}
	for _, rowErr := range coll.Errors {
		resp.RowErrors = append(resp.RowErrors, rowErr.Error())
	}
	for _, cond := range coll.Conditions() {
		c := conditionResponse{
			ID:              cond.ID,
			Site:            cond.Site,
			MasterAlias:     cond.MasterAlias,
			Condition:       cond.Raw,
			AliasExpression: cond.AliasExpression,
		}
		if result := run.Result(cond.ID); result != nil {
			if !result.DataFrom.IsZero() {
				c.DataFrom = result.DataFrom.Format(time.RFC3339)
				c.DataUntil = result.DataUntil.Format(time.RFC3339)
			}
			c.ValidSeconds = result.Summary.Valid.Seconds()
			c.InvalidSeconds = result.Summary.Invalid.Seconds()
			c.NoDataSeconds = result.Summary.NoData.Seconds()
			c.PercentValid = result.Summary.PercentValid
			c.PercentInvalid = result.Summary.PercentInvalid
			c.PercentNoData = result.Summary.PercentNoData
		} else if err, ok := run.Errors[cond.ID]; ok {
			c.Error = err.Error()
		}
		resp.Conditions = append(resp.Conditions, c)
	}
	return resp
}
