package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	application "github.com/webbidevaajat/tsatool-app/internal/analysis/application"
	apihttp "github.com/webbidevaajat/tsatool-app/internal/api/http"
	"github.com/webbidevaajat/tsatool-app/internal/auth"
	conditions "github.com/webbidevaajat/tsatool-app/internal/conditions/domain"
	"github.com/webbidevaajat/tsatool-app/internal/config"
	"github.com/webbidevaajat/tsatool-app/internal/ingest/excel"
	"github.com/webbidevaajat/tsatool-app/internal/observability/metrics"
	obspostgres "github.com/webbidevaajat/tsatool-app/internal/observations/infrastructure/postgres"
	"github.com/webbidevaajat/tsatool-app/internal/report"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	inputPath := flag.String("input", "", "condition workbook to analyze; when set the program runs once and exits")
	outputName := flag.String("name", "analysis", "base name for the result files in batch mode")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(logger)

	store := obspostgres.NewStore(db)
	reserved, err := store.ReservedIdentifiers(context.Background())
	if err != nil {
		logger.Printf("reserved identifier lookup error: %v", err)
	}
	rules := cfg.Rules(reserved)

	analyzer, err := application.NewAnalyzer(store, store,
		application.WithGapTolerance(cfg.GapTolerance()),
		application.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("analyzer error: %v", err)
	}

	if *inputPath != "" {
		if err := runBatch(context.Background(), analyzer, rules, cfg.OutputDir, *inputPath, *outputName, logger); err != nil {
			logger.Fatalf("batch run error: %v", err)
		}
		return
	}

	if cfg.JWTSecret == "" {
		logger.Fatal("AUTH_JWT_SECRET is required in server mode")
	}

	analysisHandler, err := apihttp.NewAnalysisHandler(analyzer, rules, logger)
	if err != nil {
		logger.Fatalf("analysis handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/analyses", analysisHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

// runBatch reads a workbook, analyzes every sheet and writes the summary
// workbook plus a per-collection pdf report into the output directory.
func runBatch(ctx context.Context, analyzer *application.Analyzer, rules conditions.Rules, outputDir, inputPath, name string, logger *log.Logger) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	colls, err := excel.ReadWorkbook(file, rules)
	if err != nil {
		return err
	}

	runs := make(map[string]*application.RunResult, len(colls))
	for _, coll := range colls {
		logger.Printf("analyzing collection %q: %d conditions, %s .. %s",
			coll.Title, coll.Len(), coll.TimeFrom.Format(time.RFC3339), coll.TimeUntil.Format(time.RFC3339))
		for _, rowErr := range coll.Errors {
			logger.Printf("collection %q: %v", coll.Title, rowErr)
		}
		run, err := analyzer.Run(ctx, coll)
		if err != nil {
			return err
		}
		for id, condErr := range run.Errors {
			logger.Printf("condition %s: %v", id, condErr)
		}
		runs[coll.Title] = run
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	xlsx, err := report.BuildSummaryXLSX(colls, runs)
	if err != nil {
		return err
	}
	xlsxPath := filepath.Join(outputDir, name+".xlsx")
	if err := os.WriteFile(xlsxPath, xlsx, 0o644); err != nil {
		return err
	}
	logger.Printf("wrote %s", xlsxPath)

	for _, coll := range colls {
		pdf, err := report.BuildConditionsPDF(coll, runs[coll.Title])
		if err != nil {
			return err
		}
		pdfPath := filepath.Join(outputDir, name+"_"+sanitizeFileName(coll.Title)+".pdf")
		if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
			return err
		}
		logger.Printf("wrote %s", pdfPath)
	}
	return nil
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
