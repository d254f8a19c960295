// Package metrics registers the Prometheus instrumentation of the analysis
// service.
package metrics

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "tsa_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	conditionsParsed *prometheus.CounterVec

	analysisRuns    *prometheus.CounterVec
	analysisLatency prometheus.Histogram

	conditionsEvaluated *prometheus.CounterVec
	intervalFetches     *prometheus.CounterVec
	intervalLatency     prometheus.Histogram
)

// Init registers the metrics once. Safe to call from multiple entry points.
func Init(logger *log.Logger) {
	registerOnce.Do(func() {
		conditionsParsed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "conditions_parsed_total",
				Help: "Total condition rows parsed by result",
			},
			[]string{"result"},
		)
		analysisRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analysis_runs_total",
				Help: "Total collection analysis runs by result",
			},
			[]string{"result"},
		)
		analysisLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analysis_duration_seconds",
				Help:    "Collection analysis wall time",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		)
		conditionsEvaluated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "conditions_evaluated_total",
				Help: "Total conditions evaluated by result",
			},
			[]string{"result"},
		)
		intervalFetches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "interval_fetches_total",
				Help: "Total block interval fetches from the store by result",
			},
			[]string{"result"},
		)
		intervalLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "interval_fetch_duration_seconds",
				Help:    "Block interval fetch latency",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		)

		collectors := []prometheus.Collector{
			conditionsParsed,
			analysisRuns,
			analysisLatency,
			conditionsEvaluated,
			intervalFetches,
			intervalLatency,
		}
		for _, c := range collectors {
			if err := prometheus.Register(c); err != nil {
				if logger != nil {
					logger.Printf("metrics register error: %v", err)
				}
			}
		}
	})
}

func resultLabel(ok bool) string {
	if ok {
		return resultSuccess
	}
	return resultError
}

// IncConditionParsed counts one parsed condition row.
func IncConditionParsed(ok bool) {
	if conditionsParsed != nil {
		conditionsParsed.WithLabelValues(resultLabel(ok)).Inc()
	}
}

// ObserveAnalysisRun counts one collection run and its duration.
func ObserveAnalysisRun(ok bool, elapsed time.Duration) {
	if analysisRuns != nil {
		analysisRuns.WithLabelValues(resultLabel(ok)).Inc()
	}
	if analysisLatency != nil {
		analysisLatency.Observe(elapsed.Seconds())
	}
}

// IncConditionEvaluated counts one evaluated condition.
func IncConditionEvaluated(ok bool) {
	if conditionsEvaluated != nil {
		conditionsEvaluated.WithLabelValues(resultLabel(ok)).Inc()
	}
}

// ObserveIntervalFetch counts one store fetch and its latency.
func ObserveIntervalFetch(ok bool, elapsed time.Duration) {
	if intervalFetches != nil {
		intervalFetches.WithLabelValues(resultLabel(ok)).Inc()
	}
	if intervalLatency != nil {
		intervalLatency.Observe(elapsed.Seconds())
	}
}
