// Package application orchestrates condition evaluation: it schedules
// conditions in dependency order, fetches block timelines from the
// observation store, and isolates per-condition failures.
package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	analysis "github.com/webbidevaajat/tsatool-app/internal/analysis/domain"
	conditions "github.com/webbidevaajat/tsatool-app/internal/conditions/domain"
	"github.com/webbidevaajat/tsatool-app/internal/observability/metrics"
	observations "github.com/webbidevaajat/tsatool-app/internal/observations/domain"
)

// UnresolvedReferenceError reports a secondary block naming a condition
// that is not present in the collection or whose evaluation failed.
type UnresolvedReferenceError struct {
	ConditionID string
	ReferenceID string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("condition %s references %s, which is not available", e.ConditionID, e.ReferenceID)
}

// CyclicReferenceError reports a condition stuck in a reference cycle.
type CyclicReferenceError struct {
	ConditionID string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("condition %s is part of a reference cycle", e.ConditionID)
}

// StoreError wraps an observation store failure with block context.
type StoreError struct {
	ConditionID string
	BlockAlias  string
	Err         error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("condition %s, block %s: %v", e.ConditionID, e.BlockAlias, e.Err)
}

// Unwrap exposes the store error for errors.Is/As.
func (e *StoreError) Unwrap() error { return e.Err }

// Analyzer evaluates condition collections against an observation store.
type Analyzer struct {
	source  observations.IntervalSource
	sensors observations.SensorResolver
	gap     time.Duration
	logger  *log.Logger
}

// Option customizes the analyzer.
type Option func(*Analyzer)

// WithGapTolerance overrides the interval merge gap tolerance.
func WithGapTolerance(gap time.Duration) Option {
	return func(a *Analyzer) {
		if gap > 0 {
			a.gap = gap
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer constructs an analyzer.
func NewAnalyzer(source observations.IntervalSource, sensors observations.SensorResolver, opts ...Option) (*Analyzer, error) {
	if source == nil {
		return nil, errors.New("analyzer: nil interval source")
	}
	if sensors == nil {
		return nil, errors.New("analyzer: nil sensor resolver")
	}
	a := &Analyzer{
		source:  source,
		sensors: sensors,
		gap:     observations.DefaultGapTolerance,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// RunResult carries per-condition results and per-condition failures of one
// collection run. A failed condition never blocks its siblings; only
// conditions depending on it inherit the failure as an unresolved
// reference.
type RunResult struct {
	Results map[string]*analysis.Result
	Errors  map[string]error
	// Order is the dependency-sorted evaluation order over condition ids.
	Order []string
}

// Result returns the result for a condition id, nil when it failed.
func (r *RunResult) Result(id string) *analysis.Result { return r.Results[id] }

// Run evaluates every condition of the collection over its analysis
// window. Conditions are scheduled by an explicit dependency sort with
// cycle rejection; conditions within one dependency level run
// concurrently, and blocks of a single condition are fetched concurrently.
func (a *Analyzer) Run(ctx context.Context, coll *conditions.Collection) (*RunResult, error) {
	if coll == nil {
		return nil, errors.New("analyzer: nil collection")
	}
	window, err := analysis.NewWindow(coll.TimeFrom, coll.TimeUntil)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	run := &RunResult{
		Results: make(map[string]*analysis.Result, coll.Len()),
		Errors:  make(map[string]error),
	}

	levels := a.schedule(coll, run)

	var mu sync.Mutex
	for _, level := range levels {
		var wg sync.WaitGroup
		for _, cond := range level {
			wg.Add(1)
			go func(cond *conditions.Condition) {
				defer wg.Done()

				mu.Lock()
				missing := firstMissingReference(cond, run)
				mu.Unlock()
				if missing != "" {
					mu.Lock()
					run.Errors[cond.ID] = &UnresolvedReferenceError{ConditionID: cond.ID, ReferenceID: missing}
					mu.Unlock()
					metrics.IncConditionEvaluated(false)
					return
				}

				result, err := a.evaluateCondition(ctx, cond, window, run, &mu)
				mu.Lock()
				if err != nil {
					run.Errors[cond.ID] = err
					a.logger.Printf("condition %s failed: %v", cond.ID, err)
				} else {
					run.Results[cond.ID] = result
				}
				mu.Unlock()
				metrics.IncConditionEvaluated(err == nil)
			}(cond)
		}
		wg.Wait()
	}

	metrics.ObserveAnalysisRun(len(run.Errors) == 0, time.Since(started))
	a.logger.Printf("analyzed collection %q: %d conditions, %d failed in %s",
		coll.Title, coll.Len(), len(run.Errors), time.Since(started).Round(time.Millisecond))
	return run, nil
}

// schedule layers the conditions so that every condition appears after all
// conditions it references. Unresolved references and cycles are recorded
// into the run errors and the affected conditions are left out of the
// returned levels.
func (a *Analyzer) schedule(coll *conditions.Collection, run *RunResult) [][]*conditions.Condition {
	conds := coll.Conditions()
	indegree := make(map[string]int, len(conds))
	dependents := make(map[string][]string, len(conds))

	for _, cond := range conds {
		indegree[cond.ID] = 0
	}
	for _, cond := range conds {
		for _, ref := range cond.References() {
			if _, ok := coll.Get(ref); !ok {
				run.Errors[cond.ID] = &UnresolvedReferenceError{ConditionID: cond.ID, ReferenceID: ref}
				continue
			}
			if ref == cond.ID {
				run.Errors[cond.ID] = &CyclicReferenceError{ConditionID: cond.ID}
				continue
			}
			indegree[cond.ID]++
			dependents[ref] = append(dependents[ref], cond.ID)
		}
	}

	var levels [][]*conditions.Condition
	current := make([]*conditions.Condition, 0, len(conds))
	scheduled := make(map[string]bool, len(conds))
	for _, cond := range conds {
		if indegree[cond.ID] == 0 {
			if _, failed := run.Errors[cond.ID]; failed {
				continue
			}
			current = append(current, cond)
		}
	}
	for len(current) > 0 {
		levels = append(levels, current)
		var next []*conditions.Condition
		for _, cond := range current {
			scheduled[cond.ID] = true
			for _, dep := range dependents[cond.ID] {
				indegree[dep]--
				if indegree[dep] == 0 {
					if c, ok := coll.Get(dep); ok {
						next = append(next, c)
					}
				}
			}
		}
		current = next
	}

	for _, cond := range conds {
		if scheduled[cond.ID] {
			continue
		}
		if _, reported := run.Errors[cond.ID]; reported {
			continue
		}
		run.Errors[cond.ID] = &CyclicReferenceError{ConditionID: cond.ID}
	}
	for _, level := range levels {
		for _, cond := range level {
			run.Order = append(run.Order, cond.ID)
		}
	}
	return levels
}

// firstMissingReference reports the first referenced condition without a
// completed result, "" when all are available.
func firstMissingReference(cond *conditions.Condition, run *RunResult) string {
	for _, ref := range cond.References() {
		if _, ok := run.Results[ref]; !ok {
			return ref
		}
	}
	return ""
}

func (a *Analyzer) evaluateCondition(ctx context.Context, cond *conditions.Condition, window analysis.Window, run *RunResult, mu *sync.Mutex) (*analysis.Result, error) {
	expr, err := analysis.Compile(cond.AliasTokens())
	if err != nil {
		return nil, err
	}

	timelines := make([]analysis.BlockIntervals, len(cond.Blocks))
	g, gctx := errgroup.WithContext(ctx)
	for i, block := range cond.Blocks {
		i, block := i, block
		g.Go(func() error {
			intervals, err := a.blockIntervals(gctx, cond, block, window, run, mu)
			if err != nil {
				return err
			}
			timelines[i] = analysis.BlockIntervals{Alias: block.Alias, Intervals: intervals}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices := analysis.Reconcile(window, timelines)
	return analysis.NewResult(cond.ID, window, slices, expr), nil
}

func (a *Analyzer) blockIntervals(ctx context.Context, cond *conditions.Condition, block *conditions.Block, window analysis.Window, run *RunResult, mu *sync.Mutex) ([]analysis.Interval, error) {
	if block.Secondary {
		mu.Lock()
		source, ok := run.Results[block.SourceID()]
		mu.Unlock()
		if !ok {
			return nil, &UnresolvedReferenceError{ConditionID: cond.ID, ReferenceID: block.SourceID()}
		}
		return source.MasterIntervals(), nil
	}

	sensorID, err := a.sensors.ResolveSensorID(ctx, block.Sensor)
	if err != nil {
		return nil, &StoreError{ConditionID: cond.ID, BlockAlias: block.Alias, Err: err}
	}

	started := time.Now()
	fetched, err := a.source.Intervals(ctx, observations.IntervalQuery{
		StationID:    block.StationID,
		SensorID:     sensorID,
		Operator:     block.Operator,
		Value:        block.Value,
		From:         window.From,
		Until:        window.Until,
		GapTolerance: a.gap,
	})
	metrics.ObserveIntervalFetch(err == nil, time.Since(started))
	if err != nil {
		return nil, &StoreError{ConditionID: cond.ID, BlockAlias: block.Alias, Err: err}
	}

	intervals := make([]analysis.Interval, len(fetched))
	for i, iv := range fetched {
		intervals[i] = analysis.Interval{From: iv.From, Until: iv.Until, Value: iv.Value}
	}
	return intervals, nil
}
