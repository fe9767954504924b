// Package optimize runs a simulation function over a Cartesian
// parameter grid and collects the performance payload of every
// combination for ranking and summary statistics.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/portsim/internal/id"
	"github.com/rustyeddy/portsim/portfolio"
)

// ErrNotOptimized is returned by result accessors before Run.
var ErrNotOptimized = errors.New("optimizer has not run")

// SimFunc runs one simulation for a parameter point. Invocations must
// be independent: each call builds its own simulator and history over
// shared read-only inputs, so the search can fan out across workers.
type SimFunc func(Params) (portfolio.Payload, error)

// Result pairs one parameter combination with its payload.
type Result struct {
	RunID       string
	Params      Params
	Performance portfolio.Payload
}

// Flat merges parameters and metrics into one row. Safe only after
// the collision check in Run.
func (r Result) Flat() map[string]float64 {
	flat := make(map[string]float64, len(r.Params)+len(r.Performance))
	for k, v := range r.Params {
		flat[k] = v
	}
	for k, v := range r.Performance {
		flat[k] = v
	}
	return flat
}

// GridSearch enumerates a grid, invokes the simulation function once
// per combination, and stores results in grid enumeration order
// regardless of completion order.
type GridSearch struct {
	simulate SimFunc
	workers  int

	paramNames []string
	results    []Result
	finished   bool
}

// NewGridSearch wraps a simulation function. Workers defaults to 1;
// combinations are mutually independent, so any worker count is safe.
func NewGridSearch(simulate SimFunc) *GridSearch {
	return &GridSearch{simulate: simulate, workers: 1}
}

// SetWorkers bounds the number of concurrent simulations.
func (gs *GridSearch) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	gs.workers = n
}

// Run executes the full sweep. Any failing combination aborts the
// whole search: a partial sweep would silently skew every aggregate
// statistic, so nothing is reported unless every combination ran.
func (gs *GridSearch) Run(ctx context.Context, grid *Grid) error {
	if err := grid.validate(); err != nil {
		return err
	}

	n := grid.Size()
	results := make([]Result, n)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(gs.workers)

	for ordinal := 0; ordinal < n; ordinal++ {
		ordinal := ordinal
		params := grid.combination(ordinal)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			payload, err := gs.simulate(params)
			if err != nil {
				return fmt.Errorf("combination %v: %w", map[string]float64(params), err)
			}
			for name := range params {
				if _, ok := payload[name]; ok {
					return fmt.Errorf("%w: %q", ErrNameCollision, name)
				}
			}
			results[ordinal] = Result{
				RunID:       id.New(),
				Params:      params,
				Performance: payload,
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	gs.paramNames = grid.Names()
	gs.results = results
	gs.finished = true
	return nil
}

// Results returns all results in grid enumeration order.
func (gs *GridSearch) Results() ([]Result, error) {
	if !gs.finished {
		return nil, ErrNotOptimized
	}
	return append([]Result(nil), gs.results...), nil
}

// MetricNames lists the payload metric names observed across results.
func (gs *GridSearch) MetricNames() ([]string, error) {
	if !gs.finished {
		return nil, ErrNotOptimized
	}
	seen := make(map[string]bool)
	var names []string
	for _, r := range gs.results {
		for k := range r.Performance {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Best ranks results by a performance metric, descending. The sort is
// stable, so equal scores keep grid order. NaN scores sink to the
// bottom.
func (gs *GridSearch) Best(metric string) ([]Result, error) {
	if !gs.finished {
		return nil, ErrNotOptimized
	}
	if len(gs.results) > 0 {
		if _, ok := gs.results[0].Performance[metric]; !ok {
			return nil, fmt.Errorf("optimize: %q is not a performance metric", metric)
		}
	}

	ranked := append([]Result(nil), gs.results...)
	sort.SliceStable(ranked, func(a, b int) bool {
		va, vb := ranked[a].Performance[metric], ranked[b].Performance[metric]
		if math.IsNaN(vb) {
			return !math.IsNaN(va)
		}
		if math.IsNaN(va) {
			return false
		}
		return va > vb
	})
	return ranked, nil
}

// Stats summarizes one metric across all runs.
type Stats struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

// Summary computes per-metric statistics over all results, skipping
// NaN observations.
func (gs *GridSearch) Summary() (map[string]Stats, error) {
	names, err := gs.MetricNames()
	if err != nil {
		return nil, err
	}

	summary := make(map[string]Stats, len(names))
	for _, name := range names {
		var values []float64
		for _, r := range gs.results {
			if v, ok := r.Performance[name]; ok && !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		summary[name] = describe(values)
	}
	return summary, nil
}

func describe(values []float64) Stats {
	s := Stats{Count: len(values), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), Std: math.NaN()}
	if len(values) == 0 {
		return s
	}

	s.Min, s.Max = values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(values))

	if len(values) > 1 {
		var sumSquares float64
		for _, v := range values {
			sumSquares += (v - s.Mean) * (v - s.Mean)
		}
		s.Std = math.Sqrt(sumSquares / float64(len(values)-1))
	}
	return s
}
