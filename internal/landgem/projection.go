package landgem

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// CalculateTimeSeries computes one row per year in years, against the same
// history each time.
//
// Rows keep the order of years. Cumulative columns are running totals in
// ascending year order regardless of that order: for years [2026, 2025, 2027]
// the 2025 row holds only its own rate and the 2027 row holds all three.
// Repeated years each contribute, in the order they were given.
//
// Inputs are validated once before any row is computed; on error no table is
// returned. An empty years slice yields an empty table.
func (e *Engine) CalculateTimeSeries(history WasteHistory, years []int, opts ProjectionOptions) (ProjectionTable, error) {
	if err := e.validate(history, opts.CalculationOptions); err != nil {
		return ProjectionTable{}, err
	}

	rows := make([]ProjectionRow, len(years))
	forEachYear(years, opts.Workers, func(i int) {
		rows[i] = ProjectionRow{
			Year:           years[i],
			EmissionResult: e.compute(history, years[i], opts.CalculationOptions),
		}
	})

	ch4 := make([]float64, len(rows))
	lfg := make([]float64, len(rows))
	for i, r := range rows {
		ch4[i] = r.CH4Rate
		lfg[i] = r.TotalLFGRate
	}
	cumCH4 := chronologicalCumSum(years, ch4)
	cumLFG := chronologicalCumSum(years, lfg)
	for i := range rows {
		rows[i].CumulativeCH4 = cumCH4[i]
		rows[i].CumulativeLFG = cumLFG[i]
	}

	logger.Debug().
		Int("years", len(years)).
		Int("deposits", len(history)).
		Int("workers", opts.Workers).
		Str("discretization", e.discretization.String()).
		Msg("projection calculated")

	return ProjectionTable{Rows: rows}, nil
}

// CalculateTimeSeries computes a projection with annual discretization. See
// Engine.CalculateTimeSeries.
func CalculateTimeSeries(history WasteHistory, params Parameters, years []int, opts ProjectionOptions) (ProjectionTable, error) {
	e, err := NewEngine(params)
	if err != nil {
		return ProjectionTable{}, err
	}
	return e.CalculateTimeSeries(history, years, opts)
}

// Peak returns the row with the highest methane rate. The earliest row wins
// a tie. ok is false for an empty table.
func (t ProjectionTable) Peak() (row ProjectionRow, ok bool) {
	for i, r := range t.Rows {
		if i == 0 || r.CH4Rate > row.CH4Rate {
			row = r
		}
	}
	return row, len(t.Rows) > 0
}

// HasNMOC reports whether the table carries NMOC rates.
func (t ProjectionTable) HasNMOC() bool {
	return len(t.Rows) > 0 && t.Rows[0].HasNMOC
}

// HasCollection reports whether the table carries collected volumes.
func (t ProjectionTable) HasCollection() bool {
	return len(t.Rows) > 0 && t.Rows[0].HasCollection
}

// forEachYear calls fn for every index of years. With workers > 1 the calls
// run on up to workers goroutines; fn must only write to its own index.
func forEachYear(years []int, workers int, fn func(i int)) {
	if workers <= 1 || len(years) < 2 {
		for i := range years {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range years {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// chronologicalCumSum returns, for each position of rates, the running total
// of rates taken in ascending order of years. Equal years keep input order.
func chronologicalCumSum(years []int, rates []float64) []float64 {
	order := make([]int, len(years))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(years[a], years[b])
	})

	sorted := make([]float64, len(order))
	for pos, idx := range order {
		sorted[pos] = rates[idx]
	}
	cumulative := floats.CumSum(make([]float64, len(sorted)), sorted)

	out := make([]float64, len(order))
	for pos, idx := range order {
		out[idx] = cumulative[pos]
	}
	return out
}
