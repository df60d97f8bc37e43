// Package landgem estimates landfill gas generation from waste acceptance
// history using the EPA LandGEM first-order decay methodology.
package landgem

// EmissionResult contains the gas generation rates for one target year.
// Volumes are in m³/year and NMOC is in Mg/year.
type EmissionResult struct {
	// CH4Rate is the methane generation rate.
	CH4Rate float64

	// TotalLFGRate is the total landfill gas generation rate (CH4Rate / methane fraction).
	TotalLFGRate float64

	// CO2Rate is the carbon dioxide generation rate (TotalLFGRate - CH4Rate).
	CO2Rate float64

	// NMOCRate is the non-methane organic compound mass rate. Only meaningful when HasNMOC is true.
	NMOCRate float64

	// HasNMOC reports whether NMOC was requested and computed.
	HasNMOC bool

	// CollectedCH4Rate is the methane captured by the collection system.
	// Only meaningful when HasCollection is true.
	CollectedCH4Rate float64

	// CollectedLFGRate is the landfill gas captured by the collection system.
	// Only meaningful when HasCollection is true.
	CollectedLFGRate float64

	// HasCollection reports whether a collection efficiency > 0 was applied.
	HasCollection bool
}

// CalculationOptions controls the optional outputs of a single-year calculation.
type CalculationOptions struct {
	// CollectionEfficiency is the fraction of generated gas captured (0.0 to 1.0, default: 0).
	CollectionEfficiency float64

	// IncludeNMOC requests the NMOC mass rate. Requires an NMOC concentration.
	IncludeNMOC bool
}

// ProjectionOptions controls a multi-year projection.
type ProjectionOptions struct {
	CalculationOptions

	// Workers is the number of years computed concurrently. Values <= 1 compute sequentially.
	Workers int
}

// ProjectionRow is one year of a projection table.
type ProjectionRow struct {
	Year int
	EmissionResult

	// CumulativeCH4 is the running methane total over all table years up to this one, chronologically.
	CumulativeCH4 float64

	// CumulativeLFG is the running landfill gas total over all table years up to this one, chronologically.
	CumulativeLFG float64
}

// ProjectionTable holds one row per requested year, in the order the years
// were requested.
type ProjectionTable struct {
	Rows []ProjectionRow
}

// MultiStreamResult is the outcome of a multi-stream calculation for one year.
type MultiStreamResult struct {
	// Total sums every contributing stream.
	Total EmissionResult

	// Streams holds the per-stream results for streams present in the input.
	Streams map[string]EmissionResult
}

// MultiStreamRow is one year of a multi-stream projection table.
type MultiStreamRow struct {
	Year int
	MultiStreamResult
	CumulativeCH4 float64
	CumulativeLFG float64
}

// MultiStreamTable holds one row per requested year in request order.
// StreamNames lists the streams that appear in any row, in registration order.
type MultiStreamTable struct {
	StreamNames []string
	Rows        []MultiStreamRow
}
