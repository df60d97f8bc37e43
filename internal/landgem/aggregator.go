package landgem

import (
	"fmt"
	"slices"
	"strings"
)

// StreamDefinition describes one registered waste stream.
type StreamDefinition struct {
	// Name is the unique stream identifier (e.g. "msw", "organic").
	Name string

	// Parameters combines the aggregator's shared decay rate and methane
	// fraction with the stream's own generation potential.
	Parameters Parameters
}

// StreamOption configures a stream at registration.
type StreamOption func(*streamConfig)

type streamConfig struct {
	nmoc    float64
	hasNMOC bool
}

// WithStreamNMOCConcentration sets a stream-specific NMOC concentration
// (ppmv), overriding the aggregator default.
func WithStreamNMOCConcentration(ppmv float64) StreamOption {
	return func(c *streamConfig) {
		c.nmoc = ppmv
		c.hasNMOC = true
	}
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithSharedNMOCConcentration sets the NMOC concentration (ppmv) used by
// streams that do not set their own.
func WithSharedNMOCConcentration(ppmv float64) AggregatorOption {
	return func(a *Aggregator) {
		a.nmoc = ppmv
		a.hasNMOC = true
	}
}

// WithStreamDiscretization selects the time discretization for every stream.
func WithStreamDiscretization(d Discretization) AggregatorOption {
	return func(a *Aggregator) {
		a.discretization = d
	}
}

// Aggregator models several waste streams that share a decay rate and
// methane fraction but differ in generation potential.
//
// Register every stream with AddStream before calculating. Once registration
// is complete, calculations are safe for concurrent use; AddStream itself
// must not run concurrently with anything else.
type Aggregator struct {
	decayRate       float64
	methaneFraction float64
	nmoc            float64
	hasNMOC         bool
	discretization  Discretization

	streams map[string]stream
	order   []string
}

type stream struct {
	def    StreamDefinition
	engine *Engine
}

// NewAggregator creates an aggregator with the shared decay rate (1/year) and
// methane fraction. Returns a *ValidationError for invalid settings.
func NewAggregator(decayRate, methaneFraction float64, opts ...AggregatorOption) (*Aggregator, error) {
	a := &Aggregator{
		decayRate:       decayRate,
		methaneFraction: methaneFraction,
		streams:         make(map[string]stream),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := validateDecayRate(decayRate); err != nil {
		return nil, err
	}
	if err := validateMethaneFraction(methaneFraction); err != nil {
		return nil, err
	}
	if a.hasNMOC {
		if err := validateNMOCConcentration("nmoc_concentration", a.nmoc); err != nil {
			return nil, err
		}
	}
	if a.discretization != AnnualDiscretization && a.discretization != TenthYearDiscretization {
		return nil, invalid("discretization", int(a.discretization), "unknown discretization")
	}
	return a, nil
}

// AddStream registers a stream with its generation potential L0 (m³/Mg).
//
// Returns a *ValidationError for an empty name or invalid L0, and a
// *ConfigurationError if the name is already registered.
func (a *Aggregator) AddStream(name string, generationPotential float64, opts ...StreamOption) error {
	if strings.TrimSpace(name) == "" {
		return invalid("stream_name", name, "must not be empty")
	}
	if _, exists := a.streams[name]; exists {
		return misconfigured("streams."+name, "stream is already registered")
	}

	cfg := streamConfig{nmoc: a.nmoc, hasNMOC: a.hasNMOC}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validateGenerationPotential(fmt.Sprintf("streams.%s.generation_potential", name), generationPotential); err != nil {
		return err
	}
	if cfg.hasNMOC {
		if err := validateNMOCConcentration(fmt.Sprintf("streams.%s.nmoc_concentration", name), cfg.nmoc); err != nil {
			return err
		}
	}

	var paramOpts []ParameterOption
	if cfg.hasNMOC {
		paramOpts = append(paramOpts, WithNMOCConcentration(cfg.nmoc))
	}
	params, err := NewParameters(a.decayRate, generationPotential, a.methaneFraction, paramOpts...)
	if err != nil {
		return err
	}
	engine, err := NewEngine(params, WithDiscretization(a.discretization))
	if err != nil {
		return err
	}

	a.streams[name] = stream{
		def:    StreamDefinition{Name: name, Parameters: params},
		engine: engine,
	}
	a.order = append(a.order, name)
	return nil
}

// Streams returns the registered stream definitions in registration order.
func (a *Aggregator) Streams() []StreamDefinition {
	defs := make([]StreamDefinition, 0, len(a.order))
	for _, name := range a.order {
		defs = append(defs, a.streams[name].def)
	}
	return defs
}

// Stream returns the definition registered under name.
func (a *Aggregator) Stream(name string) (StreamDefinition, bool) {
	s, ok := a.streams[name]
	return s.def, ok
}

// CalculateMultiStream computes every stream present in wasteData for one
// year and sums them.
//
// Every key of wasteData must name a registered stream. Registered streams
// missing from wasteData contribute nothing and are left out of the
// breakdown. With IncludeNMOC, each stream with a concentration reports NMOC
// and the total carries NMOC only when every contributing stream does.
func (a *Aggregator) CalculateMultiStream(wasteData map[string]WasteHistory, year int, opts CalculationOptions) (MultiStreamResult, error) {
	if err := a.validate(wasteData, opts); err != nil {
		return MultiStreamResult{}, err
	}
	return a.compute(wasteData, year, opts), nil
}

// CalculateTimeSeries computes a multi-stream projection. Row order and
// cumulative semantics match Engine.CalculateTimeSeries, with cumulative
// columns taken from the stream totals.
func (a *Aggregator) CalculateTimeSeries(wasteData map[string]WasteHistory, years []int, opts ProjectionOptions) (MultiStreamTable, error) {
	if err := a.validate(wasteData, opts.CalculationOptions); err != nil {
		return MultiStreamTable{}, err
	}

	rows := make([]MultiStreamRow, len(years))
	forEachYear(years, opts.Workers, func(i int) {
		rows[i] = MultiStreamRow{
			Year:              years[i],
			MultiStreamResult: a.compute(wasteData, years[i], opts.CalculationOptions),
		}
	})

	ch4 := make([]float64, len(rows))
	lfg := make([]float64, len(rows))
	for i, r := range rows {
		ch4[i] = r.Total.CH4Rate
		lfg[i] = r.Total.TotalLFGRate
	}
	cumCH4 := chronologicalCumSum(years, ch4)
	cumLFG := chronologicalCumSum(years, lfg)
	for i := range rows {
		rows[i].CumulativeCH4 = cumCH4[i]
		rows[i].CumulativeLFG = cumLFG[i]
	}

	names := make([]string, 0, len(wasteData))
	for _, name := range a.order {
		if _, ok := wasteData[name]; ok {
			names = append(names, name)
		}
	}

	logger.Debug().
		Int("years", len(years)).
		Strs("streams", names).
		Int("workers", opts.Workers).
		Msg("multi-stream projection calculated")

	return MultiStreamTable{StreamNames: names, Rows: rows}, nil
}

// validate checks stream names and histories in sorted name order so the
// reported error does not depend on map iteration.
func (a *Aggregator) validate(wasteData map[string]WasteHistory, opts CalculationOptions) error {
	if err := validateEfficiency(opts.CollectionEfficiency); err != nil {
		return err
	}

	names := make([]string, 0, len(wasteData))
	for name := range wasteData {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if _, ok := a.streams[name]; !ok {
			return invalid("stream_name", name, "stream is not registered")
		}
		if err := wasteData[name].Validate(); err != nil {
			return fmt.Errorf("stream %q: %w", name, err)
		}
	}
	return nil
}

// compute assumes validated inputs. Streams are summed in registration order
// so repeated calls give bit-identical totals.
func (a *Aggregator) compute(wasteData map[string]WasteHistory, year int, opts CalculationOptions) MultiStreamResult {
	result := MultiStreamResult{
		Streams: make(map[string]EmissionResult, len(wasteData)),
	}
	total := &result.Total
	allHaveNMOC := true

	for _, name := range a.order {
		history, ok := wasteData[name]
		if !ok {
			continue
		}
		s := a.streams[name]

		streamOpts := opts
		if _, has := s.def.Parameters.NMOCConcentration(); !has {
			streamOpts.IncludeNMOC = false
			allHaveNMOC = false
		}
		r := s.engine.compute(history, year, streamOpts)
		result.Streams[name] = r

		total.CH4Rate += r.CH4Rate
		total.TotalLFGRate += r.TotalLFGRate
		total.CO2Rate += r.CO2Rate
		total.CollectedCH4Rate += r.CollectedCH4Rate
		total.CollectedLFGRate += r.CollectedLFGRate
		total.NMOCRate += r.NMOCRate
	}

	total.HasCollection = opts.CollectionEfficiency > 0
	if opts.IncludeNMOC && allHaveNMOC {
		total.HasNMOC = true
	} else {
		total.NMOCRate = 0
	}
	return result
}
