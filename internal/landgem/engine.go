package landgem

import (
	"fmt"
	"math"
	"strings"
)

// EmissionCalculator computes landfill gas generation for a waste history.
type EmissionCalculator interface {
	// CalculateEmissions returns the generation rates for targetYear.
	CalculateEmissions(history WasteHistory, targetYear int, opts CalculationOptions) (EmissionResult, error)
}

// Discretization selects how an annual deposit is split in time.
type Discretization int

const (
	// AnnualDiscretization treats each deposit as a single point mass placed
	// at the start of its acceptance year.
	AnnualDiscretization Discretization = iota

	// TenthYearDiscretization splits each deposit into ten 0.1-year sections,
	// as the EPA LandGEM spreadsheet does.
	TenthYearDiscretization
)

// String returns the configuration name of d.
func (d Discretization) String() string {
	switch d {
	case AnnualDiscretization:
		return "annual"
	case TenthYearDiscretization:
		return "tenth"
	}
	return fmt.Sprintf("Discretization(%d)", int(d))
}

// ParseDiscretization parses "annual" or "tenth" (case-insensitive). An empty
// string selects AnnualDiscretization.
func ParseDiscretization(s string) (Discretization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "annual":
		return AnnualDiscretization, nil
	case "tenth", "tenth-year", "sub-annual":
		return TenthYearDiscretization, nil
	}
	return 0, invalid("discretization", s, `must be "annual" or "tenth"`)
}

// Engine implements EmissionCalculator for a single waste stream.
// An Engine is immutable and safe for concurrent use.
type Engine struct {
	params         Parameters
	discretization Discretization
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDiscretization selects the time discretization. Default: AnnualDiscretization.
func WithDiscretization(d Discretization) EngineOption {
	return func(e *Engine) {
		e.discretization = d
	}
}

// NewEngine creates an engine bound to params.
// Returns a *ValidationError if params or an option is invalid.
func NewEngine(params Parameters, opts ...EngineOption) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{params: params}
	for _, opt := range opts {
		opt(e)
	}
	if e.discretization != AnnualDiscretization && e.discretization != TenthYearDiscretization {
		return nil, invalid("discretization", int(e.discretization), "unknown discretization")
	}
	return e, nil
}

// Parameters returns the parameter set the engine was built with.
func (e *Engine) Parameters() Parameters {
	return e.params
}

// Discretization returns the engine's time discretization.
func (e *Engine) Discretization() Discretization {
	return e.discretization
}

// CalculateEmissions computes generation rates for one target year.
//
// The calculation follows the EPA LandGEM first-order decay methodology:
//  1. For each deposit accepted in or before targetYear: age = targetYear - year
//  2. CH4 (m³/yr) = Σ k × L0 × mass × e^(-k × age)
//  3. Total LFG = CH4 / methane fraction
//  4. CO2 = Total LFG × (1 - methane fraction)
//  5. NMOC (Mg/yr) = concentration × (86.18 / 16.04) × Total LFG / 3.6e9, if requested
//  6. Collected CH4 and LFG = generated × collection efficiency, if efficiency > 0
//
// Deposits accepted after targetYear contribute nothing. An empty history
// yields an all-zero result.
func (e *Engine) CalculateEmissions(history WasteHistory, targetYear int, opts CalculationOptions) (EmissionResult, error) {
	if err := e.validate(history, opts); err != nil {
		return EmissionResult{}, err
	}
	return e.compute(history, targetYear, opts), nil
}

// CalculateEmissions computes generation rates for one target year with
// annual discretization. See Engine.CalculateEmissions.
func CalculateEmissions(history WasteHistory, params Parameters, targetYear int, opts CalculationOptions) (EmissionResult, error) {
	e, err := NewEngine(params)
	if err != nil {
		return EmissionResult{}, err
	}
	return e.CalculateEmissions(history, targetYear, opts)
}

// validate checks everything a calculation depends on. Parameters are
// checked again so a zero Engine is rejected instead of producing NaN.
func (e *Engine) validate(history WasteHistory, opts CalculationOptions) error {
	if err := e.params.Validate(); err != nil {
		return err
	}
	if err := validateEfficiency(opts.CollectionEfficiency); err != nil {
		return err
	}
	if opts.IncludeNMOC {
		if _, ok := e.params.NMOCConcentration(); !ok {
			return misconfigured("nmoc_concentration", "NMOC requested but no concentration is configured")
		}
	}
	return history.Validate()
}

// compute assumes validated inputs.
func (e *Engine) compute(history WasteHistory, targetYear int, opts CalculationOptions) EmissionResult {
	p := e.params
	ch4 := MethaneGeneration(history, targetYear, p.decayRate, p.generationPotential, e.discretization)
	lfg := ch4 / p.methaneFraction

	result := EmissionResult{
		CH4Rate:      ch4,
		TotalLFGRate: lfg,
		CO2Rate:      lfg * (1 - p.methaneFraction),
	}

	if opts.IncludeNMOC {
		result.NMOCRate = NMOCMassRate(lfg, p.nmocConcentration)
		result.HasNMOC = true
	}

	if opts.CollectionEfficiency > 0 {
		result.CollectedCH4Rate = collect(ch4, opts.CollectionEfficiency)
		result.CollectedLFGRate = collect(lfg, opts.CollectionEfficiency)
		result.HasCollection = true
	}

	return result
}

// MethaneGeneration applies the first-order decay sum to history.
//
// Parameters:
//   - history: deposits (year, Mg); deposits after targetYear are skipped
//   - targetYear: the year generation is evaluated for
//   - k: decay rate (1/year)
//   - l0: generation potential (m³/Mg)
//   - d: time discretization
//
// Returns the methane generation rate in m³/year. Inputs are not validated.
func MethaneGeneration(history WasteHistory, targetYear int, k, l0 float64, d Discretization) float64 {
	var total float64
	for _, dep := range history {
		if dep.Year > targetYear {
			continue
		}
		age := float64(targetYear - dep.Year)

		if d == TenthYearDiscretization {
			section := k * l0 * dep.Mass / SubAnnualSections
			for s := 0; s < SubAnnualSections; s++ {
				j := float64(s) / SubAnnualSections
				total += section * math.Exp(-k*(age+1-j))
			}
			continue
		}

		total += k * l0 * dep.Mass * math.Exp(-k*age)
	}
	return total
}

// NMOCMassRate converts a total LFG rate (m³/year) and an NMOC concentration
// (ppmv as hexane) into an NMOC mass rate in Mg/year.
func NMOCMassRate(totalLFGRate, concentrationPPMV float64) float64 {
	return concentrationPPMV * nmocMassFactor * totalLFGRate / NMOCConversionDivisor
}
