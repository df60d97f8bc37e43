package landgem

import (
	"fmt"
	"strings"
)

// Parameters holds the first-order decay model constants for one waste
// stream. Values are validated by NewParameters and cannot be changed after
// construction; the zero value is not a usable parameter set.
type Parameters struct {
	decayRate           float64
	generationPotential float64
	methaneFraction     float64
	nmocConcentration   float64
	hasNMOC             bool
}

// ParameterOption configures optional Parameters fields.
type ParameterOption func(*Parameters)

// WithNMOCConcentration sets the NMOC concentration in ppmv as hexane.
func WithNMOCConcentration(ppmv float64) ParameterOption {
	return func(p *Parameters) {
		p.nmocConcentration = ppmv
		p.hasNMOC = true
	}
}

// NewParameters validates and returns a parameter set.
//
// Parameters:
//   - decayRate: methane generation rate constant k (1/year), must be > 0
//   - generationPotential: potential methane generation capacity L0 (m³/Mg), must be > 0
//   - methaneFraction: methane share of total LFG, must be in (0, 1]
//
// Returns a *ValidationError for the first out-of-range value.
func NewParameters(decayRate, generationPotential, methaneFraction float64, opts ...ParameterOption) (Parameters, error) {
	p := Parameters{
		decayRate:           decayRate,
		generationPotential: generationPotential,
		methaneFraction:     methaneFraction,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Validate checks every field. Calculation entry points call it so that a
// zero Parameters value is rejected instead of silently producing zeros.
func (p Parameters) Validate() error {
	if err := validateDecayRate(p.decayRate); err != nil {
		return err
	}
	if err := validateGenerationPotential("generation_potential", p.generationPotential); err != nil {
		return err
	}
	if err := validateMethaneFraction(p.methaneFraction); err != nil {
		return err
	}
	if p.hasNMOC {
		if err := validateNMOCConcentration("nmoc_concentration", p.nmocConcentration); err != nil {
			return err
		}
	}
	return nil
}

// DecayRate returns k in 1/year.
func (p Parameters) DecayRate() float64 { return p.decayRate }

// GenerationPotential returns L0 in m³/Mg.
func (p Parameters) GenerationPotential() float64 { return p.generationPotential }

// MethaneFraction returns the methane share of total LFG.
func (p Parameters) MethaneFraction() float64 { return p.methaneFraction }

// NMOCConcentration returns the NMOC concentration in ppmv and whether one
// was configured.
func (p Parameters) NMOCConcentration() (float64, bool) {
	return p.nmocConcentration, p.hasNMOC
}

// WithGenerationPotential returns a copy of p with L0 replaced. The receiver
// is not modified.
func (p Parameters) WithGenerationPotential(l0 float64) (Parameters, error) {
	if err := validateGenerationPotential("generation_potential", l0); err != nil {
		return Parameters{}, err
	}
	p.generationPotential = l0
	return p, nil
}

// Warnings reports values that are valid but outside the ranges normally
// seen in practice. An empty result means nothing looked unusual.
func (p Parameters) Warnings() []string {
	var warnings []string
	if p.decayRate > MaxTypicalDecayRate {
		warnings = append(warnings, fmt.Sprintf("decay rate %s exceeds %s 1/year; check units",
			formatFloat(p.decayRate), formatFloat(MaxTypicalDecayRate)))
	}
	if p.generationPotential > MaxTypicalGenerationPotential {
		warnings = append(warnings, fmt.Sprintf("generation potential %s exceeds %s m³/Mg; check units",
			formatFloat(p.generationPotential), formatFloat(MaxTypicalGenerationPotential)))
	}
	if p.methaneFraction < MinTypicalMethaneFraction || p.methaneFraction > MaxTypicalMethaneFraction {
		warnings = append(warnings, fmt.Sprintf("methane fraction %s outside typical range %s-%s",
			formatFloat(p.methaneFraction), formatFloat(MinTypicalMethaneFraction), formatFloat(MaxTypicalMethaneFraction)))
	}
	return warnings
}

// String returns a compact human-readable description.
func (p Parameters) String() string {
	var b strings.Builder
	b.WriteString("k=" + formatFloat(p.decayRate) + "/yr")
	b.WriteString(", L0=" + formatFloat(p.generationPotential) + " m³/Mg")
	b.WriteString(", CH4=" + formatFloat(p.methaneFraction*100) + "%")
	if p.hasNMOC {
		b.WriteString(", NMOC=" + formatFloat(p.nmocConcentration) + " ppmv")
	}
	return b.String()
}

func validateDecayRate(k float64) error {
	if !finite(k) || k <= 0 {
		return invalid("decay_rate", k, "must be a positive number (1/year)")
	}
	return nil
}

func validateGenerationPotential(field string, l0 float64) error {
	if !finite(l0) || l0 <= 0 {
		return invalid(field, l0, "must be a positive number (m³/Mg)")
	}
	return nil
}

func validateMethaneFraction(f float64) error {
	if !finite(f) || f <= 0 || f > 1 {
		return invalid("methane_fraction", f, "must be in (0, 1]")
	}
	return nil
}

func validateNMOCConcentration(field string, ppmv float64) error {
	if !finite(ppmv) || ppmv <= 0 {
		return invalid(field, ppmv, "must be a positive concentration (ppmv)")
	}
	return nil
}
