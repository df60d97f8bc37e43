package landgem

import "math"

// WasteInPlace returns the mass (Mg) accepted up to and including year,
// reduced by decayFraction (0.0 to 1.0).
func WasteInPlace(history WasteHistory, year int, decayFraction float64) (float64, error) {
	if !(decayFraction >= 0 && decayFraction <= 1) {
		return 0, invalid("decay_fraction", decayFraction, "must be between 0 and 1")
	}
	if err := history.Validate(); err != nil {
		return 0, err
	}
	return history.TotalMass(year) * (1 - decayFraction), nil
}

// DecayRateFromHalfLife converts a methane generation half-life (years) into
// a decay rate k = ln 2 / half-life.
func DecayRateFromHalfLife(halfLife float64) (float64, error) {
	if !finite(halfLife) || halfLife <= 0 {
		return 0, invalid("half_life", halfLife, "must be a positive number of years")
	}
	return math.Ln2 / halfLife, nil
}

// HalfLifeFromDecayRate converts a decay rate k (1/year) into a half-life in
// years.
func HalfLifeFromDecayRate(k float64) (float64, error) {
	if err := validateDecayRate(k); err != nil {
		return 0, err
	}
	return math.Ln2 / k, nil
}
