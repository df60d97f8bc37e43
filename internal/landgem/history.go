package landgem

import "fmt"

// Deposit is the mass of waste (Mg) accepted in one year. Each deposit decays
// independently; two deposits with the same year both contribute.
type Deposit struct {
	Year int     `json:"year" yaml:"year"`
	Mass float64 `json:"mass" yaml:"mass"`
}

// WasteHistory is the acceptance record of one waste stream. Order carries
// no meaning.
type WasteHistory []Deposit

// NewWasteHistory builds a history from parallel year and mass slices.
func NewWasteHistory(years []int, masses []float64) (WasteHistory, error) {
	if len(years) != len(masses) {
		return nil, invalid("waste_history", fmt.Sprintf("%d years, %d masses", len(years), len(masses)),
			"years and masses must have the same length")
	}
	h := make(WasteHistory, len(years))
	for i := range years {
		h[i] = Deposit{Year: years[i], Mass: masses[i]}
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate rejects negative, NaN and infinite masses. An empty history is
// valid.
func (h WasteHistory) Validate() error {
	for i, d := range h {
		if !finite(d.Mass) || d.Mass < 0 {
			return invalid(fmt.Sprintf("waste_history[%d].mass", i), d.Mass, "must be a non-negative number (Mg)")
		}
	}
	return nil
}

// TotalMass returns the mass accepted up to and including year.
func (h WasteHistory) TotalMass(year int) float64 {
	var total float64
	for _, d := range h {
		if d.Year <= year {
			total += d.Mass
		}
	}
	return total
}

// YearRange returns the earliest and latest acceptance years. ok is false
// for an empty history.
func (h WasteHistory) YearRange() (first, last int, ok bool) {
	if len(h) == 0 {
		return 0, 0, false
	}
	first, last = h[0].Year, h[0].Year
	for _, d := range h[1:] {
		if d.Year < first {
			first = d.Year
		}
		if d.Year > last {
			last = d.Year
		}
	}
	return first, last, true
}
