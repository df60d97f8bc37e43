package landgem

// ApplyCollection returns the share of generatedRate captured by a collection
// system operating at efficiency. CO2 is not collected in this model; callers
// apply it to methane and total LFG only.
func ApplyCollection(generatedRate, efficiency float64) (float64, error) {
	if err := validateEfficiency(efficiency); err != nil {
		return 0, err
	}
	return collect(generatedRate, efficiency), nil
}

func collect(generatedRate, efficiency float64) float64 {
	return generatedRate * efficiency
}

func validateEfficiency(efficiency float64) error {
	// NaN fails both comparisons, so test the accepted range explicitly.
	if !(efficiency >= 0 && efficiency <= 1) {
		return invalid("collection_efficiency", efficiency, "must be between 0 and 1")
	}
	return nil
}
