package landgem

import (
	_ "embed"
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// CSV column indices for the default parameter table.
const (
	colPresetName            = 0 // name (caa_conventional, inventory_arid, ...)
	colPresetDecayRate       = 1 // k (1/year)
	colPresetL0              = 2 // L0 (m³/Mg)
	colPresetMethaneFraction = 3 // methane_fraction
	colPresetNMOC            = 4 // nmoc_ppmv
	colPresetDescription     = 5 // description
)

// EPA default parameter sets.
// Source: EPA LandGEM v3.02 user's manual, Clean Air Act and Inventory defaults.
//
//go:embed data/default_parameters.csv
var defaultParametersCSV string

// PresetInfo describes a named default parameter set.
type PresetInfo struct {
	Name        string
	Description string
	Parameters  Parameters
}

var (
	presets     map[string]PresetInfo
	presetsOnce sync.Once
)

// parsePresets initializes the package-level presets map from the embedded
// CSV. Rows that are malformed or fail parameter validation are skipped.
func parsePresets() {
	presets = make(map[string]PresetInfo)

	reader := csv.NewReader(strings.NewReader(defaultParametersCSV))

	// Skip header row
	_, err := reader.Read()
	if err != nil {
		logger.Error().Err(err).Msg("failed to read default parameters CSV header")
		return
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("skipping malformed default parameters CSV row")
			continue
		}
		if len(record) <= colPresetNMOC {
			continue
		}

		name := strings.TrimSpace(record[colPresetName])
		if name == "" {
			continue
		}

		values := make([]float64, 0, 4)
		for _, col := range []int{colPresetDecayRate, colPresetL0, colPresetMethaneFraction, colPresetNMOC} {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				break
			}
			values = append(values, v)
		}
		if len(values) != 4 {
			logger.Warn().Str("preset", name).Msg("skipping default parameters row with non-numeric values")
			continue
		}

		params, err := NewParameters(values[0], values[1], values[2], WithNMOCConcentration(values[3]))
		if err != nil {
			logger.Warn().Err(err).Str("preset", name).Msg("skipping invalid default parameters row")
			continue
		}

		var description string
		if len(record) > colPresetDescription {
			description = strings.TrimSpace(record[colPresetDescription])
		}

		presets[name] = PresetInfo{
			Name:        name,
			Description: description,
			Parameters:  params,
		}
	}
}

// Preset returns the EPA default parameter set registered under name
// (case-insensitive, e.g. "caa_conventional").
func Preset(name string) (Parameters, bool) {
	info, ok := PresetDetail(name)
	return info.Parameters, ok
}

// PresetDetail returns the full preset entry for name.
func PresetDetail(name string) (PresetInfo, bool) {
	presetsOnce.Do(parsePresets)
	info, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return info, ok
}

// PresetNames returns every preset name in sorted order.
func PresetNames() []string {
	presetsOnce.Do(parsePresets)
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PresetCount reports the number of loaded presets.
func PresetCount() int {
	presetsOnce.Do(parsePresets)
	return len(presets)
}
