// Package config loads landgem scenarios from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/landgem/internal/landgem"
	"github.com/rshade/landgem/internal/wastedata"
)

// Environment variables read by Load.
const (
	EnvConfigPath           = "LANDGEM_CONFIG_PATH"
	EnvLogLevel             = "LANDGEM_LOG_LEVEL"
	EnvCollectionEfficiency = "LANDGEM_COLLECTION_EFFICIENCY"
	EnvWorkers              = "LANDGEM_WORKERS"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ErrNoConfigPath is returned by Load when neither a path nor
// LANDGEM_CONFIG_PATH is given.
var ErrNoConfigPath = errors.New("no scenario file given")

// Scenario is a complete landgem run description.
type Scenario struct {
	Title      string           `yaml:"title"`
	Log        LogConfig        `yaml:"log"`
	Preset     string           `yaml:"preset"`
	Parameters ParameterConfig  `yaml:"parameters"`
	Waste      WasteConfig      `yaml:"waste"`
	Streams    []StreamConfig   `yaml:"streams"`
	Projection ProjectionConfig `yaml:"projection"`
	Output     OutputConfig     `yaml:"output"`

	// dir is the directory of the scenario file; relative waste paths
	// resolve against it.
	dir string
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ParameterConfig holds explicit model constants. Non-zero values override
// the preset, if one is named.
type ParameterConfig struct {
	DecayRate           float64  `yaml:"decay_rate"`
	GenerationPotential float64  `yaml:"generation_potential"`
	MethaneFraction     float64  `yaml:"methane_fraction"`
	NMOCConcentration   *float64 `yaml:"nmoc_concentration"`
}

// WasteConfig points at a single-stream history, either a CSV file or
// inline deposits.
type WasteConfig struct {
	File       string            `yaml:"file"`
	YearColumn string            `yaml:"year_column"`
	MassColumn string            `yaml:"mass_column"`
	Deposits   []landgem.Deposit `yaml:"deposits"`
}

// StreamConfig describes one stream of a multi-stream scenario. Mass values
// come from Column of the shared waste file, or from Deposits.
type StreamConfig struct {
	Name                string            `yaml:"name"`
	GenerationPotential float64           `yaml:"generation_potential"`
	NMOCConcentration   *float64          `yaml:"nmoc_concentration"`
	Column              string            `yaml:"column"`
	Deposits            []landgem.Deposit `yaml:"deposits"`
}

type ProjectionConfig struct {
	From                 int     `yaml:"from"`
	To                   int     `yaml:"to"`
	Years                []int   `yaml:"years"`
	CollectionEfficiency float64 `yaml:"collection_efficiency"`
	IncludeNMOC          bool    `yaml:"include_nmoc"`
	Discretization       string  `yaml:"discretization"`
	Workers              int     `yaml:"workers"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// Default returns a scenario with every optional setting at its default.
func Default() Scenario {
	return Scenario{
		Log:        LogConfig{Level: "info"},
		Projection: ProjectionConfig{Discretization: landgem.AnnualDiscretization.String()},
		Output:     OutputConfig{Format: FormatCSV},
	}
}

// Load reads the scenario at path, or at LANDGEM_CONFIG_PATH when path is
// empty, then applies environment overrides. Invalid override values are
// logged and ignored.
func Load(path string, logger zerolog.Logger) (Scenario, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Scenario{}, ErrNoConfigPath
	}

	cfg := Default()
	if err := loadFromFile(path, &cfg); err != nil {
		return Scenario{}, err
	}
	cfg.dir = filepath.Dir(path)

	applyEnv(&cfg, logger)

	logger.Debug().
		Str("path", path).
		Str("title", cfg.Title).
		Int("streams", len(cfg.Streams)).
		Msg("scenario loaded")

	return cfg, nil
}

func loadFromFile(path string, cfg *Scenario) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Scenario, logger zerolog.Logger) {
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Log.Level = level
	}

	if s := os.Getenv(EnvCollectionEfficiency); s != "" {
		if eff, err := strconv.ParseFloat(s, 64); err == nil && eff >= 0 && eff <= 1 {
			cfg.Projection.CollectionEfficiency = eff
		} else {
			logger.Warn().Str("value", s).Msg("invalid " + EnvCollectionEfficiency + ", using scenario value")
		}
	}

	if s := os.Getenv(EnvWorkers); s != "" {
		if workers, err := strconv.Atoi(s); err == nil && workers >= 0 {
			cfg.Projection.Workers = workers
		} else {
			logger.Warn().Str("value", s).Msg("invalid " + EnvWorkers + ", using scenario value")
		}
	}
}

// Validate reports the first problem that would prevent the scenario from
// running.
func (s Scenario) Validate() error {
	if _, err := landgem.ParseDiscretization(s.Projection.Discretization); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(s.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch strings.ToLower(s.Output.Format) {
	case "", FormatCSV, FormatJSON:
	default:
		return fmt.Errorf("output.format: unsupported format %q", s.Output.Format)
	}

	if len(s.Projection.Years) == 0 {
		if s.Projection.From == 0 || s.Projection.To == 0 {
			return errors.New("projection: set from and to, or list years")
		}
		if s.Projection.To < s.Projection.From {
			return fmt.Errorf("projection: to (%d) is before from (%d)", s.Projection.To, s.Projection.From)
		}
	}

	if s.IsMultiStream() {
		seen := make(map[string]bool, len(s.Streams))
		for i, st := range s.Streams {
			if st.Name == "" {
				return fmt.Errorf("streams[%d]: name is required", i)
			}
			if seen[st.Name] {
				return fmt.Errorf("streams[%d]: duplicate stream %q", i, st.Name)
			}
			seen[st.Name] = true
			if st.Column == "" && len(st.Deposits) == 0 {
				return fmt.Errorf("streams[%d]: set column or deposits", i)
			}
			if st.Column != "" && s.Waste.File == "" {
				return fmt.Errorf("streams[%d]: column %q needs waste.file", i, st.Column)
			}
		}
		_, err := s.Aggregator()
		return err
	}

	if s.Waste.File == "" && len(s.Waste.Deposits) == 0 {
		return errors.New("waste: set file or deposits")
	}
	_, err := s.ModelParameters()
	return err
}

// IsMultiStream reports whether the scenario defines streams.
func (s Scenario) IsMultiStream() bool {
	return len(s.Streams) > 0
}

// sharedParameters are the preset and explicit values before any
// requirement is checked. L0 may be zero when every stream sets its own.
type sharedParameters struct {
	decayRate           float64
	generationPotential float64
	methaneFraction     float64
	nmoc                *float64
}

func (s Scenario) sharedParameters() (sharedParameters, error) {
	sp := sharedParameters{
		decayRate:           s.Parameters.DecayRate,
		generationPotential: s.Parameters.GenerationPotential,
		methaneFraction:     s.Parameters.MethaneFraction,
	}

	if s.Preset != "" {
		preset, ok := landgem.Preset(s.Preset)
		if !ok {
			return sharedParameters{}, fmt.Errorf("preset: unknown preset %q", s.Preset)
		}
		if sp.decayRate == 0 {
			sp.decayRate = preset.DecayRate()
		}
		if sp.generationPotential == 0 {
			sp.generationPotential = preset.GenerationPotential()
		}
		if sp.methaneFraction == 0 {
			sp.methaneFraction = preset.MethaneFraction()
		}
		if ppmv, ok := preset.NMOCConcentration(); ok {
			sp.nmoc = &ppmv
		}
	} else if sp.methaneFraction == 0 {
		sp.methaneFraction = landgem.DefaultMethaneFraction
	}

	if s.Parameters.NMOCConcentration != nil {
		sp.nmoc = s.Parameters.NMOCConcentration
	}
	return sp, nil
}

// ModelParameters resolves the preset and explicit parameter overrides.
// Without a preset the methane fraction defaults to 50%.
func (s Scenario) ModelParameters() (landgem.Parameters, error) {
	sp, err := s.sharedParameters()
	if err != nil {
		return landgem.Parameters{}, err
	}
	var opts []landgem.ParameterOption
	if sp.nmoc != nil {
		opts = append(opts, landgem.WithNMOCConcentration(*sp.nmoc))
	}
	return landgem.NewParameters(sp.decayRate, sp.generationPotential, sp.methaneFraction, opts...)
}

// DiscretizationMode returns the parsed projection discretization.
func (s Scenario) DiscretizationMode() (landgem.Discretization, error) {
	return landgem.ParseDiscretization(s.Projection.Discretization)
}

// Years returns the target years: the explicit list when given, otherwise
// from..to inclusive.
func (s Scenario) Years() []int {
	if len(s.Projection.Years) > 0 {
		return append([]int(nil), s.Projection.Years...)
	}
	if s.Projection.To < s.Projection.From {
		return nil
	}
	years := make([]int, 0, s.Projection.To-s.Projection.From+1)
	for y := s.Projection.From; y <= s.Projection.To; y++ {
		years = append(years, y)
	}
	return years
}

// ProjectionOptions converts the projection settings for the calculation API.
func (s Scenario) ProjectionOptions() landgem.ProjectionOptions {
	return landgem.ProjectionOptions{
		CalculationOptions: landgem.CalculationOptions{
			CollectionEfficiency: s.Projection.CollectionEfficiency,
			IncludeNMOC:          s.Projection.IncludeNMOC,
		},
		Workers: s.Projection.Workers,
	}
}

// WasteHistory loads the single-stream history.
func (s Scenario) WasteHistory() (landgem.WasteHistory, error) {
	if len(s.Waste.Deposits) > 0 {
		h := landgem.WasteHistory(s.Waste.Deposits)
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("waste.deposits: %w", err)
		}
		return h, nil
	}
	return wastedata.LoadFile(s.resolve(s.Waste.File), wastedata.Columns{
		Year: s.Waste.YearColumn,
		Mass: s.Waste.MassColumn,
	})
}

// Aggregator builds an aggregator with every configured stream registered in
// scenario order. A stream without its own L0 falls back to the shared or
// preset value; with neither, the stream is rejected.
func (s Scenario) Aggregator() (*landgem.Aggregator, error) {
	sp, err := s.sharedParameters()
	if err != nil {
		return nil, err
	}
	d, err := s.DiscretizationMode()
	if err != nil {
		return nil, err
	}

	opts := []landgem.AggregatorOption{landgem.WithStreamDiscretization(d)}
	if sp.nmoc != nil {
		opts = append(opts, landgem.WithSharedNMOCConcentration(*sp.nmoc))
	}
	agg, err := landgem.NewAggregator(sp.decayRate, sp.methaneFraction, opts...)
	if err != nil {
		return nil, err
	}

	for _, st := range s.Streams {
		l0 := st.GenerationPotential
		if l0 == 0 {
			l0 = sp.generationPotential
		}
		var streamOpts []landgem.StreamOption
		if st.NMOCConcentration != nil {
			streamOpts = append(streamOpts, landgem.WithStreamNMOCConcentration(*st.NMOCConcentration))
		}
		if err := agg.AddStream(st.Name, l0, streamOpts...); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

// StreamData loads the history of every configured stream.
func (s Scenario) StreamData() (map[string]landgem.WasteHistory, error) {
	data := make(map[string]landgem.WasteHistory, len(s.Streams))
	columns := make(map[string]string)
	for _, st := range s.Streams {
		if len(st.Deposits) > 0 {
			h := landgem.WasteHistory(st.Deposits)
			if err := h.Validate(); err != nil {
				return nil, fmt.Errorf("stream %q: %w", st.Name, err)
			}
			data[st.Name] = h
			continue
		}
		columns[st.Name] = st.Column
	}

	if len(columns) > 0 {
		loaded, err := wastedata.LoadMultiStreamFile(s.resolve(s.Waste.File), s.Waste.YearColumn, columns)
		if err != nil {
			return nil, err
		}
		for name, h := range loaded {
			data[name] = h
		}
	}
	return data, nil
}

func (s Scenario) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}
