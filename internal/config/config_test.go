package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/landgem/internal/landgem"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const singleStreamYAML = `
title: Example landfill
preset: caa_conventional
waste:
  file: waste.csv
projection:
  from: 2020
  to: 2024
  collection_efficiency: 0.5
  include_nmoc: true
output:
  format: json
`

func TestLoad_SingleStream(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "waste.csv", "year,waste_mg\n2020,1000\n2021,2000\n")
	path := writeFile(t, dir, "scenario.yaml", singleStreamYAML)

	cfg, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Example landfill", cfg.Title)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []int{2020, 2021, 2022, 2023, 2024}, cfg.Years())
	assert.False(t, cfg.IsMultiStream())

	params, err := cfg.ModelParameters()
	require.NoError(t, err)
	assert.Equal(t, 0.05, params.DecayRate())
	ppmv, ok := params.NMOCConcentration()
	assert.True(t, ok)
	assert.Equal(t, 4000.0, ppmv)

	history, err := cfg.WasteHistory()
	require.NoError(t, err)
	assert.Equal(t, landgem.WasteHistory{{Year: 2020, Mass: 1000}, {Year: 2021, Mass: 2000}}, history)

	opts := cfg.ProjectionOptions()
	assert.Equal(t, 0.5, opts.CollectionEfficiency)
	assert.True(t, opts.IncludeNMOC)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenario.yaml", singleStreamYAML)

	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvCollectionEfficiency, "0.8")
	t.Setenv(EnvWorkers, "4")

	cfg, err := Load("", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.8, cfg.Projection.CollectionEfficiency)
	assert.Equal(t, 4, cfg.Projection.Workers)
}

func TestLoad_InvalidEnvIgnored(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scenario.yaml", singleStreamYAML)

	t.Setenv(EnvCollectionEfficiency, "1.5")
	t.Setenv(EnvWorkers, "many")

	cfg, err := Load(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Projection.CollectionEfficiency)
	assert.Equal(t, 0, cfg.Projection.Workers)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	_, err := Load("", zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoConfigPath)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop())
	assert.ErrorContains(t, err, "read config file")

	path := writeFile(t, t.TempDir(), "bad.yaml", "projection: [unclosed")
	_, err = Load(path, zerolog.Nop())
	assert.ErrorContains(t, err, "parse config file")
}

func TestScenario_Validate(t *testing.T) {
	valid := func() Scenario {
		s := Default()
		s.Preset = "inventory_arid"
		s.Waste.Deposits = []landgem.Deposit{{Year: 2020, Mass: 100}}
		s.Projection.From, s.Projection.To = 2020, 2030
		return s
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantMsg string
	}{
		{"unknown preset", func(s *Scenario) { s.Preset = "tropical" }, "unknown preset"},
		{"bad discretization", func(s *Scenario) { s.Projection.Discretization = "monthly" }, "discretization"},
		{"bad log level", func(s *Scenario) { s.Log.Level = "loud" }, "log.level"},
		{"bad format", func(s *Scenario) { s.Output.Format = "xlsx" }, "output.format"},
		{"no years", func(s *Scenario) { s.Projection.From, s.Projection.To = 0, 0 }, "set from and to"},
		{"reversed range", func(s *Scenario) { s.Projection.From, s.Projection.To = 2030, 2020 }, "before from"},
		{"no waste", func(s *Scenario) { s.Waste.Deposits = nil }, "waste: set file or deposits"},
		{"unnamed stream", func(s *Scenario) {
			s.Streams = []StreamConfig{{Deposits: []landgem.Deposit{{Year: 2020, Mass: 1}}}}
		}, "name is required"},
		{"duplicate stream", func(s *Scenario) {
			s.Streams = []StreamConfig{
				{Name: "msw", Deposits: []landgem.Deposit{{Year: 2020, Mass: 1}}},
				{Name: "msw", Deposits: []landgem.Deposit{{Year: 2020, Mass: 1}}},
			}
		}, "duplicate stream"},
		{"stream column without file", func(s *Scenario) {
			s.Streams = []StreamConfig{{Name: "msw", Column: "msw_mg"}}
		}, "needs waste.file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			assert.ErrorContains(t, s.Validate(), tt.wantMsg)
		})
	}
}

func TestScenario_ModelParameters(t *testing.T) {
	t.Run("explicit values override preset", func(t *testing.T) {
		s := Scenario{Preset: "caa_conventional", Parameters: ParameterConfig{GenerationPotential: 120}}

		p, err := s.ModelParameters()
		require.NoError(t, err)
		assert.Equal(t, 0.05, p.DecayRate())
		assert.Equal(t, 120.0, p.GenerationPotential())
	})

	t.Run("methane fraction defaults without preset", func(t *testing.T) {
		s := Scenario{Parameters: ParameterConfig{DecayRate: 0.04, GenerationPotential: 100}}

		p, err := s.ModelParameters()
		require.NoError(t, err)
		assert.Equal(t, landgem.DefaultMethaneFraction, p.MethaneFraction())
		_, ok := p.NMOCConcentration()
		assert.False(t, ok)
	})

	t.Run("missing decay rate", func(t *testing.T) {
		_, err := Scenario{Parameters: ParameterConfig{GenerationPotential: 100}}.ModelParameters()
		assert.ErrorIs(t, err, landgem.ErrValidation)
	})
}

func TestScenario_Years(t *testing.T) {
	s := Scenario{Projection: ProjectionConfig{From: 2020, To: 2030, Years: []int{2025, 2021}}}
	assert.Equal(t, []int{2025, 2021}, s.Years())

	s = Scenario{Projection: ProjectionConfig{From: 2030, To: 2020}}
	assert.Empty(t, s.Years())
}

const multiStreamYAML = `
parameters:
  decay_rate: 0.05
  generation_potential: 170
  methane_fraction: 0.5
  nmoc_concentration: 600
waste:
  file: streams.csv
streams:
  - name: msw
    column: msw_mg
  - name: organic
    generation_potential: 200
    nmoc_concentration: 900
    column: organic_mg
  - name: sludge
    generation_potential: 50
    deposits:
      - {year: 2021, mass: 10}
projection:
  years: [2025]
  discretization: tenth
`

func TestLoad_MultiStream(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "streams.csv", "year,msw_mg,organic_mg\n2020,5000,1000\n")
	path := writeFile(t, dir, "scenario.yaml", multiStreamYAML)

	cfg, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsMultiStream())

	agg, err := cfg.Aggregator()
	require.NoError(t, err)
	streams := agg.Streams()
	require.Len(t, streams, 3)
	assert.Equal(t, "msw", streams[0].Name)
	assert.Equal(t, 170.0, streams[0].Parameters.GenerationPotential())
	assert.Equal(t, 200.0, streams[1].Parameters.GenerationPotential())
	ppmv, ok := streams[1].Parameters.NMOCConcentration()
	require.True(t, ok)
	assert.Equal(t, 900.0, ppmv)
	ppmv, ok = streams[0].Parameters.NMOCConcentration()
	require.True(t, ok)
	assert.Equal(t, 600.0, ppmv)

	data, err := cfg.StreamData()
	require.NoError(t, err)
	assert.Equal(t, landgem.WasteHistory{{Year: 2020, Mass: 5000}}, data["msw"])
	assert.Equal(t, landgem.WasteHistory{{Year: 2020, Mass: 1000}}, data["organic"])
	assert.Equal(t, landgem.WasteHistory{{Year: 2021, Mass: 10}}, data["sludge"])

	d, err := cfg.DiscretizationMode()
	require.NoError(t, err)
	assert.Equal(t, landgem.TenthYearDiscretization, d)

	_, err = agg.CalculateTimeSeries(data, cfg.Years(), cfg.ProjectionOptions())
	require.NoError(t, err)
}

func TestScenario_StreamsWithOwnGenerationPotential(t *testing.T) {
	s := Scenario{
		Parameters: ParameterConfig{DecayRate: 0.05},
		Streams: []StreamConfig{
			{Name: "msw", GenerationPotential: 170, Deposits: []landgem.Deposit{{Year: 2020, Mass: 1000}}},
			{Name: "organic", GenerationPotential: 200, Deposits: []landgem.Deposit{{Year: 2020, Mass: 100}}},
		},
		Projection: ProjectionConfig{From: 2020, To: 2021},
		Log:        LogConfig{Level: "info"},
	}
	require.NoError(t, s.Validate())

	agg, err := s.Aggregator()
	require.NoError(t, err)
	streams := agg.Streams()
	require.Len(t, streams, 2)
	assert.Equal(t, 170.0, streams[0].Parameters.GenerationPotential())
	assert.Equal(t, 200.0, streams[1].Parameters.GenerationPotential())
	assert.Equal(t, landgem.DefaultMethaneFraction, streams[1].Parameters.MethaneFraction())

	t.Run("stream without any L0", func(t *testing.T) {
		s.Streams = append(s.Streams, StreamConfig{Name: "sludge", Deposits: []landgem.Deposit{{Year: 2020, Mass: 10}}})

		err := s.Validate()
		assert.ErrorIs(t, err, landgem.ErrValidation)
		assert.ErrorContains(t, err, "streams.sludge.generation_potential")
	})

	t.Run("shared decay rate still required", func(t *testing.T) {
		s.Parameters.DecayRate = 0

		assert.ErrorContains(t, s.Validate(), "decay_rate")
	})
}
