package landgem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// caaParams returns k=0.05, L0=170, 50% methane with a 4000 ppmv NMOC concentration.
func caaParams(t *testing.T) Parameters {
	t.Helper()
	p, err := NewParameters(0.05, 170, 0.50, WithNMOCConcentration(4000))
	require.NoError(t, err)
	return p
}

func TestCalculateEmissions_SingleDeposit(t *testing.T) {
	history := WasteHistory{{Year: 2020, Mass: 1000}}

	tests := []struct {
		name       string
		targetYear int
		wantCH4    float64
	}{
		{"age zero", 2020, 8500},
		{"age one", 2021, 8085.450108256069},
		{"target before acceptance", 2019, 0},
		{"age ten", 2030, 8500 * math.Exp(-0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateEmissions(history, caaParams(t), tt.targetYear, CalculationOptions{})
			require.NoError(t, err)

			assert.InDelta(t, tt.wantCH4, got.CH4Rate, 1e-6)
			assert.InDelta(t, tt.wantCH4*2, got.TotalLFGRate, 1e-6)
			assert.InDelta(t, tt.wantCH4, got.CO2Rate, 1e-6)
			assert.False(t, got.HasCollection)
			assert.False(t, got.HasNMOC)
			assert.Zero(t, got.CollectedCH4Rate)
			assert.Zero(t, got.CollectedLFGRate)
		})
	}
}

func TestCalculateEmissions_LFGIsMethaneOverFraction(t *testing.T) {
	history := WasteHistory{
		{Year: 2001, Mass: 5000},
		{Year: 2005, Mass: 5200},
		{Year: 2010, Mass: 5500},
	}

	for _, fraction := range []float64{0.3, 0.45, 0.5, 0.55, 1.0} {
		p, err := NewParameters(0.04, 100, fraction)
		require.NoError(t, err)

		got, err := CalculateEmissions(history, p, 2030, CalculationOptions{})
		require.NoError(t, err)

		assert.InDelta(t, got.CH4Rate/fraction, got.TotalLFGRate, 1e-9)
		assert.InDelta(t, got.TotalLFGRate-got.CH4Rate, got.CO2Rate, 1e-9)
	}
}

func TestCalculateEmissions_EmptyHistory(t *testing.T) {
	for _, year := range []int{1900, 2020, 2100} {
		got, err := CalculateEmissions(nil, caaParams(t), year, CalculationOptions{CollectionEfficiency: 0.75, IncludeNMOC: true})
		require.NoError(t, err)

		assert.Zero(t, got.CH4Rate)
		assert.Zero(t, got.TotalLFGRate)
		assert.Zero(t, got.CO2Rate)
		assert.Zero(t, got.NMOCRate)
		assert.Zero(t, got.CollectedCH4Rate)
		assert.Zero(t, got.CollectedLFGRate)
	}
}

func TestCalculateEmissions_FutureDepositExcluded(t *testing.T) {
	base := WasteHistory{{Year: 2010, Mass: 4000}, {Year: 2015, Mass: 6000}}
	withFuture := append(WasteHistory{}, base...)
	withFuture = append(withFuture, Deposit{Year: 2031, Mass: 1e6})

	want, err := CalculateEmissions(base, caaParams(t), 2030, CalculationOptions{})
	require.NoError(t, err)
	got, err := CalculateEmissions(withFuture, caaParams(t), 2030, CalculationOptions{})
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestCalculateEmissions_DuplicateYearsContributeTwice(t *testing.T) {
	once := WasteHistory{{Year: 2020, Mass: 1000}}
	twice := WasteHistory{{Year: 2020, Mass: 1000}, {Year: 2020, Mass: 1000}}

	single, err := CalculateEmissions(once, caaParams(t), 2025, CalculationOptions{})
	require.NoError(t, err)
	double, err := CalculateEmissions(twice, caaParams(t), 2025, CalculationOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 2*single.CH4Rate, double.CH4Rate, 1e-9)
}

func TestCalculateEmissions_OrderIndependent(t *testing.T) {
	sorted := WasteHistory{{Year: 2018, Mass: 100}, {Year: 2019, Mass: 200}, {Year: 2020, Mass: 300}}
	shuffled := WasteHistory{{Year: 2020, Mass: 300}, {Year: 2018, Mass: 100}, {Year: 2019, Mass: 200}}

	a, err := CalculateEmissions(sorted, caaParams(t), 2024, CalculationOptions{})
	require.NoError(t, err)
	b, err := CalculateEmissions(shuffled, caaParams(t), 2024, CalculationOptions{})
	require.NoError(t, err)

	assert.InDelta(t, a.CH4Rate, b.CH4Rate, 1e-9)
}

func TestCalculateEmissions_Idempotent(t *testing.T) {
	history := WasteHistory{{Year: 2010, Mass: 5000}, {Year: 2011, Mass: 5200}, {Year: 2012, Mass: 5500}}
	opts := CalculationOptions{CollectionEfficiency: 0.6, IncludeNMOC: true}

	first, err := CalculateEmissions(history, caaParams(t), 2030, opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := CalculateEmissions(history, caaParams(t), 2030, opts)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, WasteHistory{{Year: 2010, Mass: 5000}, {Year: 2011, Mass: 5200}, {Year: 2012, Mass: 5500}}, history, "history must not be mutated")
}

func TestCalculateEmissions_VeryOldWasteStaysPositive(t *testing.T) {
	p, err := NewParameters(0.7, 96, 0.5)
	require.NoError(t, err)

	got, err := CalculateEmissions(WasteHistory{{Year: 1000, Mass: 1e6}}, p, 3000, CalculationOptions{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, got.CH4Rate, 0.0)
	assert.False(t, math.IsNaN(got.CH4Rate))
}

func TestCalculateEmissions_Collection(t *testing.T) {
	history := WasteHistory{{Year: 2020, Mass: 1000}}

	for _, eff := range []float64{0.5, 1.0} {
		got, err := CalculateEmissions(history, caaParams(t), 2020, CalculationOptions{CollectionEfficiency: eff})
		require.NoError(t, err)

		assert.True(t, got.HasCollection)
		assert.InDelta(t, got.CH4Rate*eff, got.CollectedCH4Rate, 1e-9)
		assert.InDelta(t, got.TotalLFGRate*eff, got.CollectedLFGRate, 1e-9)
	}
}

func TestCalculateEmissions_InvalidCollectionEfficiency(t *testing.T) {
	history := WasteHistory{{Year: 2020, Mass: 1000}}

	for _, eff := range []float64{1.1, -0.1, math.NaN()} {
		_, err := CalculateEmissions(history, caaParams(t), 2020, CalculationOptions{CollectionEfficiency: eff})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestCalculateEmissions_NMOC(t *testing.T) {
	history := WasteHistory{{Year: 2020, Mass: 1000}}

	got, err := CalculateEmissions(history, caaParams(t), 2020, CalculationOptions{IncludeNMOC: true})
	require.NoError(t, err)

	assert.True(t, got.HasNMOC)
	assert.InDelta(t, 0.10148656137434195, got.NMOCRate, 1e-12)
}

func TestCalculateEmissions_NMOCWithoutConcentration(t *testing.T) {
	p, err := NewParameters(0.05, 170, 0.5)
	require.NoError(t, err)

	_, err = CalculateEmissions(WasteHistory{{Year: 2020, Mass: 1000}}, p, 2020, CalculationOptions{IncludeNMOC: true})

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "nmoc_concentration", cfgErr.Field)
}

func TestCalculateEmissions_RejectsInvalidInputs(t *testing.T) {
	tests := []struct {
		name    string
		history WasteHistory
		params  Parameters
	}{
		{"zero parameters", WasteHistory{{Year: 2020, Mass: 1}}, Parameters{}},
		{"negative mass", WasteHistory{{Year: 2020, Mass: 1}, {Year: 2021, Mass: -5}}, caaParams(t)},
		{"NaN mass", WasteHistory{{Year: 2020, Mass: math.NaN()}}, caaParams(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateEmissions(tt.history, tt.params, 2030, CalculationOptions{})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestEngine_TenthYearDiscretization(t *testing.T) {
	e, err := NewEngine(caaParams(t), WithDiscretization(TenthYearDiscretization))
	require.NoError(t, err)
	assert.Equal(t, TenthYearDiscretization, e.Discretization())

	got, err := e.CalculateEmissions(WasteHistory{{Year: 2020, Mass: 1000}}, 2020, CalculationOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 8270.28761319638, got.CH4Rate, 1e-6)
	// Sub-annual sections are all at least 0.1 years old, so the rate sits
	// between the annual values at ages 0 and 1.
	assert.Less(t, got.CH4Rate, 8500.0)
	assert.Greater(t, got.CH4Rate, 8085.450108256069)
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(Parameters{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewEngine(caaParams(t), WithDiscretization(Discretization(7)))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEngine_ZeroValueRejected(t *testing.T) {
	var e Engine
	history := WasteHistory{{Year: 2020, Mass: 1000}}

	got, err := e.CalculateEmissions(history, 2020, CalculationOptions{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, EmissionResult{}, got)

	table, err := e.CalculateTimeSeries(history, []int{2020, 2021}, ProjectionOptions{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, table.Rows)
}

func TestParseDiscretization(t *testing.T) {
	tests := []struct {
		in      string
		want    Discretization
		wantErr bool
	}{
		{"", AnnualDiscretization, false},
		{"annual", AnnualDiscretization, false},
		{"Tenth", TenthYearDiscretization, false},
		{" sub-annual ", TenthYearDiscretization, false},
		{"monthly", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDiscretization(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestMethaneGeneration_MatchesEngine(t *testing.T) {
	history := WasteHistory{{Year: 2020, Mass: 1000}, {Year: 2021, Mass: 2000}, {Year: 2022, Mass: 3000}}

	got := MethaneGeneration(history, 2025, 0.05, 170, AnnualDiscretization)

	assert.InDelta(t, 42486.28285727161, got, 1e-6)
}

func TestNMOCMassRate(t *testing.T) {
	assert.InDelta(t, 0.10148656137434195, NMOCMassRate(17000, 4000), 1e-12)
	assert.Zero(t, NMOCMassRate(0, 4000))
}
