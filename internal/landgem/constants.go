package landgem

const (
	// HexaneMolecularWeight is the molecular weight of hexane in g/mol.
	// NMOC concentrations are reported as hexane.
	HexaneMolecularWeight = 86.18

	// MethaneMolecularWeight is the molecular weight of methane in g/mol.
	MethaneMolecularWeight = 16.04

	// NMOCConversionDivisor converts ppmv × m³/year of LFG into Mg/year of NMOC
	// once the hexane/methane molecular weight ratio has been applied.
	// Source: EPA LandGEM methodology.
	NMOCConversionDivisor = 3.6e9

	// DefaultMethaneFraction is the methane share of total LFG assumed by
	// every EPA default parameter set.
	DefaultMethaneFraction = 0.50

	// SubAnnualSections is the number of 0.1-year sections each annual deposit
	// is split into under TenthYearDiscretization.
	SubAnnualSections = 10

	// MaxTypicalDecayRate is the k (1/year) above which a parameter set is
	// flagged as implausible. Values above it usually indicate a unit error.
	MaxTypicalDecayRate = 1.0

	// MaxTypicalGenerationPotential is the L0 (m³/Mg) above which a parameter
	// set is flagged as implausible.
	MaxTypicalGenerationPotential = 500.0

	// MinTypicalMethaneFraction and MaxTypicalMethaneFraction bound the methane
	// content usually measured in landfill gas.
	MinTypicalMethaneFraction = 0.40
	MaxTypicalMethaneFraction = 0.60
)

// nmocMassFactor is the hexane-basis multiplier applied to concentration × LFG.
const nmocMassFactor = HexaneMolecularWeight / MethaneMolecularWeight
