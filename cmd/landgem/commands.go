package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/landgem/internal/config"
	"github.com/rshade/landgem/internal/landgem"
	"github.com/rshade/landgem/internal/report"
	"github.com/rshade/landgem/internal/wastedata"
)

// modelFlags are the parameter, waste and option flags shared by calculate
// and project.
type modelFlags struct {
	preset          string
	decayRate       float64
	l0              float64
	methaneFraction float64
	nmoc            float64
	waste           string
	yearColumn      string
	massColumn      string
	efficiency      float64
	includeNMOC     bool
	discretization  string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "EPA default parameter set (see landgem presets)")
	fs.Float64Var(&f.decayRate, "k", 0, "methane generation rate constant (1/year)")
	fs.Float64Var(&f.l0, "l0", 0, "methane generation potential (m³/Mg)")
	fs.Float64Var(&f.methaneFraction, "methane-fraction", 0, "methane share of landfill gas (default 0.5 without a preset)")
	fs.Float64Var(&f.nmoc, "nmoc", 0, "NMOC concentration (ppmv as hexane)")
	fs.StringVar(&f.waste, "waste", "", "waste acceptance CSV file")
	fs.StringVar(&f.yearColumn, "year-column", wastedata.DefaultYearColumn, "CSV column holding the acceptance year")
	fs.StringVar(&f.massColumn, "mass-column", wastedata.DefaultMassColumn, "CSV column holding the accepted mass (Mg)")
	fs.Float64Var(&f.efficiency, "collection-efficiency", 0, "fraction of generated gas collected (0-1)")
	fs.BoolVar(&f.includeNMOC, "include-nmoc", false, "report NMOC emissions (needs a concentration)")
	fs.StringVar(&f.discretization, "discretization", landgem.AnnualDiscretization.String(), "time discretization: annual or tenth")
	_ = cmd.MarkFlagRequired("waste")
}

// engine resolves parameters the same way a scenario file does.
func (f *modelFlags) engine(cmd *cobra.Command) (*landgem.Engine, error) {
	s := config.Scenario{
		Preset: f.preset,
		Parameters: config.ParameterConfig{
			DecayRate:           f.decayRate,
			GenerationPotential: f.l0,
			MethaneFraction:     f.methaneFraction,
		},
	}
	if cmd.Flags().Changed("nmoc") {
		ppmv := f.nmoc
		s.Parameters.NMOCConcentration = &ppmv
	}
	params, err := s.ModelParameters()
	if err != nil {
		return nil, err
	}
	d, err := landgem.ParseDiscretization(f.discretization)
	if err != nil {
		return nil, err
	}
	return landgem.NewEngine(params, landgem.WithDiscretization(d))
}

func (f *modelFlags) history() (landgem.WasteHistory, error) {
	return wastedata.LoadFile(f.waste, wastedata.Columns{Year: f.yearColumn, Mass: f.massColumn})
}

func (f *modelFlags) options() landgem.CalculationOptions {
	return landgem.CalculationOptions{
		CollectionEfficiency: f.efficiency,
		IncludeNMOC:          f.includeNMOC,
	}
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the EPA default parameter sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tK (1/yr)\tL0 (m³/Mg)\tCH4\tNMOC (ppmv)\tDESCRIPTION")
			for _, name := range landgem.PresetNames() {
				info, _ := landgem.PresetDetail(name)
				p := info.Parameters
				ppmv, _ := p.NMOCConcentration()
				fmt.Fprintf(tw, "%s\t%g\t%g\t%g%%\t%g\t%s\n",
					name, p.DecayRate(), p.GenerationPotential(), p.MethaneFraction()*100, ppmv, info.Description)
			}
			return tw.Flush()
		},
	}
}

func (a *app) calculateCmd() *cobra.Command {
	var (
		flags modelFlags
		year  int
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate gas generation for a single year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := flags.engine(cmd)
			if err != nil {
				return err
			}
			a.warnParameters(engine.Parameters())

			history, err := flags.history()
			if err != nil {
				return err
			}

			result, err := engine.CalculateEmissions(history, year, flags.options())
			if err != nil {
				return err
			}
			a.logger.Debug().
				Int("year", year).
				Int("deposits", len(history)).
				Float64("ch4_rate", result.CH4Rate).
				Msg("emissions calculated")

			return printResult(cmd.OutOrStdout(), year, engine.Parameters(), result)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "target year")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func printResult(w io.Writer, year int, p landgem.Parameters, r landgem.EmissionResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Year %d (%s)\n", year, p)
	fmt.Fprintf(tw, "  CH4 generation\t%.2f\tm³/yr\n", r.CH4Rate)
	fmt.Fprintf(tw, "  Total LFG generation\t%.2f\tm³/yr\n", r.TotalLFGRate)
	fmt.Fprintf(tw, "  CO2 generation\t%.2f\tm³/yr\n", r.CO2Rate)
	if r.HasNMOC {
		fmt.Fprintf(tw, "  NMOC emission\t%.6f\tMg/yr\n", r.NMOCRate)
	}
	if r.HasCollection {
		fmt.Fprintf(tw, "  Collected CH4\t%.2f\tm³/yr\n", r.CollectedCH4Rate)
		fmt.Fprintf(tw, "  Collected LFG\t%.2f\tm³/yr\n", r.CollectedLFGRate)
	}
	return tw.Flush()
}

// outputFlags select the report format and destination.
type outputFlags struct {
	format string
	path   string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", config.FormatCSV, "output format: csv or json")
	cmd.Flags().StringVarP(&o.path, "output", "o", "", "output file (default stdout)")
}

func (a *app) projectCmd() *cobra.Command {
	var (
		flags    modelFlags
		out      outputFlags
		from, to int
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project gas generation over a range of years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if to < from {
				return fmt.Errorf("--to (%d) is before --from (%d)", to, from)
			}
			engine, err := flags.engine(cmd)
			if err != nil {
				return err
			}
			a.warnParameters(engine.Parameters())

			history, err := flags.history()
			if err != nil {
				return err
			}

			years := make([]int, 0, to-from+1)
			for y := from; y <= to; y++ {
				years = append(years, y)
			}
			table, err := engine.CalculateTimeSeries(history, years, landgem.ProjectionOptions{
				CalculationOptions: flags.options(),
				Workers:            workers,
			})
			if err != nil {
				return err
			}
			a.logPeak(table)

			meta := a.metadata("LandGEM projection", engine.Parameters().String())
			return writeOutput(cmd.OutOrStdout(), out.path, out.format, func(w io.Writer) error {
				if isJSON(out.format) {
					return report.WriteJSON(w, table, meta)
				}
				return report.WriteCSV(w, table, meta)
			})
		},
	}

	flags.register(cmd)
	out.register(cmd)
	cmd.Flags().IntVar(&from, "from", 0, "first projection year")
	cmd.Flags().IntVar(&to, "to", 0, "last projection year")
	cmd.Flags().IntVar(&workers, "workers", 0, "years computed concurrently")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario described by a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.Load(path, a.logger)
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return fmt.Errorf("invalid scenario: %w", err)
			}
			if err := a.setLevel(s.Log.Level); err != nil {
				return err
			}
			return a.runScenario(cmd.OutOrStdout(), s)
		},
	}

	cmd.Flags().StringVarP(&path, "config", "c", "", "scenario file (default $"+config.EnvConfigPath+")")
	return cmd
}

func (a *app) runScenario(stdout io.Writer, s config.Scenario) error {
	title := s.Title
	if title == "" {
		title = "LandGEM projection"
	}
	if s.IsMultiStream() {
		return a.runMultiStream(stdout, s, title)
	}

	params, err := s.ModelParameters()
	if err != nil {
		return err
	}
	a.warnParameters(params)

	d, err := s.DiscretizationMode()
	if err != nil {
		return err
	}
	engine, err := landgem.NewEngine(params, landgem.WithDiscretization(d))
	if err != nil {
		return err
	}
	history, err := s.WasteHistory()
	if err != nil {
		return err
	}
	table, err := engine.CalculateTimeSeries(history, s.Years(), s.ProjectionOptions())
	if err != nil {
		return err
	}
	a.logPeak(table)

	meta := a.metadata(title, params.String())
	return writeOutput(stdout, s.Output.Path, s.Output.Format, func(w io.Writer) error {
		if isJSON(s.Output.Format) {
			return report.WriteJSON(w, table, meta)
		}
		return report.WriteCSV(w, table, meta)
	})
}

// runMultiStream projects every stream with its own parameters. The report
// metadata lists each stream's resolved parameters.
func (a *app) runMultiStream(stdout io.Writer, s config.Scenario, title string) error {
	agg, err := s.Aggregator()
	if err != nil {
		return err
	}
	defs := agg.Streams()
	described := make([]string, 0, len(defs))
	for _, def := range defs {
		a.warnParameters(def.Parameters)
		described = append(described, def.Name+": "+def.Parameters.String())
	}

	data, err := s.StreamData()
	if err != nil {
		return err
	}
	table, err := agg.CalculateTimeSeries(data, s.Years(), s.ProjectionOptions())
	if err != nil {
		return err
	}
	a.logger.Info().
		Int("years", len(table.Rows)).
		Strs("streams", table.StreamNames).
		Msg("multi-stream projection complete")

	meta := a.metadata(title, strings.Join(described, "; "))
	return writeOutput(stdout, s.Output.Path, s.Output.Format, func(w io.Writer) error {
		if isJSON(s.Output.Format) {
			return report.WriteMultiStreamJSON(w, table, meta)
		}
		return report.WriteMultiStreamCSV(w, table, meta)
	})
}

func (a *app) metadata(title, params string) report.Metadata {
	return report.Metadata{
		Title:       title,
		GeneratedAt: time.Now().UTC(),
		RunID:       a.runID,
		Parameters:  params,
	}
}

func (a *app) logPeak(table landgem.ProjectionTable) {
	peak, ok := table.Peak()
	if !ok {
		return
	}
	a.logger.Info().
		Int("years", len(table.Rows)).
		Int("peak_year", peak.Year).
		Float64("peak_ch4_rate", peak.CH4Rate).
		Msg("projection complete")
}

func isJSON(format string) bool {
	return strings.EqualFold(format, config.FormatJSON)
}

// writeOutput runs write against path, or stdout when path is empty.
func writeOutput(stdout io.Writer, path, format string, write func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "", config.FormatCSV, config.FormatJSON:
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}

	if path == "" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		return errors.Join(err, f.Close(), os.Remove(path))
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
