package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/landgem/internal/config"
	"github.com/rshade/landgem/internal/landgem"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	logLevel string
	logger   zerolog.Logger
	runID    string
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:          "landgem",
		Short:        "Estimate landfill gas generation with the LandGEM first-order decay model",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogger(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"log level (debug, info, warn, error); defaults to $"+config.EnvLogLevel+" or info")

	rootCmd.AddCommand(a.presetsCmd())
	rootCmd.AddCommand(a.calculateCmd())
	rootCmd.AddCommand(a.projectCmd())
	rootCmd.AddCommand(a.runCmd())

	return rootCmd
}

// setupLogger builds the console logger, tags it with a fresh run ID and
// hands it to the calculation package.
func (a *app) setupLogger(w io.Writer) error {
	level := a.logLevel
	if level == "" {
		level = os.Getenv(config.EnvLogLevel)
	}
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	a.runID = uuid.New().String()
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Str("run_id", a.runID).
		Logger()
	landgem.SetLogger(a.logger)
	return nil
}

// setLevel applies a level from a scenario file unless --log-level was given.
func (a *app) setLevel(level string) error {
	if a.logLevel != "" || level == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	a.logger = a.logger.Level(lvl)
	landgem.SetLogger(a.logger)
	return nil
}

func (a *app) warnParameters(p landgem.Parameters) {
	for _, w := range p.Warnings() {
		a.logger.Warn().Str("parameters", p.String()).Msg(w)
	}
}
