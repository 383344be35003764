package main

import (
	"fmt"
	"os"

	"github.com/mca-tools/interflop-go/pkg/config"
	"github.com/mca-tools/interflop-go/pkg/interrors"
	"github.com/mca-tools/interflop-go/pkg/session"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Load the configured backend and run a synthetic op stream through it",
	RunE:  runDemo,
}

func init() {
	runCmd.Flags().String("backend", "", "backend name (overrides config): ieee|bitmask|cancellation|mcaquad|mcaint")
}

func runDemo(cmd *cobra.Command, args []string) error {
	backendOverride, _ := cmd.Flags().GetString("backend")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if backendOverride != "" {
		cfg.Backend = backendOverride
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := telemetry.LevelInfo
	if verbose {
		level = telemetry.LevelDebug
	} else if cfg.Logging.Level != "" {
		level = telemetry.Level(cfg.Logging.Level)
	}
	logger := telemetry.NewLogger(telemetry.LoggerConfig{Level: level, Output: os.Stdout})

	logger.Info("interflop-demo starting", "version", version, "backend", cfg.Backend)

	loaded, err := session.Build(cfg, logger, interrors.DefaultPanicHandler)
	if err != nil {
		return fmt.Errorf("failed to build backend: %w", err)
	}

	for _, op := range syntheticStream() {
		result := evaluate(loaded, op)
		fmt.Printf("%-4s %-24v %-24v -> %v\n", op.name, op.a, op.b, result)
	}

	if loaded.Table.Finalize != nil {
		loaded.Table.Finalize()
	}
	return nil
}

type syntheticOp struct {
	name string
	a, b float64
}

func syntheticStream() []syntheticOp {
	return []syntheticOp{
		{"add", 1.0, 2.0},
		{"sub", 1.0000000001, 1.0},
		{"mul", 1.23456789, 9.87654321},
		{"div", 22.0, 7.0},
		{"add", 1e8, 1.0},
		{"div", 1.0, 0.0},
	}
}

func evaluate(loaded *session.Loaded, op syntheticOp) float64 {
	table := loaded.Table
	switch op.name {
	case "add":
		return table.AddFloat64(op.a, op.b)
	case "sub":
		return table.SubFloat64(op.a, op.b)
	case "mul":
		return table.MulFloat64(op.a, op.b)
	case "div":
		return table.DivFloat64(op.a, op.b)
	default:
		return 0
	}
}
