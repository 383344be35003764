package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "interflop-demo",
	Short: "Drives a Monte Carlo Arithmetic perturbation backend over a synthetic op stream",
	Long: `interflop-demo loads one perturbation backend (ieee, bitmask, cancellation,
mcaquad or mcaint), configures it from a YAML file, and runs a small synthetic
stream of floating-point operations through it so the perturbation in effect
can be observed directly.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (built-in defaults are used when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
