package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "refcheck",
	Short: "Variable-reference checks for JavaScript",
	Long: `Refcheck analyzes JavaScript sources (ES5, ES6 modules, and
goog.module files) for misused variable references: redeclarations,
uses before declaration, writes to constants, block-scoped declarations
outside blocks, and assignments nothing ever reads.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
}
