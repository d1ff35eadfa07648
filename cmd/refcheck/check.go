package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/refcheck/refcheck/internal/cache"
	"github.com/refcheck/refcheck/internal/output"
	"github.com/refcheck/refcheck/internal/progress"
	"github.com/refcheck/refcheck/internal/scanner"
	"github.com/refcheck/refcheck/pkg/analyzer"
	"github.com/refcheck/refcheck/pkg/analyzer/varref"
	"github.com/refcheck/refcheck/pkg/config"
	"github.com/refcheck/refcheck/pkg/models"
)

var checkCmd = &cobra.Command{
	Use:          "check [path...]",
	Short:        "Check variable references in JavaScript sources",
	RunE:         runCheck,
	SilenceUsage: true,
}

func init() {
	checkCmd.Flags().Bool("unused", false, "Warn about local assignments that are never read")
	checkCmd.Flags().Bool("no-cache", false, "Disable the analysis cache")
	checkCmd.Flags().String("format", "", "Output format: text, json, markdown")
	checkCmd.Flags().StringP("output", "o", "", "Write output to file")

	rootCmd.AddCommand(checkCmd)
}

func loadConfig() *config.Config {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err == nil {
			return cfg
		}
		color.Yellow("Could not load config %s: %v; using defaults", cfgFile, err)
	}
	return config.LoadOrDefault()
}

func runCheck(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	cfg := loadConfig()
	if unused, _ := cmd.Flags().GetBool("unused"); unused {
		cfg.Check.UnusedLocalAssignment = true
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	files, err := scanner.New(cfg).ScanPaths(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}

	fingerprint := cfg.Fingerprint()
	keys := make(map[string]string, len(files))
	var cached []models.Diagnostic
	var remaining []string
	for _, f := range files {
		key, err := cache.HashFile(f, fingerprint)
		if err != nil {
			remaining = append(remaining, f)
			continue
		}
		keys[f] = key
		if diags, ok := store.Get(key); ok {
			cached = append(cached, diags...)
			continue
		}
		remaining = append(remaining, f)
	}

	var opts []varref.Option
	if cfg.Check.UnusedLocalAssignment {
		opts = append(opts, varref.WithUnusedLocalCheck())
	}
	if cfg.Check.WarnUnusedImports {
		opts = append(opts, varref.WithWarnUnusedImports())
	}
	if len(cfg.Externs.Patterns) > 0 {
		opts = append(opts, varref.WithExternsPatterns(cfg.Externs.Patterns))
	}
	if cfg.Check.MaxFileSize > 0 {
		opts = append(opts, varref.WithMaxFileSize(cfg.Check.MaxFileSize))
	}

	a := varref.New(opts...)
	defer a.Close()

	bar := progress.NewTracker("Checking references...", len(remaining))
	tracker := analyzer.NewTracker(func(current, total int, path string) {
		bar.Tick()
	})
	ctx := analyzer.WithTracker(context.Background(), tracker)

	result, err := a.Analyze(ctx, remaining)
	bar.FinishSuccess()
	if err != nil && result == nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if err != nil && verbose {
		color.Yellow("%v", err)
	}

	// Refresh the cache for every file just analyzed, including clean
	// ones.
	byFile := make(map[string][]models.Diagnostic)
	for _, d := range result.Diagnostics {
		byFile[d.File] = append(byFile[d.File], d)
	}
	for _, f := range remaining {
		if key, ok := keys[f]; ok {
			store.Put(key, byFile[f])
		}
	}

	all := append(cached, result.Diagnostics...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		return all[i].Offset < all[j].Offset
	})

	summary := models.NewReferenceSummary()
	summary.TotalFilesAnalyzed = len(files)
	for _, d := range all {
		summary.Add(d)
	}
	analysis := &models.ReferenceAnalysis{Diagnostics: all, Summary: summary}

	format := cfg.Output.Format
	if flagFormat, _ := cmd.Flags().GetString("format"); flagFormat != "" {
		format = flagFormat
	}
	outFile, _ := cmd.Flags().GetString("output")

	formatter, err := output.NewFormatter(output.ParseFormat(format), outFile, cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON {
		if err := formatter.Output(analysis); err != nil {
			return err
		}
	} else if len(all) > 0 {
		var rows [][]string
		for _, d := range all {
			sev := d.Severity.String()
			if formatter.Colored() {
				if d.Severity == models.SeverityError {
					sev = color.RedString(sev)
				} else {
					sev = color.YellowString(sev)
				}
			}
			rows = append(rows, []string{
				d.Location(),
				sev,
				d.Kind.String(),
				d.Message,
			})
		}
		table := output.NewTable(
			"Variable Reference Diagnostics",
			[]string{"Location", "Severity", "Kind", "Message"},
			rows,
			nil,
			analysis,
		)
		if err := formatter.Output(table); err != nil {
			return err
		}
	}

	if formatter.Format() != output.FormatJSON {
		fmt.Fprintf(formatter.Writer(), "\nSummary: %d errors, %d warnings across %d files\n",
			summary.TotalErrors, summary.TotalWarnings, summary.TotalFilesAnalyzed)
	}

	if summary.TotalErrors > 0 {
		os.Exit(2)
	}
	return nil
}
