// Package cli — archive.go implements the "tapearc archive" command.
//
// Orchestration steps:
//  1. Resolve configuration (defaults, optional JSONC file, flag overrides)
//  2. Validate the source tree and named units, aborting on problems
//  3. Resolve the ordered work-unit sequence
//  4. Dispatch units one at a time (dry-run prints, live run packs)
//  5. Print the closing summary and emit the optional YAML run report
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/CliDyn/tapearc/internal/config"
	"github.com/CliDyn/tapearc/internal/dispatch"
	"github.com/CliDyn/tapearc/internal/model"
	"github.com/CliDyn/tapearc/internal/packems"
	"github.com/CliDyn/tapearc/internal/plan"
	"github.com/CliDyn/tapearc/internal/report"
)

// archiveFlags holds the flag values for the archive command.
// These are bound to cobra flags in NewArchiveCommand.
type archiveFlags struct {
	configPath string   // --config: JSONC config file
	dryRun     bool     // -n/--dry-run: print actions, move nothing
	units      []string // --unit: named subdirectory, repeatable, ordered
	source     string   // --source: base source tree override
	archive    string   // --archive: tape archive root override
	staging    string   // --staging: scratch staging root override
	targetSize int      // --target-size: tar-ball target size in GB
	maxSize    int      // --max-size: tar-ball hard limit in GB
	reportPath string   // --report: YAML run report destination
}

// NewArchiveCommand creates the "archive" cobra command.
func NewArchiveCommand() *cobra.Command {
	flags := &archiveFlags{}

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Pack directories into tar balls and ship them to tape",
		Long: `Archive the configured source tree (or named subdirectories of it) to tape
storage via packems.

For each work unit, packems packs the source directory into size-limited tar
balls in the staging area, writes an INDEX.txt manifest, and transfers the
tar balls to the archive destination. Units are processed strictly one at a
time in the given order. A named unit whose directory is missing is skipped
with a warning; a packems failure aborts the remaining units.

Examples:
  tapearc archive --unit run1 --unit run2 --unit log
  tapearc archive --source /work/ab0995/$USER/SPIN2 --dry-run
  tapearc archive --config archive.jsonc --report run.yaml`,

		Args: cobra.NoArgs,

		// RunE is used instead of Run so errors reach the Execute error
		// handler in root.go, which maps them to exit codes.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runArchive(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "JSONC config file")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Print the packems invocations without moving any data")
	cmd.Flags().StringArrayVar(&flags.units, "unit", nil, "Subdirectory to archive (repeatable; order is processing order)")
	cmd.Flags().StringVar(&flags.source, "source", "", "Source tree on the work filesystem")
	cmd.Flags().StringVar(&flags.archive, "archive", "", "Destination root on the tape archive")
	cmd.Flags().StringVar(&flags.staging, "staging", "", "Staging root on the scratch filesystem")
	cmd.Flags().IntVar(&flags.targetSize, "target-size", 0, "Tar-ball target size in GB")
	cmd.Flags().IntVar(&flags.maxSize, "max-size", 0, "Tar-ball maximum size in GB")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a YAML run report to this file")

	return cmd
}

// runArchive is the main orchestration function for the archive command.
func runArchive(ctx context.Context, flags *archiveFlags) error {
	cfg, err := loadRunConfig(flags.configPath)
	if err != nil {
		return err
	}
	applyArchiveOverrides(&cfg, flags)
	VerboseLog("Source tree: %s", cfg.BaseSource)
	VerboseLog("Archive root: %s", cfg.BaseArchive)

	// All problems are reported together before aborting, so one run of
	// the command surfaces every misconfiguration at once.
	if result := plan.ValidateArchive(cfg); !result.OK() {
		return validationError(result, model.ModeArchive)
	}

	units := plan.Resolve(cfg, model.ModeArchive)
	VerboseLog("Resolved %d work unit(s)", len(units))

	reporter := report.New(os.Stdout)
	reporter.Banner(cfg, model.ModeArchive)

	runReport := report.NewRunReport(cfg, model.ModeArchive)
	runner := packems.NewRunner(os.Stdout, os.Stderr)
	disp := dispatch.New(cfg, runner, reporter, os.Stdout, os.Stderr)

	results, err := disp.RunArchive(ctx, units)
	if err != nil {
		return err
	}

	runReport.Finish(results)
	reporter.Summary(cfg, model.ModeArchive, results)

	return emitRunReport(runReport, flags.reportPath, cfg.DryRun)
}

// applyArchiveOverrides layers the command-line flags on top of the loaded
// configuration. After this point the configuration is never mutated.
func applyArchiveOverrides(cfg *config.Config, flags *archiveFlags) {
	if flags.source != "" {
		cfg.BaseSource = flags.source
	}
	if flags.archive != "" {
		cfg.BaseArchive = flags.archive
	}
	if flags.staging != "" {
		cfg.BaseStaging = flags.staging
	}
	if len(flags.units) > 0 {
		cfg.Units = flags.units
	}
	if flags.targetSize > 0 {
		cfg.TargetSizeGB = flags.targetSize
	}
	if flags.maxSize > 0 {
		cfg.MaxSizeGB = flags.maxSize
	}
	cfg.DryRun = flags.dryRun
}
