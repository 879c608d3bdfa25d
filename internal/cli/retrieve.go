// Package cli — retrieve.go implements the "tapearc retrieve" command.
//
// Retrieve is the inverse of archive: for each work unit, unpackems reads
// the unit's tar balls from the staging area and unpacks them into the
// restore destination. The dry run previews each unit's INDEX.txt manifest
// so the operator can confirm what is about to be restored.
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

// retrieveFlags holds the flag values for the retrieve command.
type retrieveFlags struct {
	configPath string   // --config: JSONC config file
	dryRun     bool     // -n/--dry-run: print actions, move nothing
	units      []string // --unit: named subdirectory, repeatable, ordered
	archive    string   // --archive: tape archive root override
	dest       string   // --dest: restore destination override
	staging    string   // --staging: scratch staging root override
	reportPath string   // --report: YAML run report destination
}

// NewRetrieveCommand creates the "retrieve" cobra command.
func NewRetrieveCommand() *cobra.Command {
	flags := &retrieveFlags{}

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Unpack archived tar balls from staging into a restore destination",
		Long: `Retrieve previously archived units by unpacking their tar balls from the
staging area into the restore destination.

The tar balls must already be present in staging (fetched back from tape by
packems tooling). Use --dry-run to preview each unit's INDEX.txt manifest
and the exact unpackems invocations before restoring anything.

Examples:
  tapearc retrieve --unit run1 --dest /work/ab0995/$USER/restored
  tapearc retrieve --dry-run
  tapearc retrieve --config archive.jsonc --report restore.yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRetrieve(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "JSONC config file")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Print the unpackems invocations without moving any data")
	cmd.Flags().StringArrayVar(&flags.units, "unit", nil, "Subdirectory to retrieve (repeatable; order is processing order)")
	cmd.Flags().StringVar(&flags.archive, "archive", "", "Archive root the units were shipped to")
	cmd.Flags().StringVar(&flags.dest, "dest", "", "Restore destination on the work filesystem")
	cmd.Flags().StringVar(&flags.staging, "staging", "", "Staging root holding the fetched tar balls")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a YAML run report to this file")

	return cmd
}

// runRetrieve is the main orchestration function for the retrieve command.
func runRetrieve(ctx context.Context, flags *retrieveFlags) error {
	cfg, err := loadRunConfig(flags.configPath)
	if err != nil {
		return err
	}
	applyRetrieveOverrides(&cfg, flags)
	VerboseLog("Staging root: %s", cfg.BaseStaging)
	VerboseLog("Restore destination: %s", cfg.RestoreDest)

	if result := plan.ValidateRetrieve(cfg); !result.OK() {
		return validationError(result, model.ModeRetrieve)
	}

	units := plan.Resolve(cfg, model.ModeRetrieve)
	VerboseLog("Resolved %d work unit(s)", len(units))

	reporter := report.New(os.Stdout)
	reporter.Banner(cfg, model.ModeRetrieve)

	runReport := report.NewRunReport(cfg, model.ModeRetrieve)
	runner := packems.NewRunner(os.Stdout, os.Stderr)
	disp := dispatch.New(cfg, runner, reporter, os.Stdout, os.Stderr)

	results, err := disp.RunRetrieve(ctx, units)
	if err != nil {
		return err
	}

	runReport.Finish(results)
	reporter.Summary(cfg, model.ModeRetrieve, results)

	return emitRunReport(runReport, flags.reportPath, cfg.DryRun)
}

// applyRetrieveOverrides layers the command-line flags on top of the
// loaded configuration.
func applyRetrieveOverrides(cfg *config.Config, flags *retrieveFlags) {
	if flags.archive != "" {
		cfg.BaseArchive = flags.archive
	}
	if flags.dest != "" {
		cfg.RestoreDest = flags.dest
	}
	if flags.staging != "" {
		cfg.BaseStaging = flags.staging
	}
	if len(flags.units) > 0 {
		cfg.Units = flags.units
	}
	cfg.DryRun = flags.dryRun
}
