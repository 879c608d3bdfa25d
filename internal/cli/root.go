// Package cli implements the cobra-based CLI commands for tapearc.
//
// Each subcommand (archive, retrieve) is defined in its own file within
// this package. This file defines the root command that serves as the
// parent for both subcommands and handles global flags, error formatting,
// and exit codes.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CliDyn/tapearc/internal/config"
	"github.com/CliDyn/tapearc/internal/model"
	"github.com/CliDyn/tapearc/internal/report"
)

// verbose enables detailed trace output for debugging. Bound to a cobra
// persistent flag on the root command, so it is available to every
// subcommand automatically.
var verbose bool

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action; actual functionality
// is provided by the archive and retrieve subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tapearc",
		Short: "Archive and retrieve directory trees via packems tape storage",
		Long: `tapearc moves large directory trees between the work filesystem, a scratch
staging area, and tape archive storage, by invoking the external packems and
unpackems utilities once per work unit.

A work unit is one named subdirectory of the configured source tree, or the
entire tree when no units are named. Units are processed strictly one at a
time; use --dry-run to see the exact packems invocations without moving any
data.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner batch logs.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Execute formats them with the ERROR: prefix instead.
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewArchiveCommand())
	rootCmd.AddCommand(NewRetrieveCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them into
// appropriate OS exit codes. CLIError types carry their own exit codes;
// other errors (including unknown flags, which are a usage error here)
// default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", cliErr.Error())
			os.Exit(int(cliErr.Code))
		}

		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(int(model.ExitGeneralError))
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// loadRunConfig resolves the configuration for a run: the JSONC config
// file when one was given, the built-in defaults otherwise. Flag overrides
// are applied by the callers on top of the returned value.
func loadRunConfig(configPath string) (config.Config, error) {
	if configPath != "" {
		VerboseLog("Loading config file %s", configPath)
		return config.Load(configPath)
	}
	return config.Default(""), nil
}

// validationError prints every accumulated problem with the ERROR: prefix
// and returns the CLIError that aborts the run before any dispatch.
func validationError(result model.ValidationResult, mode model.RunMode) error {
	for _, problem := range result.Problems {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", problem)
	}
	return model.NewCLIError(model.ExitConfigError,
		fmt.Sprintf("%s configuration invalid (%d problem(s) found)", mode, len(result.Problems)))
}

// emitRunReport delivers the YAML run report. In dry-run mode the report
// is printed to stdout so the run stays free of filesystem writes; in live
// mode it is written to the requested path.
func emitRunReport(rep *report.RunReport, path string, dryRun bool) error {
	if path == "" {
		return nil
	}
	if dryRun {
		fmt.Printf("[DRY RUN] Run report (would be written to %s):\n", path)
		return rep.Write(os.Stdout)
	}
	VerboseLog("Writing run report to %s", path)
	if err := rep.WriteFile(path); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to write run report", err)
	}
	return nil
}
