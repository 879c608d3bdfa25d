// Package report renders the user-facing progress text for a tapearc run
// and the optional machine-readable YAML run report.
//
// All output goes through an injected io.Writer so tests capture it with a
// bytes.Buffer. The text format is purely presentational and has no
// control-flow impact; the severity prefixes (ERROR:, WARNING:, [DRY RUN],
// Note:) are stable so batch-log consumers can grep for them.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/CliDyn/tapearc/internal/config"
	"github.com/CliDyn/tapearc/internal/model"
)

const rule = "----------------------------------------------------------------"
const doubleRule = "================================================================"

// Reporter writes the banner, per-unit progress blocks, and the closing
// summary for one run.
type Reporter struct {
	out io.Writer
}

// New creates a Reporter writing to out.
func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Banner prints the run header: mode, dry-run marker, and the resolved
// configuration values. An empty unit list is shown as a placeholder
// ("(entire source directory)" or "(entire archive)") rather than an empty
// string, so the log records the whole-tree intent explicitly.
func (r *Reporter) Banner(cfg config.Config, mode model.RunMode) {
	title := fmt.Sprintf("tapearc %s", mode)
	if cfg.DryRun {
		title += " (DRY RUN)"
	}

	fmt.Fprintln(r.out, doubleRule)
	fmt.Fprintf(r.out, " %s\n", title)
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, " User:          %s\n", cfg.User)
	fmt.Fprintf(r.out, " Project:       %s\n", cfg.Project)
	if mode == model.ModeArchive {
		fmt.Fprintf(r.out, " Source:        %s\n", cfg.BaseSource)
		fmt.Fprintf(r.out, " Archive:       %s\n", cfg.BaseArchive)
	} else {
		fmt.Fprintf(r.out, " Archive:       %s\n", cfg.BaseArchive)
		fmt.Fprintf(r.out, " Restore to:    %s\n", cfg.RestoreDest)
	}
	fmt.Fprintf(r.out, " Staging:       %s\n", cfg.BaseStaging)
	fmt.Fprintf(r.out, " Units:         %s\n", unitList(cfg.Units, mode))
	if mode == model.ModeArchive {
		fmt.Fprintf(r.out, " Tar balls:     %d GB target, %d GB max\n",
			cfg.TargetSizeGB, cfg.MaxSizeGB)
	}
	fmt.Fprintln(r.out, doubleRule)
}

// UnitStart prints the opening block for one work unit.
func (r *Reporter) UnitStart(unit model.WorkUnit, index, total int) {
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, " [%d/%d] %s\n", index, total, unit.Name)
	fmt.Fprintf(r.out, "   source:  %s\n", unit.SourcePath)
	fmt.Fprintf(r.out, "   staging: %s\n", unit.StagingPath)
	fmt.Fprintf(r.out, "   remote:  %s\n", unit.RemotePath)
}

// UnitDone prints the completion marker for one work unit.
func (r *Reporter) UnitDone(unit model.WorkUnit) {
	fmt.Fprintf(r.out, " [done] %s\n", unit.Name)
}

// Summary prints the closing block naming the run complete (or dry-run
// complete) and the final archive or restore root.
func (r *Reporter) Summary(cfg config.Config, mode model.RunMode, results []model.UnitResult) {
	done, skipped := 0, 0
	for _, res := range results {
		switch res.Outcome {
		case model.OutcomeSkipped:
			skipped++
		default:
			done++
		}
	}

	fmt.Fprintln(r.out, rule)
	if cfg.DryRun {
		fmt.Fprintf(r.out, " Dry run complete: %d unit(s) planned, nothing was moved\n", done)
	} else {
		fmt.Fprintf(r.out, " %s run complete: %d unit(s) processed", titleCase(string(mode)), done)
		if skipped > 0 {
			fmt.Fprintf(r.out, ", %d skipped", skipped)
		}
		fmt.Fprintln(r.out)
	}
	if mode == model.ModeArchive {
		fmt.Fprintf(r.out, " Archive root: %s\n", cfg.BaseArchive)
	} else {
		fmt.Fprintf(r.out, " Restore root: %s\n", cfg.RestoreDest)
	}
	fmt.Fprintln(r.out, doubleRule)
}

// unitList renders the configured unit names, falling back to a mode
// specific placeholder for the whole-tree case.
func unitList(units []string, mode model.RunMode) string {
	if len(units) == 0 {
		if mode == model.ModeRetrieve {
			return "(entire archive)"
		}
		return "(entire source directory)"
	}
	return strings.Join(units, ", ")
}

// titleCase upper-cases the first byte of an ASCII word. Mode names are
// ASCII by construction, so no Unicode handling is needed.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RunReport is the machine-readable record of one run, written as YAML
// when the user passes --report. Batch pipelines use it to track what was
// shipped to tape without scraping the job log.
type RunReport struct {
	// RunID uniquely identifies this run across job logs and reports.
	RunID string `yaml:"runId"`

	Mode   model.RunMode `yaml:"mode"`
	DryRun bool          `yaml:"dryRun"`

	// Started and Finished bracket the dispatch phase, not the whole
	// process.
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished"`

	User    string `yaml:"user"`
	Project string `yaml:"project"`

	Units []model.UnitResult `yaml:"units"`
}

// NewRunReport creates a report skeleton with a fresh run ID and the start
// timestamp set to now.
func NewRunReport(cfg config.Config, mode model.RunMode) *RunReport {
	return &RunReport{
		RunID:   uuid.NewString(),
		Mode:    mode,
		DryRun:  cfg.DryRun,
		Started: time.Now().UTC(),
		User:    cfg.User,
		Project: cfg.Project,
	}
}

// Finish records the results and the completion timestamp.
func (r *RunReport) Finish(results []model.UnitResult) {
	r.Units = results
	r.Finished = time.Now().UTC()
}

// Write marshals the report as YAML to w.
func (r *RunReport) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	return enc.Close()
}

// WriteFile writes the report to path, creating or truncating the file.
// Callers must not invoke this in dry-run mode; the CLI prints the report
// to stdout instead so dry runs stay free of filesystem mutation.
func (r *RunReport) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create run report %s: %w", path, err)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
