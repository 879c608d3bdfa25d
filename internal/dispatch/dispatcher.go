// Package dispatch executes the resolved work units sequentially.
//
// Units are processed one at a time in resolver order; a unit's dispatch
// never begins before the previous unit's external invocation has returned.
// Concurrency across units is deliberately not offered: packems invocations
// contend for the same tape drives and staging bandwidth, and each unit's
// INDEX.txt manifest is order-sensitive within its directory.
//
// Two policies are fixed here and surfaced in the error taxonomy:
//
//   - A named unit whose source directory is missing at dispatch time is
//     skipped with a WARNING and the run continues (archive mode only).
//   - A non-zero exit from packems/unpackems is fatal and fail-fast: the
//     remaining units are not attempted.
package dispatch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/CliDyn/tapearc/internal/config"
	"github.com/CliDyn/tapearc/internal/model"
	"github.com/CliDyn/tapearc/internal/packems"
	"github.com/CliDyn/tapearc/internal/report"
)

// manifestName is the per-unit file manifest written by packems into the
// staging directory. Read-only to tapearc.
const manifestName = "INDEX.txt"

// manifestPreviewLines bounds the dry-run manifest preview.
const manifestPreviewLines = 20

// stagingDirPerm is the mode for directories created before invoking the
// external tool.
const stagingDirPerm = 0o755

// Dispatcher runs work units against a Packer, reporting progress as it
// goes. In dry-run mode it never creates a directory and never invokes the
// Packer; it only prints what a live run would do.
type Dispatcher struct {
	cfg      config.Config
	packer   packems.Packer
	reporter *report.Reporter
	out      io.Writer
	errOut   io.Writer
}

// New creates a Dispatcher. Progress text and dry-run diagnostics go to
// out; warnings go to errOut.
func New(cfg config.Config, packer packems.Packer, reporter *report.Reporter, out, errOut io.Writer) *Dispatcher {
	return &Dispatcher{cfg: cfg, packer: packer, reporter: reporter, out: out, errOut: errOut}
}

// RunArchive dispatches the units of an archive run in order.
//
// In named-units mode each unit's source directory is re-checked here, at
// dispatch time: a missing directory yields a WARNING and a skip, not an
// abort, so one mistyped name does not sink a multi-terabyte run. In
// whole-tree mode the validator's earlier source-root check is the only
// guard.
//
// The returned results cover every unit dispatched so far; on a packems
// failure they are partial and the error carries ExitPackemsError.
func (d *Dispatcher) RunArchive(ctx context.Context, units []model.WorkUnit) ([]model.UnitResult, error) {
	named := len(d.cfg.Units) > 0
	results := make([]model.UnitResult, 0, len(units))

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return results, model.WrapCLIError(model.ExitGeneralError, "run interrupted", err)
		}

		d.reporter.UnitStart(unit, i+1, len(units))

		if named && !dirExists(unit.SourcePath) {
			fmt.Fprintf(d.errOut, "WARNING: Directory not found: %s (skipping unit %s)\n",
				unit.SourcePath, unit.Name)
			results = append(results, model.UnitResult{Unit: unit, Outcome: model.OutcomeSkipped})
			continue
		}

		opts := packems.PackOptions{
			TargetSizeGB: d.cfg.TargetSizeGB,
			MaxSizeGB:    d.cfg.MaxSizeGB,
			StagingDir:   unit.StagingPath,
			ArchiveDir:   unit.RemotePath,
			Prefix:       unit.Name,
			SourceDir:    unit.SourcePath,
		}

		if d.cfg.DryRun {
			fmt.Fprintf(d.out, "[DRY RUN] Would run: %s\n",
				packems.CommandString(packems.PackCommand(opts)))
			d.printSourceSize(unit.SourcePath)
			results = append(results, model.UnitResult{Unit: unit, Outcome: model.OutcomePlanned})
			continue
		}

		if err := os.MkdirAll(unit.StagingPath, stagingDirPerm); err != nil {
			return results, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to create staging directory %s", unit.StagingPath), err)
		}
		if err := d.packer.Pack(ctx, opts); err != nil {
			// Fail fast: a tape-side failure for one unit usually means the
			// next units would fail the same way, and a half-shipped run is
			// easier to reason about than an interleaved one.
			return results, err
		}

		d.reporter.UnitDone(unit)
		results = append(results, model.UnitResult{Unit: unit, Outcome: model.OutcomePacked})
	}

	return results, nil
}

// RunRetrieve dispatches the units of a retrieve run in order.
//
// Dry runs additionally preview the unit's INDEX.txt manifest from staging
// when one exists, so the operator can confirm the right tar balls are
// about to be unpacked; a missing manifest is a Note, never a failure.
func (d *Dispatcher) RunRetrieve(ctx context.Context, units []model.WorkUnit) ([]model.UnitResult, error) {
	results := make([]model.UnitResult, 0, len(units))

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return results, model.WrapCLIError(model.ExitGeneralError, "run interrupted", err)
		}

		d.reporter.UnitStart(unit, i+1, len(units))

		opts := packems.UnpackOptions{
			DestDir:    unit.RemotePath,
			StagingDir: unit.StagingPath,
		}

		if d.cfg.DryRun {
			fmt.Fprintf(d.out, "[DRY RUN] Would run: %s\n",
				packems.CommandString(packems.UnpackCommand(opts)))
			d.previewManifest(unit.StagingPath)
			results = append(results, model.UnitResult{Unit: unit, Outcome: model.OutcomePlanned})
			continue
		}

		if err := os.MkdirAll(unit.RemotePath, stagingDirPerm); err != nil {
			return results, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to create restore directory %s", unit.RemotePath), err)
		}
		if err := d.packer.Unpack(ctx, opts); err != nil {
			return results, err
		}

		d.reporter.UnitDone(unit)
		results = append(results, model.UnitResult{Unit: unit, Outcome: model.OutcomePacked})
	}

	return results, nil
}

// printSourceSize reports the human-readable size of the source tree
// during an archive dry run. Size computation can fail on permission
// errors or trees mutating underneath us; that is non-fatal and the line
// is simply omitted.
func (d *Dispatcher) printSourceSize(sourcePath string) {
	size, err := dirSize(sourcePath)
	if err != nil {
		return
	}
	fmt.Fprintf(d.out, "[DRY RUN] Source size: %s\n", humanize.IBytes(size))
}

// previewManifest shows the first lines of the unit's INDEX.txt during a
// retrieve dry run, or an explicit Note when no manifest is present.
func (d *Dispatcher) previewManifest(stagingPath string) {
	path := filepath.Join(stagingPath, manifestName)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(d.out, "Note: no %s found in %s\n", manifestName, stagingPath)
		return
	}
	defer f.Close()

	fmt.Fprintf(d.out, "[DRY RUN] Manifest preview (first %d lines of %s):\n",
		manifestPreviewLines, path)

	scanner := bufio.NewScanner(f)
	for i := 0; i < manifestPreviewLines && scanner.Scan(); i++ {
		fmt.Fprintf(d.out, "  %s\n", scanner.Text())
	}
}

// dirSize walks the tree rooted at path and sums regular file sizes.
func dirSize(path string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(path, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			info, infoErr := entry.Info()
			if infoErr != nil {
				return infoErr
			}
			total += uint64(info.Size())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure %s: %w", strings.TrimSuffix(path, "/"), err)
	}
	return total, nil
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
