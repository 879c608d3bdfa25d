package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CliDyn/tapearc/internal/config"
	"github.com/CliDyn/tapearc/internal/model"
	"github.com/CliDyn/tapearc/internal/packems"
	"github.com/CliDyn/tapearc/internal/plan"
	"github.com/CliDyn/tapearc/internal/report"
)

// fakePacker records invocations instead of performing tape I/O.
type fakePacker struct {
	packCalls   []packems.PackOptions
	unpackCalls []packems.UnpackOptions
	packErr     error
	unpackErr   error
}

func (f *fakePacker) Pack(_ context.Context, opts packems.PackOptions) error {
	f.packCalls = append(f.packCalls, opts)
	return f.packErr
}

func (f *fakePacker) Unpack(_ context.Context, opts packems.UnpackOptions) error {
	f.unpackCalls = append(f.unpackCalls, opts)
	return f.unpackErr
}

// testHarness wires a Dispatcher over temp directories with captured output.
type testHarness struct {
	cfg    config.Config
	packer *fakePacker
	out    *bytes.Buffer
	errOut *bytes.Buffer
	disp   *Dispatcher
}

func newHarness(t *testing.T, units ...string) *testHarness {
	t.Helper()
	root := t.TempDir()

	cfg := config.Config{
		User:         "k203095",
		Project:      "ab0995",
		BaseSource:   filepath.Join(root, "work"),
		BaseArchive:  filepath.Join(root, "arch"),
		BaseStaging:  filepath.Join(root, "scratch"),
		RestoreDest:  filepath.Join(root, "restored"),
		Units:        units,
		TargetSizeGB: 100,
		MaxSizeGB:    500,
	}
	require.NoError(t, os.MkdirAll(cfg.BaseSource, 0o755))

	h := &testHarness{
		cfg:    cfg,
		packer: &fakePacker{},
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	h.rebuild()
	return h
}

// rebuild recreates the Dispatcher after cfg mutations in a test.
func (h *testHarness) rebuild() {
	h.disp = New(h.cfg, h.packer, report.New(h.out), h.out, h.errOut)
}

func (h *testHarness) mkSource(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(h.cfg.BaseSource, name), 0o755))
}

func TestArchiveLiveSkipsMissingNamedUnit(t *testing.T) {
	h := newHarness(t, "run1", "log")
	h.mkSource(t, "run1")

	units := plan.Resolve(h.cfg, model.ModeArchive)
	results, err := h.disp.RunArchive(context.Background(), units)
	require.NoError(t, err)

	// Exactly one pack invocation, for the existing unit.
	require.Len(t, h.packer.packCalls, 1)
	assert.Equal(t, filepath.Join(h.cfg.BaseSource, "run1"), h.packer.packCalls[0].SourceDir)
	assert.Equal(t, "run1", h.packer.packCalls[0].Prefix)
	assert.Equal(t, 100, h.packer.packCalls[0].TargetSizeGB)

	// Staging was created for the processed unit only.
	assert.DirExists(t, filepath.Join(h.cfg.BaseStaging, "run1"))
	assert.NoDirExists(t, filepath.Join(h.cfg.BaseStaging, "log"))

	// One warning for the missing unit, run not aborted.
	warnings := strings.Count(h.errOut.String(), "WARNING: Directory not found")
	assert.Equal(t, 1, warnings)
	assert.Contains(t, h.errOut.String(), "log")

	require.Len(t, results, 2)
	assert.Equal(t, model.OutcomePacked, results[0].Outcome)
	assert.Equal(t, model.OutcomeSkipped, results[1].Outcome)
}

func TestArchiveDryRunTouchesNothing(t *testing.T) {
	h := newHarness(t, "run1", "log")
	h.mkSource(t, "run1")
	h.cfg.DryRun = true
	h.rebuild()

	units := plan.Resolve(h.cfg, model.ModeArchive)
	results, err := h.disp.RunArchive(context.Background(), units)
	require.NoError(t, err)

	// No invocation, no directory creation.
	assert.Empty(t, h.packer.packCalls)
	assert.NoDirExists(t, h.cfg.BaseStaging)

	// One "Would run" line per named unit, including the nonexistent one.
	wouldRun := strings.Count(h.out.String(), "[DRY RUN] Would run: packems")
	assert.Equal(t, 2, wouldRun)

	for _, res := range results {
		assert.Equal(t, model.OutcomePlanned, res.Outcome)
	}
}

func TestArchiveDryRunIsIdempotent(t *testing.T) {
	h := newHarness(t, "run1")
	h.mkSource(t, "run1")
	h.cfg.DryRun = true
	h.rebuild()

	units := plan.Resolve(h.cfg, model.ModeArchive)
	_, err := h.disp.RunArchive(context.Background(), units)
	require.NoError(t, err)
	first := h.out.String()

	h.out.Reset()
	_, err = h.disp.RunArchive(context.Background(), units)
	require.NoError(t, err)

	assert.Equal(t, first, h.out.String())
}

func TestArchiveDryRunReportsSourceSize(t *testing.T) {
	h := newHarness(t, "run1")
	h.mkSource(t, "run1")
	require.NoError(t, os.WriteFile(
		filepath.Join(h.cfg.BaseSource, "run1", "out.nc"),
		bytes.Repeat([]byte{0}, 2048), 0o644))
	h.cfg.DryRun = true
	h.rebuild()

	units := plan.Resolve(h.cfg, model.ModeArchive)
	_, err := h.disp.RunArchive(context.Background(), units)
	require.NoError(t, err)

	assert.Contains(t, h.out.String(), "[DRY RUN] Source size: 2.0 KiB")
}

func TestArchiveFailFastOnPackerError(t *testing.T) {
	h := newHarness(t, "run1", "run2")
	h.mkSource(t, "run1")
	h.mkSource(t, "run2")
	h.packer.packErr = model.WrapCLIError(model.ExitPackemsError, "packems failed",
		errors.New("exit status 2"))

	units := plan.Resolve(h.cfg, model.ModeArchive)
	results, err := h.disp.RunArchive(context.Background(), units)
	require.Error(t, err)

	// First unit failed; second never attempted.
	assert.Len(t, h.packer.packCalls, 1)
	assert.Empty(t, results)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitPackemsError, cliErr.Code)
}

func TestArchiveWholeTreeSingleUnit(t *testing.T) {
	h := newHarness(t)

	units := plan.Resolve(h.cfg, model.ModeArchive)
	require.Len(t, units, 1)

	results, err := h.disp.RunArchive(context.Background(), units)
	require.NoError(t, err)

	// Whole-tree mode has no per-unit re-check; the one unit is packed
	// even though cfg.Units is empty.
	require.Len(t, h.packer.packCalls, 1)
	assert.Equal(t, h.cfg.BaseSource, h.packer.packCalls[0].SourceDir)
	require.Len(t, results, 1)
	assert.Equal(t, model.OutcomePacked, results[0].Outcome)
}

func TestArchiveInterrupted(t *testing.T) {
	h := newHarness(t, "run1")
	h.mkSource(t, "run1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := plan.Resolve(h.cfg, model.ModeArchive)
	_, err := h.disp.RunArchive(ctx, units)
	require.Error(t, err)
	assert.Empty(t, h.packer.packCalls)
	assert.Contains(t, err.Error(), "run interrupted")
}

func TestRetrieveLiveCreatesDestAndUnpacks(t *testing.T) {
	h := newHarness(t, "run1")

	units := plan.Resolve(h.cfg, model.ModeRetrieve)
	results, err := h.disp.RunRetrieve(context.Background(), units)
	require.NoError(t, err)

	require.Len(t, h.packer.unpackCalls, 1)
	assert.Equal(t, filepath.Join(h.cfg.RestoreDest, "run1"), h.packer.unpackCalls[0].DestDir)
	assert.Equal(t, filepath.Join(h.cfg.BaseStaging, "run1"), h.packer.unpackCalls[0].StagingDir)
	assert.DirExists(t, filepath.Join(h.cfg.RestoreDest, "run1"))

	require.Len(t, results, 1)
	assert.Equal(t, model.OutcomePacked, results[0].Outcome)
}

func TestRetrieveDryRunPreviewsManifest(t *testing.T) {
	h := newHarness(t, "run1")
	h.cfg.DryRun = true
	h.rebuild()

	staging := filepath.Join(h.cfg.BaseStaging, "run1")
	require.NoError(t, os.MkdirAll(staging, 0o755))

	// 25 manifest lines; only the first 20 must appear.
	var manifest strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&manifest, "run1_%04d.tar\n", i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(staging, "INDEX.txt"),
		[]byte(manifest.String()), 0o644))

	units := plan.Resolve(h.cfg, model.ModeRetrieve)
	_, err := h.disp.RunRetrieve(context.Background(), units)
	require.NoError(t, err)

	out := h.out.String()
	assert.Empty(t, h.packer.unpackCalls)
	assert.Contains(t, out, "[DRY RUN] Would run: unpackems")
	assert.Contains(t, out, "Manifest preview (first 20 lines")
	assert.Contains(t, out, "run1_0020.tar")
	assert.NotContains(t, out, "run1_0021.tar")
	assert.NoDirExists(t, filepath.Join(h.cfg.RestoreDest, "run1"))
}

func TestRetrieveDryRunNotesMissingManifest(t *testing.T) {
	h := newHarness(t, "run1")
	h.cfg.DryRun = true
	h.rebuild()

	units := plan.Resolve(h.cfg, model.ModeRetrieve)
	results, err := h.disp.RunRetrieve(context.Background(), units)
	require.NoError(t, err)

	assert.Contains(t, h.out.String(), "Note: no INDEX.txt found in")
	require.Len(t, results, 1)
	assert.Equal(t, model.OutcomePlanned, results[0].Outcome)
}

func TestRetrieveFailFastOnUnpackError(t *testing.T) {
	h := newHarness(t, "run1", "run2")
	h.packer.unpackErr = model.WrapCLIError(model.ExitPackemsError, "unpackems failed",
		errors.New("exit status 1"))

	units := plan.Resolve(h.cfg, model.ModeRetrieve)
	_, err := h.disp.RunRetrieve(context.Background(), units)
	require.Error(t, err)
	assert.Len(t, h.packer.unpackCalls, 1)
}
