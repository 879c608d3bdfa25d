// Package cli — root_test.go covers the command wiring and the pure
// configuration helpers. Dispatch behavior itself is tested in
// internal/dispatch with a fake Packer.
package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CliDyn/tapearc/internal/config"
	"github.com/CliDyn/tapearc/internal/model"
)

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCommand()

	names := make([]string, 0, 2)
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "archive")
	assert.Contains(t, names, "retrieve")

	// Unknown flags must surface as errors, not silently succeed.
	root.SetArgs([]string{"archive", "--bogus"})
	assert.Error(t, root.Execute())
}

func TestArchiveCommandFlags(t *testing.T) {
	cmd := NewArchiveCommand()

	for _, name := range []string{"config", "dry-run", "unit", "source", "archive", "staging", "target-size", "max-size", "report"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}
	// -n is the documented shorthand for --dry-run.
	assert.Equal(t, "n", cmd.Flags().Lookup("dry-run").Shorthand)
}

func TestRetrieveCommandFlags(t *testing.T) {
	cmd := NewRetrieveCommand()

	for _, name := range []string{"config", "dry-run", "unit", "archive", "dest", "staging", "report"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestLoadRunConfig(t *testing.T) {
	t.Setenv("USER", "k203095")

	// No config file: defaults.
	cfg, err := loadRunConfig("")
	require.NoError(t, err)
	assert.Equal(t, "k203095", cfg.User)

	// With a config file: overlaid values.
	path := filepath.Join(t.TempDir(), "tapearc.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
	// spinup archive list
	"units": ["run1"],
}`), 0o644))

	cfg, err = loadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"run1"}, cfg.Units)

	// Missing file propagates the config error.
	_, err = loadRunConfig(filepath.Join(t.TempDir(), "absent.jsonc"))
	require.Error(t, err)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

func TestApplyArchiveOverrides(t *testing.T) {
	cfg := config.Default("k203095")
	flags := &archiveFlags{
		source:     "/work/ab0995/k203095/SPIN2",
		units:      []string{"run2", "run1"},
		targetSize: 200,
		dryRun:     true,
	}

	applyArchiveOverrides(&cfg, flags)

	assert.Equal(t, "/work/ab0995/k203095/SPIN2", cfg.BaseSource)
	// Flag order is preserved verbatim, never sorted.
	assert.Equal(t, []string{"run2", "run1"}, cfg.Units)
	assert.Equal(t, 200, cfg.TargetSizeGB)
	assert.True(t, cfg.DryRun)

	// Unset flags leave the loaded values alone.
	assert.Equal(t, "/arch/ab0995/k203095", cfg.BaseArchive)
	assert.Equal(t, config.DefaultMaxSizeGB, cfg.MaxSizeGB)
}

func TestApplyRetrieveOverrides(t *testing.T) {
	cfg := config.Default("k203095")
	flags := &retrieveFlags{
		dest:    "/work/ab0995/k203095/came-back",
		staging: "/scratch/k/k203095/fetch",
	}

	applyRetrieveOverrides(&cfg, flags)

	assert.Equal(t, "/work/ab0995/k203095/came-back", cfg.RestoreDest)
	assert.Equal(t, "/scratch/k/k203095/fetch", cfg.BaseStaging)
	assert.False(t, cfg.DryRun)
}

func TestValidationErrorCarriesConfigExitCode(t *testing.T) {
	var result model.ValidationResult
	result.AddProblem("source directory does not exist: /work/missing")

	err := validationError(result, model.ModeArchive)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "archive configuration invalid")
}
