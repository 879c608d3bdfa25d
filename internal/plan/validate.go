package plan

import (
	"os"
	"path/filepath"

	"github.com/CliDyn/tapearc/internal/config"
	"github.com/CliDyn/tapearc/internal/model"
)

// ValidateArchive checks the configuration for an archive run before any
// unit is dispatched. Checks are read-only (existence only):
//
//   - The base source directory must exist.
//   - When units are named explicitly, at least one of them must exist
//     under the base source directory.
//
// Units missing from a non-empty list are not individually fatal here; the
// dispatcher re-checks each named unit at dispatch time and skips missing
// ones with a warning. In whole-tree mode (empty unit list) the base-source
// check above is the only guard, so a vanished tree surfaces as a packems
// failure rather than a skip. That asymmetry mirrors the operational
// scripts this tool replaces.
func ValidateArchive(cfg config.Config) model.ValidationResult {
	var result model.ValidationResult

	if !dirExists(cfg.BaseSource) {
		result.AddProblem("source directory does not exist: %s", cfg.BaseSource)
		// Without the source root the per-unit checks below would all fail
		// for the same reason; stop here to keep the report readable.
		return result
	}

	if len(cfg.Units) > 0 {
		found := 0
		for _, name := range cfg.Units {
			if dirExists(filepath.Join(cfg.BaseSource, name)) {
				found++
			}
		}
		if found == 0 {
			result.AddProblem("none of the %d configured subdirectories exist under %s",
				len(cfg.Units), cfg.BaseSource)
		}
	}

	return result
}

// ValidateRetrieve checks the configuration for a retrieve run. The staging
// directory must exist, since unpackems reads tar balls and manifests from
// it. No per-unit pre-check is performed; the dry-run manifest preview in
// the dispatcher covers unit-level diagnostics.
func ValidateRetrieve(cfg config.Config) model.ValidationResult {
	var result model.ValidationResult

	if !dirExists(cfg.BaseStaging) {
		result.AddProblem("staging directory does not exist: %s", cfg.BaseStaging)
	}

	return result
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
