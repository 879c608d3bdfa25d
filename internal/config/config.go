// Package config loads and resolves the run configuration for tapearc.
//
// The configuration replaces the hand-edited shell variables of the original
// batch scripts with an explicit struct that is populated once before any
// work begins and never mutated afterwards. Values are resolved in three
// layers with increasing precedence:
//
//  1. Built-in defaults derived from the invoking user (USER environment
//     variable) and the cluster's conventional filesystem layout.
//  2. An optional JSONC config file. JSONC (JSON with Comments) is used so
//     operators can annotate their archive lists the way they annotated the
//     old scripts; github.com/tidwall/jsonc strips comments before parsing
//     with the standard encoding/json library.
//  3. Command-line flags, applied by the CLI layer.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/CliDyn/tapearc/internal/model"
)

// Default packing thresholds in gigabytes, matching the operational values
// used with packems on the Levante cluster: tar balls are targeted at
// DefaultTargetSizeGB and never exceed DefaultMaxSizeGB.
const (
	DefaultTargetSizeGB = 100
	DefaultMaxSizeGB    = 500
)

// DefaultProject is the accounting project used when none is configured.
// Project IDs select the top-level directory on both the work filesystem
// and the tape archive.
const DefaultProject = "ab0995"

// Config holds the fully resolved run configuration. It is read-only after
// Resolve: the dispatcher, resolver, and reporter all receive it by value
// or pointer but never write to it. DryRun is the single exception, set
// once from CLI flags before any work begins.
type Config struct {
	// User is the cluster username, seeded from the USER environment
	// variable. It appears in all derived default paths.
	User string `json:"user"`

	// Project is the accounting project ID (e.g., "ab0995").
	Project string `json:"project"`

	// BaseSource is the directory tree on the work filesystem that archive
	// runs read from.
	BaseSource string `json:"source"`

	// BaseArchive is the tape-archive root that packed tar balls are
	// shipped to (archive) or were shipped to (retrieve).
	BaseArchive string `json:"archive"`

	// BaseStaging is the scratch directory where packems builds tar balls
	// and writes INDEX.txt manifests before or after tape transfer.
	BaseStaging string `json:"staging"`

	// RestoreDest is the directory tree that retrieve runs unpack into.
	RestoreDest string `json:"restore"`

	// Units is the ordered list of subdirectory names to process. Order is
	// preserved: it is both presentation and processing order. An empty
	// list means the entire base tree is processed as a single unit.
	Units []string `json:"units"`

	// TargetSizeGB is the tar-ball size packems aims for when splitting.
	TargetSizeGB int `json:"targetSizeGB"`

	// MaxSizeGB is the hard upper bound on a single tar ball.
	MaxSizeGB int `json:"maxSizeGB"`

	// DryRun disables all filesystem mutation and external invocations.
	// Set once from CLI flags, never toggled mid-run.
	DryRun bool `json:"-"`
}

// Default returns the built-in configuration for the given user, following
// the cluster's conventional layout: /work/<project>/<user> for source
// trees, /scratch/<initial>/<user>/packems for staging, and
// /arch/<project>/<user> on the tape archive.
//
// If user is empty, the USER environment variable is consulted.
func Default(user string) Config {
	if user == "" {
		user = os.Getenv("USER")
	}
	return Config{
		User:         user,
		Project:      DefaultProject,
		BaseSource:   filepath.Join("/work", DefaultProject, user),
		BaseArchive:  filepath.Join("/arch", DefaultProject, user),
		BaseStaging:  filepath.Join("/scratch", userInitial(user), user, "packems"),
		RestoreDest:  filepath.Join("/work", DefaultProject, user, "restored"),
		TargetSizeGB: DefaultTargetSizeGB,
		MaxSizeGB:    DefaultMaxSizeGB,
	}
}

// Load reads a JSONC config file and overlays it onto the built-in
// defaults. Fields absent from the file keep their default values.
//
// Returns a CLIError with ExitConfigError when the file cannot be read or
// parsed, so the CLI layer maps the failure to the configuration exit code.
func Load(path string) (Config, error) {
	cfg := Default("")

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	// Strip JSONC comments and trailing commas, then parse as plain JSON.
	// Unknown fields are silently ignored, matching how the old scripts
	// tolerated unused variables.
	if err := json.Unmarshal(jsonc.ToJSON(raw), &cfg); err != nil {
		return cfg, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	return cfg, nil
}

// userInitial returns the first character of the username, used in the
// scratch filesystem layout (/scratch/<initial>/<user>). Falls back to "u"
// for an empty username so derived paths stay well-formed.
func userInitial(user string) string {
	if user == "" {
		return "u"
	}
	return user[:1]
}
