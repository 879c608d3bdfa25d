package model

import (
	"fmt"
	"path"
	"strings"
)

// RunMode distinguishes the two directions of a tapearc run.
type RunMode string

const (
	// ModeArchive packs directories from the work filesystem into staging
	// and ships them to the tape archive.
	ModeArchive RunMode = "archive"

	// ModeRetrieve unpacks previously archived units from staging into a
	// restore destination.
	ModeRetrieve RunMode = "retrieve"
)

// String returns the string representation of RunMode.
// This method satisfies the fmt.Stringer interface.
func (m RunMode) String() string {
	return string(m)
}

// IsValid checks whether the RunMode value is one of the predefined modes.
func (m RunMode) IsValid() bool {
	switch m {
	case ModeArchive, ModeRetrieve:
		return true
	default:
		return false
	}
}

// ParseRunMode converts a string to a RunMode.
// Returns an error if the string does not match any valid mode.
func ParseRunMode(s string) (RunMode, error) {
	mode := RunMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid run mode: %q (valid: archive, retrieve)", s)
	}
	return mode, nil
}

// WorkUnit is one named subdirectory (or the entire base tree) to be
// archived or retrieved in a single packems invocation.
//
// Units are produced by the plan resolver, processed sequentially by the
// dispatcher, and discarded after the run. All three paths are absolute.
type WorkUnit struct {
	// Name is the unit identifier, used as the tar-ball prefix passed to
	// packems. In whole-tree mode it equals the final path segment of the
	// base directory. Never empty.
	Name string `json:"name" yaml:"name"`

	// SourcePath is the directory whose contents are packed (archive) or,
	// for retrieve, the archived location the unit originated from.
	SourcePath string `json:"sourcePath" yaml:"source"`

	// StagingPath is the scratch directory where tar balls and the
	// INDEX.txt manifest for this unit live during transfer.
	StagingPath string `json:"stagingPath" yaml:"staging"`

	// RemotePath is the tape-archive destination (archive) or the restore
	// destination (retrieve) for this unit.
	RemotePath string `json:"remotePath" yaml:"remote"`
}

// Validate checks the WorkUnit invariants: a non-empty name and three
// absolute paths.
func (u *WorkUnit) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("work unit: name must not be empty")
	}
	for _, p := range []struct {
		label string
		value string
	}{
		{"source path", u.SourcePath},
		{"staging path", u.StagingPath},
		{"remote path", u.RemotePath},
	} {
		if !path.IsAbs(p.value) {
			return fmt.Errorf("work unit %q: %s %q is not absolute", u.Name, p.label, p.value)
		}
	}
	return nil
}

// UnitOutcome is the per-unit result recorded after dispatch.
type UnitOutcome string

const (
	// OutcomePacked means the pack/unpack invocation for the unit completed.
	OutcomePacked UnitOutcome = "done"

	// OutcomeSkipped means the unit's source directory was missing at
	// dispatch time and the unit was skipped with a warning.
	OutcomeSkipped UnitOutcome = "skipped"

	// OutcomePlanned means the run was a dry run and the unit was only
	// printed, never executed.
	OutcomePlanned UnitOutcome = "planned"
)

// UnitResult pairs a WorkUnit with its dispatch outcome, for the closing
// summary and the optional YAML run report.
type UnitResult struct {
	Unit    WorkUnit    `json:"unit" yaml:"unit"`
	Outcome UnitOutcome `json:"outcome" yaml:"outcome"`
}

// ValidationResult accumulates every configuration problem found before
// dispatch, so a user sees all misconfigurations in one pass instead of
// fixing them one at a time.
type ValidationResult struct {
	// Problems holds one human-readable description per failed check.
	Problems []string
}

// OK reports whether validation passed (no problems recorded).
func (r *ValidationResult) OK() bool {
	return len(r.Problems) == 0
}

// AddProblem records a validation failure. Formatting follows fmt.Sprintf.
func (r *ValidationResult) AddProblem(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// ExitCode defines the CLI exit codes. These codes allow batch scripts and
// schedulers to programmatically determine the outcome of a run.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully. Dry runs
	// and help output also exit with this code.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the run configuration failed validation
	// before any unit was dispatched (missing source root, no matching
	// named subdirectories, unreadable config file).
	ExitConfigError ExitCode = 2

	// ExitPackemsError indicates the external packems/unpackems invocation
	// returned a non-zero exit code.
	ExitPackemsError ExitCode = 3
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
