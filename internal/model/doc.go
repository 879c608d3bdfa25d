// Package model defines the domain types and value objects for the
// tapearc CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (WorkUnit, ValidationResult, UnitResult) are transient: they
// are derived from the configuration at the start of a run and discarded
// afterwards. Durable state (tar balls, INDEX.txt manifests, tape contents)
// is owned entirely by the external packems tooling.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
