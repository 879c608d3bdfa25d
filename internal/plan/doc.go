// Package plan turns a resolved configuration into an ordered sequence of
// work units and validates it before dispatch.
//
// The resolver is a pure function of the configuration: no I/O, no side
// effects. The validator performs read-only filesystem existence checks and
// accumulates every problem it finds, so a user sees all misconfigurations
// in a single pass instead of fixing them one at a time.
package plan
