// Package packems wraps the external packems/unpackems utilities behind a
// narrow Packer interface.
//
// Design decisions:
//   - We shell out to the site-installed packems binaries rather than
//     reimplementing any packing logic. Tar-ball construction, size-based
//     splitting, INDEX.txt manifest writing, and the tape transfer itself
//     are all owned by the external tool.
//   - The Packer interface exists so the dispatch logic is independently
//     testable with a recording fake instead of real tape I/O.
//   - Invocations are synchronous and inherit the caller's context, so a
//     scheduler kill signal terminates the in-flight tool process and no
//     further units are attempted. No partial cleanup is done; resumption
//     relies on packems' own idempotent packing behavior.
//   - All tool failures are wrapped in model.CLIError with ExitPackemsError
//     to enable proper CLI exit code handling.
package packems
