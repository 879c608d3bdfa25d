package packems

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/CliDyn/tapearc/internal/model"
)

// Binary names looked up on PATH. On the cluster these are provided by the
// packems module loaded in the batch job prologue.
const (
	packBinary   = "packems"
	unpackBinary = "unpackems"
)

// PackOptions describes a single packems invocation: pack SourceDir into
// tar balls under StagingDir and ship them to ArchiveDir on tape.
type PackOptions struct {
	// TargetSizeGB is the tar-ball size packems aims for when splitting
	// the source tree.
	TargetSizeGB int

	// MaxSizeGB is the hard upper bound on a single tar ball.
	MaxSizeGB int

	// StagingDir is the scratch directory where tar balls and the
	// INDEX.txt manifest are built. Must exist before invocation.
	StagingDir string

	// ArchiveDir is the tape-archive destination directory.
	ArchiveDir string

	// Prefix names the tar balls for this unit (INDEX.txt entries carry
	// the same prefix).
	Prefix string

	// SourceDir is the directory tree to pack.
	SourceDir string
}

// UnpackOptions describes a single unpackems invocation: unpack the tar
// balls found in StagingDir into DestDir.
type UnpackOptions struct {
	// DestDir is the restore destination. Must exist before invocation.
	DestDir string

	// StagingDir is the scratch directory holding the unit's tar balls and
	// INDEX.txt manifest.
	StagingDir string
}

// Packer is the narrow capability the dispatcher needs from the external
// tooling. The production implementation is Runner; tests substitute a
// recording fake.
type Packer interface {
	Pack(ctx context.Context, opts PackOptions) error
	Unpack(ctx context.Context, opts UnpackOptions) error
}

// Runner invokes the real packems/unpackems binaries via os/exec.
//
// Tool output is streamed to the configured writers as it is produced, so
// the batch job log interleaves packems progress with tapearc's own
// reporting the same way the original scripts did.
type Runner struct {
	// Stdout and Stderr receive the tool's output streams. Nil writers
	// discard the respective stream.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a Runner that streams tool output to the given writers.
func NewRunner(stdout, stderr io.Writer) *Runner {
	return &Runner{Stdout: stdout, Stderr: stderr}
}

// Pack runs packems synchronously, blocking until the tool exits.
func (r *Runner) Pack(ctx context.Context, opts PackOptions) error {
	return r.run(ctx, packArgs(opts))
}

// Unpack runs unpackems synchronously, blocking until the tool exits.
func (r *Runner) Unpack(ctx context.Context, opts UnpackOptions) error {
	return r.run(ctx, unpackArgs(opts))
}

// run executes the command described by argv (binary name first). A
// non-zero exit is wrapped in a CLIError with ExitPackemsError; the first
// failing invocation therefore aborts the run under the dispatcher's
// fail-fast policy.
func (r *Runner) run(ctx context.Context, argv []string) error {
	// CommandContext kills the process when the context is cancelled,
	// which is how a scheduler signal aborts an in-flight transfer.
	// #nosec G204 — argv is constructed internally, not from user input
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(model.ExitPackemsError,
			fmt.Sprintf("%s failed", CommandString(argv)), err)
	}
	return nil
}

// PackCommand returns the full argv for a pack invocation. Exposed so the
// dispatcher can print the exact command during a dry run.
func PackCommand(opts PackOptions) []string {
	return packArgs(opts)
}

// UnpackCommand returns the full argv for an unpack invocation.
func UnpackCommand(opts UnpackOptions) []string {
	return unpackArgs(opts)
}

func packArgs(opts PackOptions) []string {
	return []string{
		packBinary,
		"-S", fmt.Sprintf("%dG", opts.TargetSizeGB),
		"-M", fmt.Sprintf("%dG", opts.MaxSizeGB),
		"-d", opts.StagingDir,
		"-a", opts.ArchiveDir,
		"-N", opts.Prefix,
		opts.SourceDir,
	}
}

func unpackArgs(opts UnpackOptions) []string {
	return []string{
		unpackBinary,
		"-d", opts.DestDir,
		opts.StagingDir,
	}
}

// CommandString renders an argv as a copy-pasteable shell command line.
// Arguments containing whitespace or shell metacharacters are single
// quoted.
func CommandString(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

// shellQuote quotes a single argument for POSIX shells when needed.
func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\"'\\$&|;<>()*?[]#~%") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
