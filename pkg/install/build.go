package install

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/matzehuels/ivm/pkg/config"
	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/version"
)

// BuildRequest describes a source tree to compile.
type BuildRequest struct {
	Version   version.Version
	SourceDir string // extracted sources; the working directory of the build
	LibStdDir string // where the installed standard library will live
}

// Builder compiles a downloaded source tree.
type Builder interface {
	Build(ctx context.Context, req BuildRequest) error
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, req BuildRequest) error

// Build calls f(ctx, req).
func (f BuilderFunc) Build(ctx context.Context, req BuildRequest) error {
	return f(ctx, req)
}

// CommandBuilder builds Inko by running an external command, cargo by
// default, in the source directory.
type CommandBuilder struct {
	Command   string
	Args      []string
	Features  []string // passed as --features unless GOOS is windows
	RustFlags string
	GOOS      string

	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandBuilder returns a CommandBuilder for the current platform using
// the build settings from the configuration file.
func NewCommandBuilder(cfg config.Build) *CommandBuilder {
	return &CommandBuilder{
		Command:   cfg.Command,
		Args:      cfg.Args,
		Features:  cfg.Features,
		RustFlags: cfg.RustFlags,
		GOOS:      runtime.GOOS,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// Arguments returns the arguments passed to the build command.
func (b *CommandBuilder) Arguments() []string {
	args := append([]string(nil), b.Args...)
	// Dynamic linking of libffi doesn't work with MSVC.
	if b.GOOS != "windows" && len(b.Features) > 0 {
		args = append(args, "--features", strings.Join(b.Features, ","))
	}
	return args
}

// Environment returns the environment of the build command.
func (b *CommandBuilder) Environment(req BuildRequest) []string {
	env := os.Environ()
	if b.RustFlags != "" {
		env = append(env, "RUSTFLAGS="+b.RustFlags)
	}
	return append(env, "INKO_LIBSTD="+req.LibStdDir)
}

// Build runs the build command and waits for it to finish. Any exit status
// other than zero is an error.
func (b *CommandBuilder) Build(ctx context.Context, req BuildRequest) error {
	cmd := exec.CommandContext(ctx, b.Command, b.Arguments()...)
	cmd.Dir = req.SourceDir
	cmd.Env = b.Environment(req)
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr

	if err := cmd.Start(); err != nil {
		return errors.Wrap(errors.ErrCodeCommandFailed, err, "Failed to run %s", b.Command)
	}

	err := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return errors.New(errors.ErrCodeCommandFailed, "The command exited with status code %d", code)
		}
		return errors.New(errors.ErrCodeCommandFailed, "The command exited without a status code")
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeCommandFailed, err, "Failed to run %s", b.Command)
	}
	return nil
}
