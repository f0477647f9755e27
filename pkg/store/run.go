package store

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/matzehuels/ivm/pkg/errors"
)

// Stdio are the standard streams of a command started by [Store.Run].
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSStdio returns the streams of the current process.
func OSStdio() Stdio {
	return Stdio{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run runs a command with the bin directory of the target version prepended
// to PATH and returns its exit code. An exit code that can't be determined
// (e.g. the command was killed by a signal) is reported as 0. Failing to
// start the command is an error.
func (s *Store) Run(ctx context.Context, target, name string, args []string, stdio Stdio) (int, error) {
	v, err := s.Resolve(target)
	if err != nil {
		return 0, err
	}

	bin := s.BinDir(v)
	if info, err := os.Stat(bin); err != nil || !info.IsDir() {
		return 0, errors.New(errors.ErrCodeNotInstalled, "Version %s is not installed", v)
	}
	if name == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "You must specify a command to run")
	}

	pathEnv := prependPath(bin, os.Getenv("PATH"))
	program, err := lookPath(name, pathEnv)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeCommandFailed, err, "The command %q is not valid", name)
	}

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Env = withEnv(os.Environ(), "PATH", pathEnv)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdio.Stdin, stdio.Stdout, stdio.Stderr

	if err := cmd.Start(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeCommandFailed, err, "The command %q is not valid", name)
	}

	err = cmd.Wait()
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return max(exitErr.ExitCode(), 0), nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeCommandFailed, err, "The command %q failed", name)
	}
	return 0, nil
}

func prependPath(dir, current string) string {
	if current == "" {
		return dir
	}
	return dir + string(os.PathListSeparator) + current
}

// lookPath finds name in the given PATH value rather than the one of the
// current process.
func lookPath(name, pathEnv string) (string, error) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, os.PathSeparator) {
		return exec.LookPath(name)
	}
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}
		if path, err := exec.LookPath(filepath.Join(dir, name)); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

// withEnv returns env with key set to value, replacing any existing entry.
func withEnv(env []string, key, value string) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		k, _, _ := strings.Cut(kv, "=")
		if strings.EqualFold(k, key) {
			continue
		}
		out = append(out, kv)
	}
	return append(out, key+"="+value)
}
