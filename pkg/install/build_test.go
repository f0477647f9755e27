package install

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/ivm/pkg/config"
	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/version"
)

func TestCommandBuilder_Arguments(t *testing.T) {
	cfg := config.Default().Build

	b := NewCommandBuilder(cfg)
	b.GOOS = "linux"
	assert.Equal(t, []string{"build", "--release", "--features", "libffi-system"}, b.Arguments())

	b.GOOS = "windows"
	assert.Equal(t, []string{"build", "--release"}, b.Arguments())

	// Arguments must not alias the configured slice.
	b.GOOS = "darwin"
	_ = b.Arguments()
	assert.Equal(t, []string{"build", "--release"}, cfg.Args)
}

func TestCommandBuilder_Environment(t *testing.T) {
	b := NewCommandBuilder(config.Default().Build)
	env := b.Environment(BuildRequest{LibStdDir: "/data/installed/0.8.0/lib/inko/libstd"})

	assert.Contains(t, env, "RUSTFLAGS=-C target-feature=+aes")
	assert.Contains(t, env, "INKO_LIBSTD=/data/installed/0.8.0/lib/inko/libstd")
}

func TestCommandBuilder_Build(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	src := t.TempDir()
	var stdout bytes.Buffer
	b := &CommandBuilder{
		Command:   "sh",
		Args:      []string{"-c", `pwd; echo "$INKO_LIBSTD"; echo "$RUSTFLAGS"`},
		RustFlags: "-C target-feature=+aes",
		GOOS:      runtime.GOOS,
		Stdout:    &stdout,
	}

	err := b.Build(context.Background(), BuildRequest{
		Version:   version.MustParse("0.8.0"),
		SourceDir: src,
		LibStdDir: "/opt/libstd",
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	wd, err := filepath.EvalSymlinks(src)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(lines[0])
	require.NoError(t, err)
	assert.Equal(t, wd, got)
	assert.Equal(t, "/opt/libstd", lines[1])
	assert.Equal(t, "-C target-feature=+aes", lines[2])
}

func TestCommandBuilder_ExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	b := &CommandBuilder{Command: "sh", Args: []string{"-c", "exit 3"}, GOOS: runtime.GOOS}
	err := b.Build(context.Background(), BuildRequest{SourceDir: t.TempDir()})
	require.Error(t, err)
	assert.Equal(t, "The command exited with status code 3", err.Error())
}

func TestCommandBuilder_MissingCommand(t *testing.T) {
	b := &CommandBuilder{Command: "ivm-test-no-such-command", GOOS: runtime.GOOS}
	err := b.Build(context.Background(), BuildRequest{SourceDir: os.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
	assert.Contains(t, err.Error(), "Failed to run ivm-test-no-such-command")
}
