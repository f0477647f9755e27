package cli

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/lock"
	"github.com/matzehuels/ivm/pkg/paths"
	"github.com/matzehuels/ivm/pkg/store"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// testCLI is a CLI rooted in a temporary directory.
type testCLI struct {
	*CLI
	paths paths.Paths
	out   *bytes.Buffer
	logs  *bytes.Buffer
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	t.Setenv("IVM_RELEASE_URL", "")

	root := t.TempDir()
	dirs := paths.Dirs{
		Cache:       filepath.Join(root, "cache"),
		Data:        filepath.Join(root, "data"),
		Config:      filepath.Join(root, "config"),
		RuntimeData: filepath.Join(root, "runtime"),
	}
	p, err := paths.New(dirs)
	require.NoError(t, err)

	var logs, out bytes.Buffer
	c := New(&logs, LogInfo)
	c.Dirs = func() (paths.Dirs, error) { return dirs, nil }

	old := stdout
	stdout = &out
	t.Cleanup(func() { stdout = old })

	return &testCLI{CLI: c, paths: p, out: &out, logs: &logs}
}

func (tc *testCLI) execute(args ...string) error {
	root := tc.RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

// installFake creates an installed version with an executable script.
func (tc *testCLI) installFake(t *testing.T, name, script string) {
	t.Helper()
	bin := filepath.Join(tc.paths.Install, name, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, paths.Executable()), []byte("#!/bin/sh\n"+script+"\n"), 0o755))
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestNoArgsPrintsUsage(t *testing.T) {
	tc := newTestCLI(t)
	require.NoError(t, tc.execute())
}

func TestUnknownCommand(t *testing.T) {
	tc := newTestCLI(t)
	err := tc.execute("frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestMissingArguments(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"install"}, "You must specify a version to install"},
		{[]string{"uninstall"}, "You must specify a version to uninstall"},
		{[]string{"remove"}, "You must specify a version to remove"},
		{[]string{"run"}, "You must specify a version to run the command with"},
		{[]string{"run", "0.8.0"}, "You must specify a command to run"},
		{[]string{"show"}, "You must specify a setting name"},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			tc := newTestCLI(t)
			err := tc.execute(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestShow(t *testing.T) {
	tc := newTestCLI(t)
	require.NoError(t, tc.execute("show", "bin"))
	assert.Equal(t, tc.paths.Bin+"\n", tc.out.String())

	tc.out.Reset()
	require.NoError(t, tc.execute("show", "downloads"))
	assert.Equal(t, tc.paths.Downloads+"\n", tc.out.String())

	err := tc.execute("show", "foo")
	require.Error(t, err)
	assert.Equal(t, "The setting foo doesn't exist", err.Error())
}

func TestList(t *testing.T) {
	skipOnWindows(t)
	tc := newTestCLI(t)
	tc.installFake(t, "0.9.1", "exit 0")
	tc.installFake(t, "0.8.0", "exit 0")
	require.NoError(t, os.MkdirAll(filepath.Join(tc.paths.Install, "junk"), 0o755))

	require.NoError(t, tc.execute("default", "0.9.1"))
	require.NoError(t, tc.execute("list"))

	assert.Equal(t, "0.8.0\n0.9.1 (default)\n", tc.out.String())
	assert.Contains(t, tc.logs.String(), "The default version is now 0.9.1")
}

func TestKnown(t *testing.T) {
	tc := newTestCLI(t)
	srv := newReleaseServer(t, map[string][]byte{"manifest.txt": []byte("0.9.1\n0.8.0\n")})
	t.Setenv("IVM_RELEASE_URL", srv.URL)

	require.NoError(t, tc.execute("known"))
	assert.Equal(t, "0.8.0\n0.9.1\n", tc.out.String())

	data, err := os.ReadFile(tc.paths.ManifestFile)
	require.NoError(t, err)
	assert.Equal(t, "0.9.1\n0.8.0\n", string(data))
}

func TestDefaultNotInstalled(t *testing.T) {
	tc := newTestCLI(t)
	err := tc.execute("default", "0.8.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotInstalled))
}

func TestDefaultWithoutTerminal(t *testing.T) {
	if isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		t.Skip("running on a terminal")
	}
	tc := newTestCLI(t)
	err := tc.execute("default")
	require.Error(t, err)
	assert.Equal(t, "You must specify a version", err.Error())
}

func TestDefaultCheckAndRepair(t *testing.T) {
	skipOnWindows(t)
	tc := newTestCLI(t)
	tc.installFake(t, "0.8.0", "exit 0")
	require.NoError(t, tc.execute("default", "0.8.0"))

	require.NoError(t, tc.execute("default", "--check"))
	assert.Contains(t, tc.out.String(), "consistent")

	require.NoError(t, os.Remove(tc.paths.DefaultExecutable()))
	tc.out.Reset()
	require.NoError(t, tc.execute("default", "--check"))
	assert.Contains(t, tc.out.String(), "diverged")

	tc.out.Reset()
	require.NoError(t, tc.execute("default", "--repair"))
	assert.Contains(t, tc.out.String(), "The default version is now 0.8.0")

	target, err := os.Readlink(tc.paths.DefaultExecutable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tc.paths.Install, "0.8.0", "bin", paths.Executable()), target)
}

func TestUninstallKeepsDefault(t *testing.T) {
	skipOnWindows(t)
	tc := newTestCLI(t)
	tc.installFake(t, "0.8.0", "exit 0")
	require.NoError(t, tc.execute("default", "0.8.0"))

	require.NoError(t, tc.execute("uninstall", "0.8.0"))
	assert.NoDirExists(t, filepath.Join(tc.paths.Install, "0.8.0"))
	assert.FileExists(t, tc.paths.DefaultFile)
	assert.Contains(t, tc.logs.String(), "Uninstalling version 0.8.0")
}

func TestRemoveClearsDefault(t *testing.T) {
	skipOnWindows(t)
	tc := newTestCLI(t)
	tc.installFake(t, "0.8.0", "exit 0")
	tc.installFake(t, "0.9.1", "exit 0")
	require.NoError(t, tc.execute("default", "0.9.1"))

	require.NoError(t, tc.execute("remove", "latest"))
	assert.NoDirExists(t, filepath.Join(tc.paths.Install, "0.9.1"))
	assert.DirExists(t, filepath.Join(tc.paths.Install, "0.8.0"))
	assert.NoFileExists(t, tc.paths.DefaultFile)

	_, err := os.Lstat(tc.paths.DefaultExecutable())
	assert.True(t, os.IsNotExist(err))
}

func TestTargetsResolveUnderLock(t *testing.T) {
	tc := newTestCLI(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(tc.paths.ConfigFile), 0o755))
	require.NoError(t, os.WriteFile(tc.paths.ConfigFile, []byte(`lock_timeout = "50ms"`+"\n"), 0o644))

	held, err := lock.Acquire(context.Background(), tc.paths.LockFile)
	require.NoError(t, err)

	for _, args := range [][]string{
		{"uninstall", "latest"},
		{"remove", "latest"},
		{"default", "latest"},
	} {
		err := tc.execute(args...)
		require.Error(t, err, args)
		assert.True(t, errors.Is(err, errors.ErrCodeLocked), "%v: %v", args, err)
	}

	require.NoError(t, held.Release())
	err = tc.execute("remove", "latest")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNoVersions))
}

func TestRunExitCode(t *testing.T) {
	skipOnWindows(t)
	tc := newTestCLI(t)
	tc.installFake(t, "0.8.0", `echo "inko $@"; exit 3`)

	var out bytes.Buffer
	old := stdio
	stdio = store.Stdio{Stdin: &bytes.Buffer{}, Stdout: &out, Stderr: &out}
	t.Cleanup(func() { stdio = old })

	err := tc.execute("run", "0.8.0", "inko", "--version")
	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 3, exit.Code)
	assert.Equal(t, "inko --version\n", out.String())
}

func TestRunNotInstalled(t *testing.T) {
	tc := newTestCLI(t)
	err := tc.execute("run", "0.8.0", "inko")
	require.Error(t, err)
	assert.Equal(t, "Version 0.8.0 is not installed", err.Error())
}

func TestClean(t *testing.T) {
	tc := newTestCLI(t)
	src := filepath.Join(tc.paths.Downloads, "0.8.0")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "LICENSE"), []byte("MPL-2.0\n"), 0o644))
	require.NoError(t, os.WriteFile(tc.paths.ManifestFile, []byte("0.8.0\n"), 0o644))

	require.NoError(t, tc.execute("clean"))
	assert.NoDirExists(t, tc.paths.Downloads)
	assert.Contains(t, tc.out.String(), "Removed 2 files")

	tc.out.Reset()
	require.NoError(t, tc.execute("clean"))
	assert.Contains(t, tc.out.String(), "There is no temporary data to remove")
}

func TestImplode(t *testing.T) {
	skipOnWindows(t)
	tc := newTestCLI(t)
	tc.installFake(t, "0.8.0", "exit 0")
	require.NoError(t, tc.execute("default", "0.8.0"))

	require.NoError(t, tc.execute("implode"))
	assert.NoDirExists(t, tc.paths.Cache)
	assert.NoDirExists(t, tc.paths.Config)
	assert.NoDirExists(t, tc.paths.Data)
	assert.Contains(t, tc.out.String(), "All data has been removed")
}

func TestInstall(t *testing.T) {
	skipOnWindows(t)
	tc := newTestCLI(t)
	srv := newReleaseServer(t, map[string][]byte{
		"manifest.txt": []byte("0.8.0\n"),
		"0.8.0.tar.gz": sourceArchive(t),
	})
	t.Setenv("IVM_RELEASE_URL", srv.URL)

	require.NoError(t, os.MkdirAll(tc.paths.Config, 0o755))
	require.NoError(t, os.WriteFile(tc.paths.ConfigFile, []byte(`
[build]
command  = "sh"
args     = ["-c", "mkdir -p target/release && touch target/release/inko"]
features = []
`), 0o644))

	require.NoError(t, tc.execute("install", "latest"))

	dir := filepath.Join(tc.paths.Install, "0.8.0")
	assert.FileExists(t, filepath.Join(dir, "bin", "inko"))
	assert.FileExists(t, filepath.Join(dir, "share", "licenses", "inko", "LICENSE"))
	assert.FileExists(t, filepath.Join(dir, "lib", "inko", "libstd", "std", "string.inko"))
	assert.NoDirExists(t, tc.paths.DownloadDir("0.8.0"))
	assert.Contains(t, tc.logs.String(), "Version 0.8.0 has been installed")

	err := tc.execute("install", "0.8.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeAlreadyInstalled))
}

// newReleaseServer serves files by name, like the release host.
func newReleaseServer(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Head("/{file}", func(w http.ResponseWriter, req *http.Request) {
		if _, ok := files[chi.URLParam(req, "file")]; !ok {
			w.WriteHeader(http.StatusNotFound)
		}
	})
	r.Get("/{file}", func(w http.ResponseWriter, req *http.Request) {
		data, ok := files[chi.URLParam(req, "file")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(data)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func sourceArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	files := []struct{ name, body string }{
		{"LICENSE", "MPL-2.0\n"},
		{"libstd/src/std/string.inko", "# string\n"},
	}
	for _, f := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: f.name, Mode: 0o644, Size: int64(len(f.body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(f.body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}
