package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/ivm/pkg/errors"
)

func testDirs(t *testing.T) Dirs {
	t.Helper()
	root := t.TempDir()
	return Dirs{
		Cache:       filepath.Join(root, "cache"),
		Data:        filepath.Join(root, "data"),
		Config:      filepath.Join(root, "config"),
		RuntimeData: filepath.Join(root, "inko"),
	}
}

func TestNew(t *testing.T) {
	d := testDirs(t)
	p, err := New(d)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(d.Data, "installed"), p.Install)
	assert.Equal(t, filepath.Join(d.Data, "bin"), p.Bin)
	assert.Equal(t, filepath.Join(d.Cache, "downloads"), p.Downloads)
	assert.Equal(t, filepath.Join(d.Cache, "downloads", "manifest.txt"), p.ManifestFile)
	assert.Equal(t, filepath.Join(d.Config, "version"), p.DefaultFile)
	assert.Equal(t, filepath.Join(d.Config, "config.toml"), p.ConfigFile)
	assert.Equal(t, filepath.Join(d.Data, "ivm.lock"), p.LockFile)
	assert.Equal(t, filepath.Join(d.RuntimeData, "runtimes"), p.Runtimes)

	assert.Equal(t, filepath.Join(p.Install, "0.8.0"), p.VersionDir("0.8.0"))
	assert.Equal(t, filepath.Join(p.Downloads, "0.8.0"), p.DownloadDir("0.8.0"))
	assert.Equal(t, filepath.Join(p.Runtimes, "0.8.0"), p.RuntimeDir("0.8.0"))
	assert.Equal(t, filepath.Join(p.Bin, Executable()), p.DefaultExecutable())
}

func TestNew_MissingRoot(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*Dirs)
		want  string
	}{
		{"cache", func(d *Dirs) { d.Cache = "" }, "The cache directory couldn't be determined"},
		{"data", func(d *Dirs) { d.Data = "" }, "The data directory couldn't be determined"},
		{"config", func(d *Dirs) { d.Config = "" }, "The configuration directory couldn't be determined"},
		{"runtime", func(d *Dirs) { d.RuntimeData = "" }, "The runtime data directory couldn't be determined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDirs(t)
			tt.clear(&d)
			_, err := New(d)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, errors.Is(err, errors.ErrCodeFileSystem))
		})
	}
}

func TestXDG_EnvOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvCacheDir, filepath.Join(root, "c"))
	t.Setenv(EnvDataDir, filepath.Join(root, "d"))
	t.Setenv(EnvConfigDir, filepath.Join(root, "cfg"))
	t.Setenv(EnvRuntimeDataDir, filepath.Join(root, "rt"))

	d, err := XDG()
	require.NoError(t, err)
	assert.Equal(t, Dirs{
		Cache:       filepath.Join(root, "c"),
		Data:        filepath.Join(root, "d"),
		Config:      filepath.Join(root, "cfg"),
		RuntimeData: filepath.Join(root, "rt"),
	}, d)
}

func TestXDG_Namespaced(t *testing.T) {
	t.Setenv(EnvCacheDir, "")
	t.Setenv(EnvDataDir, "")

	d, err := XDG()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(d.Cache))
	assert.Equal(t, AppName, filepath.Base(d.Data))
}

func TestEnsure(t *testing.T) {
	p, err := New(testDirs(t))
	require.NoError(t, err)
	require.NoError(t, p.Ensure())

	for _, dir := range []string{p.Cache, p.Data, p.Install, p.Config, p.Bin} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}

	// Idempotent.
	require.NoError(t, p.Ensure())
}

func TestExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, "inko.exe", Executable())
	} else {
		assert.Equal(t, "inko", Executable())
	}
}
