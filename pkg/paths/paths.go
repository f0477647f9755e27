// Package paths resolves the directories ivm reads and writes.
//
// [Dirs] holds the four platform roots (cache, data, config and the Inko
// runtime data directory). [XDG] resolves them for the current user, and
// [New] derives every other location from them. Components receive a
// [Paths] value and never look up directories on their own, which lets
// tests point the whole tool at a temporary directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/matzehuels/ivm/pkg/errors"
)

// AppName is the directory name ivm uses below each platform root.
const AppName = "ivm"

// RuntimeAppName is the directory name the Inko runtime uses below the
// data root. Per-version runtime data lives in its runtimes subdirectory.
const RuntimeAppName = "inko"

// Environment variables overriding the platform roots.
const (
	EnvCacheDir       = "IVM_CACHE_DIR"
	EnvDataDir        = "IVM_DATA_DIR"
	EnvConfigDir      = "IVM_CONFIG_DIR"
	EnvRuntimeDataDir = "INKO_DATA_DIR"
)

// Dirs are the platform roots everything else is derived from.
type Dirs struct {
	Cache       string
	Data        string
	Config      string
	RuntimeData string
}

// XDG resolves the platform roots using the XDG base directory layout
// (or the platform equivalent), honouring the IVM_* and INKO_DATA_DIR
// overrides.
func XDG() (Dirs, error) {
	d := Dirs{
		Cache:       fromEnv(EnvCacheDir, xdg.CacheHome, AppName),
		Data:        fromEnv(EnvDataDir, xdg.DataHome, AppName),
		Config:      fromEnv(EnvConfigDir, xdg.ConfigHome, AppName),
		RuntimeData: fromEnv(EnvRuntimeDataDir, xdg.DataHome, RuntimeAppName),
	}
	return d, d.validate()
}

func fromEnv(key, base, name string) string {
	if dir := os.Getenv(key); dir != "" {
		return dir
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, name)
}

func (d Dirs) validate() error {
	switch {
	case d.Cache == "":
		return errors.New(errors.ErrCodeFileSystem, "The cache directory couldn't be determined")
	case d.Data == "":
		return errors.New(errors.ErrCodeFileSystem, "The data directory couldn't be determined")
	case d.Config == "":
		return errors.New(errors.ErrCodeFileSystem, "The configuration directory couldn't be determined")
	case d.RuntimeData == "":
		return errors.New(errors.ErrCodeFileSystem, "The runtime data directory couldn't be determined")
	}
	return nil
}

// Paths are all the locations ivm uses.
type Paths struct {
	Cache  string // cache root
	Data   string // data root
	Config string // config root

	Install      string // installed/<version>
	Bin          string // directory holding the default executable symlink
	Downloads    string // downloads/<version> extraction directories
	ManifestFile string // cached manifest
	DefaultFile  string // marker file naming the default version
	ConfigFile   string // config.toml
	LockFile     string // advisory lock
	Runtimes     string // per-version Inko runtime data
}

// New derives every path from the given roots.
func New(d Dirs) (Paths, error) {
	if err := d.validate(); err != nil {
		return Paths{}, err
	}

	downloads := filepath.Join(d.Cache, "downloads")
	return Paths{
		Cache:        d.Cache,
		Data:         d.Data,
		Config:       d.Config,
		Install:      filepath.Join(d.Data, "installed"),
		Bin:          filepath.Join(d.Data, "bin"),
		Downloads:    downloads,
		ManifestFile: filepath.Join(downloads, "manifest.txt"),
		DefaultFile:  filepath.Join(d.Config, "version"),
		ConfigFile:   filepath.Join(d.Config, "config.toml"),
		LockFile:     filepath.Join(d.Data, "ivm.lock"),
		Runtimes:     filepath.Join(d.RuntimeData, "runtimes"),
	}, nil
}

// Ensure creates the directories ivm expects to exist.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.Cache, p.Data, p.Install, p.Config, p.Bin} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to create %s", dir)
		}
	}
	return nil
}

// VersionDir returns the install directory for a version name.
func (p Paths) VersionDir(name string) string {
	return filepath.Join(p.Install, name)
}

// DownloadDir returns the extraction directory for a version name.
func (p Paths) DownloadDir(name string) string {
	return filepath.Join(p.Downloads, name)
}

// RuntimeDir returns the runtime data directory for a version name.
func (p Paths) RuntimeDir(name string) string {
	return filepath.Join(p.Runtimes, name)
}

// DefaultExecutable is the path of the symlink to the default version.
func (p Paths) DefaultExecutable() string {
	return filepath.Join(p.Bin, Executable())
}

// Executable is the file name of the inko executable on this platform.
func Executable() string {
	if runtime.GOOS == "windows" {
		return "inko.exe"
	}
	return "inko"
}
