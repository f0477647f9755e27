// Package install downloads, builds and installs Inko versions.
//
// Installing a version runs these steps in order:
//
//  1. resolve: "latest" becomes the newest version in the manifest; any
//     other target is parsed as a version without consulting the manifest
//  2. download: reuse downloads/<version> if present, otherwise check that
//     <release>/<version>.tar.gz exists and unpack it there
//  3. build: compile the sources with cargo
//  4. place: copy the executable, license and standard library into a
//     staging directory and rename it to installed/<version>
//  5. cleanup: remove downloads/<version>
//
// A failed install never leaves a directory that the store reports as
// installed. Sources unpacked before a failure are kept and reused by the
// next attempt.
package install

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/observability"
	"github.com/matzehuels/ivm/pkg/paths"
	"github.com/matzehuels/ivm/pkg/store"
	"github.com/matzehuels/ivm/pkg/version"
)

// Step names reported to install hooks.
const (
	StepResolve  = "resolve"
	StepDownload = "download"
	StepBuild    = "build"
	StepPlace    = "place"
	StepCleanup  = "cleanup"
)

// stagingPrefix starts the name of temporary install directories. Such names
// never parse as a version.
const stagingPrefix = ".staging-"

// LatestResolver returns the newest published version.
// *manifest.Cache implements it.
type LatestResolver interface {
	Latest(ctx context.Context) (version.Version, error)
}

// Remote gives access to the release archives.
// *httputil.Client implements it.
type Remote interface {
	Exists(ctx context.Context, url string) error
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options configure an Installer.
type Options struct {
	Paths      paths.Paths
	ReleaseURL string
	Manifest   LatestResolver
	Remote     Remote
	Builder    Builder
	Logger     *log.Logger

	// Progress, if set, is called when a step starts. The returned function
	// is called when it ends.
	Progress func(step string, v version.Version) func()
}

// Installer runs the install pipeline.
type Installer struct {
	paths      paths.Paths
	store      *store.Store
	releaseURL string
	manifest   LatestResolver
	remote     Remote
	builder    Builder
	logger     *log.Logger
	progress   func(string, version.Version) func()
}

// New creates an Installer. A nil logger discards log output.
func New(opts Options) *Installer {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Installer{
		paths:      opts.Paths,
		store:      store.New(opts.Paths),
		releaseURL: opts.ReleaseURL,
		manifest:   opts.Manifest,
		remote:     opts.Remote,
		builder:    opts.Builder,
		logger:     logger,
		progress:   opts.Progress,
	}
}

// ArchiveURL is the location of the source archive of v.
func (i *Installer) ArchiveURL(v version.Version) string {
	return i.releaseURL + "/" + v.String() + ".tar.gz"
}

// Install installs target, which is either "latest" or a version.
func (i *Installer) Install(ctx context.Context, target string) (version.Version, error) {
	var v version.Version
	err := i.step(ctx, StepResolve, target, version.Version{}, func() error {
		var err error
		v, err = i.resolve(ctx, target)
		return err
	})
	if err != nil {
		return v, err
	}

	i.logger.Infof("Downloading version %s", v)

	var source string
	err = i.step(ctx, StepDownload, v.String(), v, func() error {
		var err error
		source, err = i.download(ctx, v)
		return err
	})
	if err != nil {
		return v, err
	}

	if i.store.Installed(v) {
		return v, errors.New(errors.ErrCodeAlreadyInstalled, "The version %s is already installed", v)
	}

	i.logger.Infof("Installing version %s", v)

	err = i.step(ctx, StepBuild, v.String(), v, func() error {
		return i.builder.Build(ctx, BuildRequest{
			Version:   v,
			SourceDir: source,
			LibStdDir: libStdDir(i.store.Dir(v)),
		})
	})
	if err != nil {
		return v, err
	}

	if err := i.step(ctx, StepPlace, v.String(), v, func() error { return i.place(source, v) }); err != nil {
		return v, err
	}

	i.logger.Info("Removing source directory")

	err = i.step(ctx, StepCleanup, v.String(), v, func() error {
		if err := os.RemoveAll(source); err != nil {
			return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to remove the source directory")
		}
		return nil
	})
	if err != nil {
		return v, err
	}

	return v, nil
}

func (i *Installer) step(ctx context.Context, name, label string, v version.Version, fn func() error) error {
	hooks := observability.Install()
	hooks.OnStepStart(ctx, label, name)

	var done func()
	if i.progress != nil {
		done = i.progress(name, v)
	}

	start := time.Now()
	err := fn()

	if done != nil {
		done()
	}
	hooks.OnStepComplete(ctx, label, name, time.Since(start), err)
	return err
}

func (i *Installer) resolve(ctx context.Context, target string) (version.Version, error) {
	if target == version.Latest {
		return i.manifest.Latest(ctx)
	}
	return version.Parse(target)
}

// download returns the directory holding the unpacked sources of v.
func (i *Installer) download(ctx context.Context, v version.Version) (string, error) {
	dir := i.paths.DownloadDir(v.String())
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		i.logger.Debug("reusing downloaded sources", "dir", dir)
		return dir, nil
	}

	// The manifest may lag behind a fresh release, so the archive itself is
	// the authority on whether a version exists.
	url := i.ArchiveURL(v)
	if err := i.remote.Exists(ctx, url); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		i.logger.Debug("existence check failed", "url", url, "err", err)
		return "", errors.New(errors.ErrCodeVersionNotFound, "The version %s does not exist", v)
	}

	body, err := i.remote.Open(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(i.paths.Downloads, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to create %s", i.paths.Downloads)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to create %s", dir)
	}

	if err := Unpack(body, dir); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Wrap(errors.ErrCodeUnpackFailed, err, "Failed to unpack the TAR archive into %s", dir)
	}
	return dir, nil
}

// place copies the build output into a staging directory and renames it to
// the install directory of v. The staging directory is removed on failure.
func (i *Installer) place(source string, v version.Version) (err error) {
	if err := mkdirAll(i.paths.Install); err != nil {
		return err
	}

	staging := filepath.Join(i.paths.Install, stagingPrefix+uuid.NewString())
	defer func() {
		if err != nil {
			_ = os.RemoveAll(staging)
		}
	}()

	binDir := filepath.Join(staging, "bin")
	stdDir := libStdDir(staging)
	licenseDir := filepath.Join(staging, "share", "licenses", "inko")

	for _, dir := range []string{binDir, stdDir, licenseDir} {
		if err := mkdirAll(dir); err != nil {
			return err
		}
	}

	exe := paths.Executable()
	if err := copyFile(filepath.Join(source, "target", "release", exe), filepath.Join(binDir, exe), 0o755); err != nil {
		return err
	}
	if err := copyFile(filepath.Join(source, "LICENSE"), filepath.Join(licenseDir, "LICENSE"), 0o644); err != nil {
		return err
	}
	if err := copyTree(filepath.Join(source, "libstd", "src"), stdDir); err != nil {
		return err
	}

	target := i.store.Dir(v)
	if i.store.Installed(v) {
		return errors.New(errors.ErrCodeAlreadyInstalled, "The version %s is already installed", v)
	}
	if err := os.Rename(staging, target); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to move %s to %s", staging, target)
	}
	return nil
}

func libStdDir(root string) string {
	return filepath.Join(root, "lib", "inko", "libstd")
}
