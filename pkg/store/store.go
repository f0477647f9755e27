// Package store manages the installed Inko versions.
//
// Every installed version is a directory named after the version below the
// install root:
//
//	installed/0.18.1/bin/inko
//	installed/0.18.1/lib/inko/libstd/...
//	installed/0.18.1/share/licenses/inko/LICENSE
//
// [Store] lists, resolves and removes those directories and runs commands
// against them. [Pointer] tracks which of them is the default.
package store

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/paths"
	"github.com/matzehuels/ivm/pkg/version"
)

// Store is the set of versions below the install root.
type Store struct {
	paths paths.Paths
}

// New returns a Store rooted at p.Install.
func New(p paths.Paths) *Store {
	return &Store{paths: p}
}

// Paths returns the paths the store was created with.
func (s *Store) Paths() paths.Paths { return s.paths }

// Dir is the install directory of v.
func (s *Store) Dir(v version.Version) string {
	return s.paths.VersionDir(v.String())
}

// BinDir is the directory holding the executables of v.
func (s *Store) BinDir(v version.Version) string {
	return filepath.Join(s.Dir(v), "bin")
}

// Executable is the inko executable of v.
func (s *Store) Executable(v version.Version) string {
	return filepath.Join(s.BinDir(v), paths.Executable())
}

// Installed reports whether the install directory of v exists.
func (s *Store) Installed(v version.Version) bool {
	info, err := os.Stat(s.Dir(v))
	return err == nil && info.IsDir()
}

// List returns the installed versions in ascending order. Entries of the
// install root that aren't directories named after a version are ignored.
func (s *Store) List() ([]version.Version, error) {
	entries, err := os.ReadDir(s.paths.Install)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to read %s", s.paths.Install)
	}

	var versions []version.Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := version.Parse(entry.Name())
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}

	version.Sort(versions)
	return versions, nil
}

// LatestInstalled returns the newest installed version, or false if none are
// installed.
func (s *Store) LatestInstalled() (version.Version, bool, error) {
	versions, err := s.List()
	if err != nil {
		return version.Version{}, false, err
	}
	v, ok := version.Max(versions)
	return v, ok, nil
}

// Resolve turns a command-line target into a version. "latest" is the newest
// installed version; anything else must parse as a version.
func (s *Store) Resolve(target string) (version.Version, error) {
	if target != version.Latest {
		return version.Parse(target)
	}

	v, ok, err := s.LatestInstalled()
	if err != nil {
		return version.Version{}, err
	}
	if !ok {
		return version.Version{}, errors.New(errors.ErrCodeNoVersions, "No versions are installed")
	}
	return v, nil
}

// Remove deletes the install directory of v. Removing a version that isn't
// installed succeeds without touching the filesystem.
func (s *Store) Remove(v version.Version) error {
	dir := s.Dir(v)
	if _, err := os.Lstat(dir); os.IsNotExist(err) {
		return nil
	}
	return removePath(dir)
}

// RemoveCascade removes v like [Store.Remove] and also deletes the runtime
// data of v. If v is the default version the default pointer is cleared.
func (s *Store) RemoveCascade(v version.Version, ptr *Pointer) error {
	dir := s.Dir(v)
	if _, err := os.Lstat(dir); os.IsNotExist(err) {
		return nil
	}

	targets := []string{dir, s.paths.RuntimeDir(v.String())}
	if current, ok := ptr.Current(); ok && current == v {
		targets = append(targets, s.paths.DefaultFile, s.paths.DefaultExecutable())
	}

	for _, path := range targets {
		if err := removePath(path); err != nil {
			return err
		}
	}
	return nil
}

// removePath removes a file, symlink or directory tree. A missing path is
// not an error.
func removePath(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to remove %s", path)
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to remove %s", path)
	}
	return nil
}
