package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/paths"
	"github.com/matzehuels/ivm/pkg/version"
)

// Pointer is the default version: a marker file holding the version and a
// symlink in the bin directory pointing to that version's executable.
//
// The two are written one after the other, so a crash in between can leave
// them disagreeing. [Pointer.Current] only trusts the marker; use
// [Pointer.Check] and [Pointer.Repair] to detect and fix a mismatch.
type Pointer struct {
	paths paths.Paths
	store *Store
}

// NewPointer returns the default pointer for the versions in s.
func NewPointer(s *Store) *Pointer {
	return &Pointer{paths: s.paths, store: s}
}

// Set makes v the default version. v must be installed.
func (p *Pointer) Set(v version.Version) error {
	if !p.store.Installed(v) {
		return errors.New(errors.ErrCodeNotInstalled, "The version %s is not installed", v)
	}

	if err := os.MkdirAll(filepath.Dir(p.paths.DefaultFile), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to set the default version")
	}
	if err := os.WriteFile(p.paths.DefaultFile, []byte(v.String()), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to set the default version")
	}

	return p.link(v)
}

func (p *Pointer) link(v version.Version) error {
	link := p.paths.DefaultExecutable()
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to create %s", filepath.Dir(link))
	}

	// Lstat so a dangling link is removed as well.
	if _, err := os.Lstat(link); err == nil {
		if err := os.Remove(link); err != nil {
			return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to remove %s", link)
		}
	}

	if err := os.Symlink(p.store.Executable(v), link); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to create the symbolic link %s", link)
	}
	return nil
}

// Current returns the default version. A missing, unreadable or invalid
// marker means there is no default.
func (p *Pointer) Current() (version.Version, bool) {
	data, err := os.ReadFile(p.paths.DefaultFile)
	if err != nil {
		return version.Version{}, false
	}
	v, err := version.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}

// Clear removes the marker and the symlink. Missing files are ignored.
func (p *Pointer) Clear() error {
	if err := removePath(p.paths.DefaultFile); err != nil {
		return err
	}
	return removePath(p.paths.DefaultExecutable())
}

// Status describes the two halves of the default pointer.
type Status struct {
	// Marker is the version named by the marker file, if HasMarker.
	Marker    version.Version
	HasMarker bool

	// Target is the destination of the symlink, if HasLink. LinkVersion is
	// the version whose install directory Target points into, if any.
	Target      string
	HasLink     bool
	LinkVersion version.Version

	// Installed reports whether Marker is installed.
	Installed bool
}

// Consistent reports whether the marker and the symlink agree: either
// neither exists, or the marker names an installed version and the symlink
// points to its executable.
func (s Status) Consistent() bool {
	if !s.HasMarker && !s.HasLink {
		return true
	}
	return s.HasMarker && s.HasLink && s.Installed && s.LinkVersion == s.Marker
}

// Check inspects the marker and the symlink without changing either.
func (p *Pointer) Check() (Status, error) {
	var st Status

	st.Marker, st.HasMarker = p.Current()
	if st.HasMarker {
		st.Installed = p.store.Installed(st.Marker)
	}

	link := p.paths.DefaultExecutable()
	target, err := os.Readlink(link)
	switch {
	case err == nil:
		st.HasLink = true
		st.Target = target
		if v, ok := p.linkVersion(target); ok {
			st.LinkVersion = v
		}
	case os.IsNotExist(err):
	default:
		// Something other than a symlink occupies the path.
		if _, statErr := os.Lstat(link); statErr == nil {
			st.HasLink = true
			st.Target = link
		} else {
			return st, errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to read %s", link)
		}
	}

	return st, nil
}

// linkVersion extracts the version from a symlink target of the form
// <install>/<version>/bin/<exe>.
func (p *Pointer) linkVersion(target string) (version.Version, bool) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(p.paths.DefaultExecutable()), target)
	}
	rel, err := filepath.Rel(p.paths.Install, filepath.Clean(target))
	if err != nil {
		return version.Version{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 || parts[1] != "bin" || parts[2] != paths.Executable() {
		return version.Version{}, false
	}
	v, err := version.Parse(parts[0])
	if err != nil || v.String() != parts[0] {
		return version.Version{}, false
	}
	return v, true
}

// Repair makes the marker and the symlink agree. If the marker names an
// installed version the symlink is recreated for it; otherwise both are
// removed. It returns the resulting status.
func (p *Pointer) Repair() (Status, error) {
	st, err := p.Check()
	if err != nil {
		return st, err
	}
	if st.Consistent() {
		return st, nil
	}

	if st.HasMarker && st.Installed {
		err = p.link(st.Marker)
	} else {
		err = p.Clear()
	}
	if err != nil {
		return st, err
	}
	return p.Check()
}
