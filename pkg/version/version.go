// Package version implements the version numbers of Inko releases.
//
// A [Version] is a (major, minor, patch) triple where each component fits in
// a byte. Versions are ordered numerically, so 1.2.0 sorts before 1.10.0.
// The canonical form "major.minor.patch" is used both as the name of an
// installed version's directory and as the line format of the manifest.
//
// The zero value 0.0.0 is reserved to mean "no version" and is never
// produced by [Parse].
package version

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/ivm/pkg/errors"
)

// Latest is the special target that resolves to the newest known version.
const Latest = "latest"

// Version is a release version of Inko.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint8
}

// New returns the version major.minor.patch.
func New(major, minor, patch uint8) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse parses a version such as "0.18.1".
//
// Only the first three dot-separated groups are considered; any further
// groups are ignored. Missing groups default to zero, so "1" parses as 1.0.0
// and "1.1" as 1.1.0. A group that isn't a number in the range 0-255, or a
// result of 0.0.0, is an [errors.ErrCodeInvalidVersion] error.
func Parse(text string) (Version, error) {
	var parts [3]uint8

	for i, group := range strings.SplitN(text, ".", 4) {
		if i == len(parts) {
			break
		}
		n, err := strconv.ParseUint(group, 10, 8)
		if err != nil {
			return Version{}, errors.New(errors.ErrCodeInvalidVersion, "The version %q is invalid", text)
		}
		parts[i] = uint8(n)
	}

	v := Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}
	if v.IsZero() {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "The version %q is invalid", text)
	}
	return v, nil
}

// MustParse is like [Parse] but panics on invalid input.
// Intended for tests and package-level constants.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v is the 0.0.0 sentinel.
func (v Version) IsZero() bool {
	return v == Version{}
}

// String returns the canonical "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to
// or after other.
func (v Version) Compare(other Version) int {
	return Compare(v, other)
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// Equal reports whether v and other are the same version.
func (v Version) Equal(other Version) bool {
	return v == other
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare orders a and b by major, then minor, then patch.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Minor, b.Minor); c != 0 {
		return c
	}
	return cmp.Compare(a.Patch, b.Patch)
}

// Sort sorts versions in ascending order.
func Sort(versions []Version) {
	slices.SortFunc(versions, Compare)
}

// Max returns the highest version, or false when versions is empty.
func Max(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	return slices.MaxFunc(versions, Compare), true
}
