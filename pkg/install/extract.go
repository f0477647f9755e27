package install

import (
	"archive/tar"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/ivm/pkg/errors"
)

// maxLinkDepth bounds how many symbolic links are followed while resolving an
// archive path.
const maxLinkDepth = 40

// Unpack decompresses a gzipped TAR stream into dest, one entry at a time.
// Directories, regular files (keeping their permission bits), symbolic links
// and hard links are unpacked; other entry types are skipped. Entries that
// would end up outside dest, including through symbolic links unpacked
// earlier, are rejected.
func Unpack(r io.Reader, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return err
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	u := unpacker{root: root}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := u.entry(tr, hdr); err != nil {
			return err
		}
	}
}

// unpacker writes archive entries below root, which has no symbolic links in
// it.
type unpacker struct {
	root string
}

func (u unpacker) entry(tr *tar.Reader, hdr *tar.Header) error {
	name := strings.TrimPrefix(hdr.Name, "./")
	if name == "" || name == "." {
		return nil
	}
	if err := errors.ValidateArchivePath(name); err != nil {
		return err
	}

	parent, err := u.resolve(name, u.root, path.Dir(name), 0)
	if err != nil {
		return err
	}
	target := filepath.Join(parent, path.Base(name))

	switch hdr.Typeflag {
	case tar.TypeDir:
		dir, err := u.resolve(name, parent, path.Base(name), 0)
		if err != nil {
			return err
		}
		return os.MkdirAll(dir, dirMode(hdr))

	case tar.TypeReg:
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return err
		}
		if err := removeLink(target); err != nil {
			return err
		}
		return writeEntry(tr, target, hdr.FileInfo().Mode().Perm())

	case tar.TypeSymlink:
		if filepath.IsAbs(hdr.Linkname) || filepath.VolumeName(hdr.Linkname) != "" {
			return escapeError(name)
		}
		if _, err := u.resolve(name, parent, hdr.Linkname, 1); err != nil {
			return err
		}
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return err
		}
		_ = os.Remove(target)
		return os.Symlink(hdr.Linkname, target)

	case tar.TypeLink:
		if err := errors.ValidateArchivePath(hdr.Linkname); err != nil {
			return err
		}
		source, err := u.resolve(name, u.root, hdr.Linkname, 0)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return err
		}
		_ = os.Remove(target)
		return os.Link(source, target)
	}

	return nil
}

// resolve walks rel from the directory base one component at a time,
// following symbolic links the way the kernel does. Components that don't
// exist yet are taken as plain directories. The walk fails as soon as it
// leaves root.
func (u unpacker) resolve(entry, base, rel string, depth int) (string, error) {
	if depth > maxLinkDepth {
		return "", errors.New(errors.ErrCodeUnpackFailed, "archive entry %s has too many levels of symbolic links", entry)
	}

	cur := base
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
		default:
			next := filepath.Join(cur, part)
			info, err := os.Lstat(next)
			if err != nil || info.Mode()&os.ModeSymlink == 0 {
				cur = next
				break
			}

			link, err := os.Readlink(next)
			if err != nil {
				return "", err
			}
			if filepath.IsAbs(link) || filepath.VolumeName(link) != "" {
				return "", escapeError(entry)
			}
			if cur, err = u.resolve(entry, cur, link, depth+1); err != nil {
				return "", err
			}
		}

		if !u.contains(cur) {
			return "", escapeError(entry)
		}
	}
	return cur, nil
}

func (u unpacker) contains(p string) bool {
	rel, err := filepath.Rel(u.root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func escapeError(entry string) error {
	return errors.New(errors.ErrCodeUnpackFailed, "archive entry %s points outside the extraction directory", entry)
}

// removeLink removes target if it is a symbolic link, so that writing the
// entry replaces the link instead of following it.
func removeLink(target string) error {
	info, err := os.Lstat(target)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	return os.Remove(target)
}

func writeEntry(r io.Reader, target string, perm os.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// The umask may have stripped bits from the requested mode.
	return os.Chmod(target, perm)
}

func dirMode(hdr *tar.Header) os.FileMode {
	// Directories must stay writable and traversable so their contents can be
	// unpacked.
	return hdr.FileInfo().Mode().Perm() | 0o700
}
