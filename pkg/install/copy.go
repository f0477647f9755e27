package install

import (
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/ivm/pkg/errors"
)

// copyFile copies src to dst, creating or truncating dst with perm.
func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return copyError(src, dst, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return copyError(src, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return copyError(src, dst, err)
	}
	if err := out.Close(); err != nil {
		return copyError(src, dst, err)
	}
	if err := os.Chmod(dst, perm); err != nil {
		return copyError(src, dst, err)
	}
	return nil
}

func copyError(src, dst string, err error) error {
	return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to copy %s to %s", src, dst)
}

// copyTree copies the files below src into dst, keeping their paths relative
// to src. Symbolic links are followed, so a linked directory is copied as a
// directory. Directories are walked depth-first using an explicit stack, and
// the parent directory of every file is created before it is copied.
func copyTree(src, dst string) error {
	if err := mkdirAll(dst); err != nil {
		return err
	}

	// Directories on the way to each pending one, as resolved paths, to
	// catch links that point back up the tree.
	type dirEntry struct {
		path      string
		ancestors []string
	}

	pending := []dirEntry{{path: src}}
	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		resolved, err := filepath.EvalSymlinks(dir.path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to read %s", dir.path)
		}
		if slices.Contains(dir.ancestors, resolved) {
			return errors.New(errors.ErrCodeFileSystem, "Failed to copy %s: it links to one of its parent directories", dir.path)
		}
		ancestors := append(slices.Clone(dir.ancestors), resolved)

		entries, err := os.ReadDir(dir.path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to read %s", dir.path)
		}

		for _, entry := range entries {
			path := filepath.Join(dir.path, entry.Name())
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "Failed to copy %s", path)
			}
			target := filepath.Join(dst, rel)

			info, err := os.Stat(path)
			if err != nil {
				return copyError(path, target, err)
			}
			if info.IsDir() {
				pending = append(pending, dirEntry{path: path, ancestors: ancestors})
				continue
			}

			if err := mkdirAll(filepath.Dir(target)); err != nil {
				return err
			}
			if err := copyFile(path, target, info.Mode().Perm()); err != nil {
				return err
			}
		}
	}
	return nil
}

func mkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to create the directory %s", path)
	}
	return nil
}
