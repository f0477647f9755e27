package install

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpack(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, Unpack(bytes.NewReader(sourceArchive(t)), dest))

	data, err := os.ReadFile(filepath.Join(dest, "LICENSE"))
	require.NoError(t, err)
	assert.Equal(t, "MPL-2.0\n", string(data))
	assert.FileExists(t, filepath.Join(dest, "libstd", "src", "std", "io", "file.inko"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dest, "scripts", "build.sh"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

		target, err := os.Readlink(filepath.Join(dest, "scripts", "current"))
		require.NoError(t, err)
		assert.Equal(t, "build.sh", target)
	}
}

func TestUnpack_RejectsEscapes(t *testing.T) {
	tests := []struct {
		name    string
		entries []archiveEntry
		symlink bool
	}{
		{"parent path", []archiveEntry{{name: "../evil", body: "x"}}, false},
		{"nested parent path", []archiveEntry{{name: "a/../../evil", body: "x"}}, false},
		{"absolute path", []archiveEntry{{name: "/tmp/evil", body: "x"}}, false},
		{"absolute symlink", []archiveEntry{{name: "link", typ: tar.TypeSymlink, link: "/etc/passwd"}}, true},
		{"escaping symlink", []archiveEntry{{name: "a/link", typ: tar.TypeSymlink, link: "../../outside"}}, true},
		{"escaping hard link", []archiveEntry{{name: "hard", typ: tar.TypeLink, link: "../outside"}}, false},
		{"symlink chain", []archiveEntry{
			{name: "a", typ: tar.TypeSymlink, link: "."},
			{name: "a/c", typ: tar.TypeSymlink, link: ".."},
			{name: "c/evil", body: "pwned"},
		}, true},
		{"symlink through link to root", []archiveEntry{
			{name: "s", typ: tar.TypeSymlink, link: "."},
			{name: "l", typ: tar.TypeSymlink, link: "s/../evil"},
		}, true},
		{"link below link to parent", []archiveEntry{
			{name: "dir/", typ: tar.TypeDir},
			{name: "dir/up", typ: tar.TypeSymlink, link: ".."},
			{name: "dir/up/out", typ: tar.TypeSymlink, link: "../evil"},
		}, true},
		{"hard link through symlink", []archiveEntry{
			{name: "s", typ: tar.TypeSymlink, link: "."},
			{name: "hard", typ: tar.TypeLink, link: "s/../evil"},
		}, true},
		{"symlink loop", []archiveEntry{
			{name: "x", typ: tar.TypeSymlink, link: "y"},
			{name: "y", typ: tar.TypeSymlink, link: "x"},
			{name: "x/evil", body: "pwned"},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.symlink && runtime.GOOS == "windows" {
				t.Skip("symbolic links require privileges on Windows")
			}
			root := t.TempDir()
			dest := filepath.Join(root, "dest")
			require.NoError(t, os.Mkdir(dest, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(root, "evil"), []byte("original"), 0o644))

			err := Unpack(bytes.NewReader(makeArchive(t, tt.entries)), dest)
			require.Error(t, err)

			data, err := os.ReadFile(filepath.Join(root, "evil"))
			require.NoError(t, err)
			assert.Equal(t, "original", string(data))
			assert.NoFileExists(t, filepath.Join(root, "outside"))
		})
	}
}

func TestUnpack_FollowsLinksInsideDest(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symbolic links require privileges on Windows")
	}
	dest := t.TempDir()
	archive := makeArchive(t, []archiveEntry{
		{name: "libstd/", typ: tar.TypeDir},
		{name: "src", typ: tar.TypeSymlink, link: "libstd"},
		{name: "src/std/string.inko", body: "# string\n"},
		{name: "libstd/up", typ: tar.TypeSymlink, link: ".."},
		{name: "libstd/up/LICENSE", body: "MPL-2.0\n"},
	})
	require.NoError(t, Unpack(bytes.NewReader(archive), dest))

	data, err := os.ReadFile(filepath.Join(dest, "libstd", "std", "string.inko"))
	require.NoError(t, err)
	assert.Equal(t, "# string\n", string(data))
	assert.FileExists(t, filepath.Join(dest, "LICENSE"))
}

func TestUnpack_ReplacesSymlinkWithFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symbolic links require privileges on Windows")
	}
	dest := t.TempDir()
	archive := makeArchive(t, []archiveEntry{
		{name: "config", body: "inside\n"},
		{name: "current", typ: tar.TypeSymlink, link: "config"},
		{name: "current", body: "replaced\n"},
	})
	require.NoError(t, Unpack(bytes.NewReader(archive), dest))

	data, err := os.ReadFile(filepath.Join(dest, "config"))
	require.NoError(t, err)
	assert.Equal(t, "inside\n", string(data))

	info, err := os.Lstat(filepath.Join(dest, "current"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
}

func TestUnpack_NotGzip(t *testing.T) {
	err := Unpack(bytes.NewReader([]byte("plain text")), t.TempDir())
	assert.Error(t, err)
}
