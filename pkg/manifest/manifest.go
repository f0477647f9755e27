// Package manifest keeps a local copy of the list of published Inko versions.
//
// The release server publishes manifest.txt, a plain text file with one
// version per line. [Cache] stores it on disk and only downloads it again
// once the local copy is older than its TTL (six hours by default), using
// the file's modification time as the clock.
//
// Lines holding only whitespace are skipped, so a trailing newline or a
// blank separator doesn't invalidate the file. Any other line must be a
// version; a single bad line makes the whole manifest unusable, and the
// error names its line number counting the blank lines too.
package manifest

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/observability"
	"github.com/matzehuels/ivm/pkg/version"
)

// DefaultTTL is how long a downloaded manifest is considered fresh.
const DefaultTTL = 6 * time.Hour

// cacheKeyType identifies manifest lookups in cache hooks.
const cacheKeyType = "manifest"

// Fetcher downloads a text document. *httputil.Client implements it.
type Fetcher interface {
	GetText(ctx context.Context, url string) (string, error)
}

// Manifest is a list of known versions, sorted in ascending order.
// Duplicates present in the source are kept.
type Manifest struct {
	versions []version.Version
}

// New returns a Manifest of the given versions, sorted.
func New(versions []version.Version) Manifest {
	sorted := slices.Clone(versions)
	version.Sort(sorted)
	return Manifest{versions: sorted}
}

// Versions returns the versions in ascending order.
func (m Manifest) Versions() []version.Version {
	return slices.Clone(m.versions)
}

// Contains reports whether v is listed.
func (m Manifest) Contains(v version.Version) bool {
	return slices.Contains(m.versions, v)
}

// Latest returns the newest version.
func (m Manifest) Latest() (version.Version, error) {
	v, ok := version.Max(m.versions)
	if !ok {
		return version.Version{}, errors.New(errors.ErrCodeNoVersions, "There are no versions available")
	}
	return v, nil
}

// Cache is the on-disk copy of the remote manifest.
type Cache struct {
	path    string
	url     string
	ttl     time.Duration
	fetcher Fetcher
	now     func() time.Time
}

// NewCache creates a Cache stored at path and refreshed from url.
// A non-positive ttl uses [DefaultTTL].
func NewCache(path, url string, ttl time.Duration, fetcher Fetcher) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		path:    path,
		url:     url,
		ttl:     ttl,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// Path returns the location of the cache file.
func (c *Cache) Path() string { return c.path }

// Stale reports whether the cache file must be downloaded again: it doesn't
// exist, it is at least TTL old, or its modification time lies in the
// future.
func (c *Cache) Stale() (bool, error) {
	info, err := os.Stat(c.path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to read the manifest file")
	}

	age := c.now().Sub(info.ModTime())
	return age < 0 || age >= c.ttl, nil
}

// Refresh downloads the manifest if the local copy is stale. A fresh copy
// results in no network traffic.
func (c *Cache) Refresh(ctx context.Context) error {
	stale, err := c.Stale()
	if err != nil {
		return err
	}

	hooks := observability.Cache()
	if !stale {
		hooks.OnCacheHit(ctx, cacheKeyType)
		return nil
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)

	body, err := c.fetcher.GetText(ctx, c.url)
	if err != nil {
		return err
	}
	if err := writeFile(c.path, []byte(body)); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to update the manifest file")
	}

	hooks.OnCacheSet(ctx, cacheKeyType, len(body))
	return nil
}

// Parse reads the cache file. Blank lines are skipped; any other line that
// isn't a valid version makes the whole file invalid.
func (c *Cache) Parse() (Manifest, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to read the manifest file")
	}
	defer f.Close()

	var versions []version.Version
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := version.Parse(text)
		if err != nil {
			return Manifest{}, errors.Wrap(errors.ErrCodeInvalidVersion, err, "Line %d of the manifest file is invalid", line)
		}
		versions = append(versions, v)
	}
	if err := scanner.Err(); err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to read the manifest file")
	}

	return New(versions), nil
}

// Load refreshes the cache if needed and parses it.
func (c *Cache) Load(ctx context.Context) (Manifest, error) {
	if err := c.Refresh(ctx); err != nil {
		return Manifest{}, err
	}
	return c.Parse()
}

// Latest refreshes the cache if needed and returns the newest version.
func (c *Cache) Latest(ctx context.Context) (version.Version, error) {
	m, err := c.Load(ctx)
	if err != nil {
		return version.Version{}, err
	}
	return m.Latest()
}

// writeFile replaces path with data by writing a temporary file in the same
// directory and renaming it over path.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
