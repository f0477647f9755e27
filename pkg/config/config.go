// Package config loads ivm's optional configuration file.
//
// The file lives at <config>/config.toml. Every key is optional; an absent
// file yields [Default]. Durations use Go syntax ("6h", "10s").
//
//	release_url   = "https://releases.inko-lang.org"
//	manifest_ttl  = "6h"
//	http_timeout  = "10s"
//	http_attempts = 1
//	http_retry_delay = "1s"
//	lock_timeout  = "30s"
//
//	[build]
//	command   = "cargo"
//	args      = ["build", "--release"]
//	features  = ["libffi-system"]
//	rustflags = "-C target-feature=+aes"
package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ivm/pkg/errors"
)

// EnvReleaseURL overrides release_url.
const EnvReleaseURL = "IVM_RELEASE_URL"

// DefaultReleaseURL is where Inko publishes its manifest and source archives.
const DefaultReleaseURL = "https://releases.inko-lang.org"

// Config is the decoded configuration file.
type Config struct {
	ReleaseURL     string   `toml:"release_url"`
	ManifestTTL    Duration `toml:"manifest_ttl"`
	HTTPTimeout    Duration `toml:"http_timeout"`
	HTTPAttempts   int      `toml:"http_attempts"`
	HTTPRetryDelay Duration `toml:"http_retry_delay"` // doubled after each failed attempt
	LockTimeout    Duration `toml:"lock_timeout"`
	Build          Build    `toml:"build"`
}

// Build configures the command that compiles a downloaded source tree.
type Build struct {
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`
	Features  []string `toml:"features"` // not passed on Windows
	RustFlags string   `toml:"rustflags"`
}

// Duration is a time.Duration written as a string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ReleaseURL:     DefaultReleaseURL,
		ManifestTTL:    Duration{6 * time.Hour},
		HTTPTimeout:    Duration{10 * time.Second},
		HTTPAttempts:   1,
		HTTPRetryDelay: Duration{time.Second},
		LockTimeout:    Duration{30 * time.Second},
		Build: Build{
			Command:   "cargo",
			Args:      []string{"build", "--release"},
			Features:  []string{"libffi-system"},
			RustFlags: "-C target-feature=+aes",
		},
	}
}

// Load reads path on top of [Default] and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, errors.Wrap(errors.ErrCodeConfig, err, "Failed to read %s", path)
	default:
		if err := cfg.decode(path, data); err != nil {
			return cfg, err
		}
	}

	if url := os.Getenv(EnvReleaseURL); url != "" {
		cfg.ReleaseURL = url
	}
	cfg.ReleaseURL = strings.TrimRight(cfg.ReleaseURL, "/")

	return cfg, cfg.Validate()
}

func (c *Config) decode(path string, data []byte) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "Failed to parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeConfig, "The setting %s doesn't exist", undecoded[0].String())
	}
	return nil
}

// Validate reports the first setting with an unusable value.
func (c Config) Validate() error {
	if c.ReleaseURL == "" {
		return errors.New(errors.ErrCodeConfig, "release_url must not be empty")
	}
	if err := errors.ValidateURL(c.ReleaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "release_url is invalid")
	}
	if c.ManifestTTL.Duration <= 0 {
		return errors.New(errors.ErrCodeConfig, "manifest_ttl must be positive")
	}
	if c.HTTPTimeout.Duration <= 0 {
		return errors.New(errors.ErrCodeConfig, "http_timeout must be positive")
	}
	if c.HTTPAttempts < 1 {
		return errors.New(errors.ErrCodeConfig, "http_attempts must be at least 1")
	}
	if c.HTTPRetryDelay.Duration <= 0 {
		return errors.New(errors.ErrCodeConfig, "http_retry_delay must be positive")
	}
	if c.LockTimeout.Duration <= 0 {
		return errors.New(errors.ErrCodeConfig, "lock_timeout must be positive")
	}
	if c.Build.Command == "" {
		return errors.New(errors.ErrCodeConfig, "build.command must not be empty")
	}
	return nil
}

// ManifestURL is the location of the list of published versions.
func (c Config) ManifestURL() string {
	return c.ReleaseURL + "/manifest.txt"
}
