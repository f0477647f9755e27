// Package pkg provides the libraries behind ivm, Inko's version manager.
//
// # Overview
//
// ivm downloads the source of an Inko release, builds it with cargo and
// installs the result under the data directory. Several versions can be
// installed side by side; one of them may be the default version, which is
// what "inko" refers to outside of "ivm run".
//
// # Architecture
//
// The typical data flow of "ivm install latest":
//
//	releases.inko-lang.org/manifest.txt
//	         ↓
//	    [manifest] package (cached list of published versions)
//	         ↓
//	releases.inko-lang.org/<version>.tar.gz
//	         ↓
//	    [install] package (download → unpack → build → place → cleanup)
//	         ↓
//	    [store] package (installed/<version>, default pointer, run)
//
// # Quick Start
//
// Install the latest version and make it the default:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/ivm/pkg/config"
//	    "github.com/matzehuels/ivm/pkg/httputil"
//	    "github.com/matzehuels/ivm/pkg/install"
//	    "github.com/matzehuels/ivm/pkg/manifest"
//	    "github.com/matzehuels/ivm/pkg/paths"
//	    "github.com/matzehuels/ivm/pkg/store"
//	)
//
//	dirs, _ := paths.XDG()
//	p, _ := paths.New(dirs)
//	cfg := config.Default()
//	client := httputil.NewClient(cfg.HTTPTimeout.Duration, httputil.RetryPolicy{
//	    Attempts: cfg.HTTPAttempts,
//	    Delay:    cfg.HTTPRetryDelay.Duration,
//	})
//
//	// 1. Install
//	inst := install.New(install.Options{
//	    Paths:      p,
//	    ReleaseURL: cfg.ReleaseURL,
//	    Manifest:   manifest.NewCache(p.ManifestFile, cfg.ManifestURL(), cfg.ManifestTTL.Duration, client),
//	    Remote:     client,
//	    Builder:    install.NewCommandBuilder(cfg.Build),
//	})
//	v, _ := inst.Install(context.Background(), "latest")
//
//	// 2. Make it the default
//	_ = store.NewPointer(store.New(p)).Set(v)
//
// # Main Packages
//
// ## Domain
//
// [version] - Inko release versions (major.minor.patch) with a total order.
//
// [manifest] - The list of published versions, cached on disk and refreshed
// once it is older than its time to live.
//
// [install] - The install pipeline: fetches and unpacks the source archive,
// runs the build command and moves the result into place atomically.
//
// [store] - The installed versions, the default version pointer and running
// commands with a specific version on PATH.
//
// ## Infrastructure
//
// [paths] - Platform directories (XDG on Unix) and every path derived from
// them.
//
// [config] - The config.toml settings file.
//
// [httputil] - HTTP client with retries used to talk to the release host.
//
// [lock] - Advisory lock serializing commands that change the data directory.
//
// [observability] - Hooks for install steps, manifest cache activity and
// HTTP requests.
//
// [errors] - Error type carrying a code and the message shown to users.
//
// [buildinfo] - Version information injected at build time.
package pkg
