package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/install"
	"github.com/matzehuels/ivm/pkg/version"
)

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install VERSION",
		Short: "Install a new version",
		Long: `Download, build and install a version of Inko.

VERSION is a version such as 0.8.0, or "latest" for the newest published
version.`,
		Example: `  ivm install 0.8.0     # Installs version 0.8.0
  ivm install latest    # Installs the latest available version`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "You must specify a version to install")
			}
			return c.runInstall(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runInstall(ctx context.Context, target string) error {
	e, err := c.loadEnv()
	if err != nil {
		return err
	}

	inst := install.New(install.Options{
		Paths:      e.paths,
		ReleaseURL: e.config.ReleaseURL,
		Manifest:   e.manifest,
		Remote:     e.client,
		Builder:    install.NewCommandBuilder(e.config.Build),
		Logger:     c.Logger,
		Progress:   installProgress(ctx, target),
	})

	return c.withLock(ctx, e, func() error {
		timer := startInstallTimer(c.Logger)
		v, err := inst.Install(ctx, target)
		if err != nil {
			return err
		}
		timer.done(v)
		return nil
	})
}

// installProgress shows a spinner while the manifest is refreshed and while
// the archive is downloaded. The build step writes to the terminal itself.
func installProgress(ctx context.Context, target string) func(string, version.Version) func() {
	return func(step string, v version.Version) func() {
		msg, ok := progressMessage(step, target, v)
		if !ok {
			return func() {}
		}
		return startSpinner(ctx, msg).Stop
	}
}

// progressMessage returns the spinner text for an install step, if the step
// gets a spinner. Resolving a literal version is instant.
func progressMessage(step, target string, v version.Version) (string, bool) {
	switch step {
	case install.StepResolve:
		if target != version.Latest {
			return "", false
		}
		return "Resolving the latest version", true
	case install.StepDownload:
		return fmt.Sprintf("Downloading %s", v), true
	}
	return "", false
}
