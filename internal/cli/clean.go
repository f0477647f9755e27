package cli

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/lock"
)

// cleanCommand creates the clean command.
func (c *CLI) cleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove temporary data",
		Long: `Remove downloaded source archives and the cached list of versions.

Installed versions are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.loadEnv()
			if err != nil {
				return err
			}

			dir := e.paths.Downloads
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("There is no temporary data to remove")
				return nil
			}

			return c.withLock(cmd.Context(), e, func() error {
				count := countFiles(dir)
				c.Logger.Infof("Removing %s", dir)
				if err := os.RemoveAll(dir); err != nil {
					return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to remove the temporary data")
				}
				printSuccess("Removed %d files", count)
				return nil
			})
		},
	}
}

// implodeCommand creates the implode command.
func (c *CLI) implodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "implode",
		Short: "Remove all versions and data",
		Long: `Remove all installed versions, the default version, the configuration
and all temporary data. ivm itself is not removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.loadEnv()
			if err != nil {
				return err
			}

			l, err := lock.AcquireTimeout(cmd.Context(), e.paths.LockFile, e.config.LockTimeout.Duration)
			if err != nil {
				return err
			}
			defer l.Release()

			for _, dir := range []string{e.paths.Cache, e.paths.Config} {
				if err := c.removeDir(dir); err != nil {
					return err
				}
			}

			// The lock file lives in the data directory.
			if err := l.Release(); err != nil {
				return err
			}
			if err := c.removeDir(e.paths.Data); err != nil {
				return err
			}

			printSuccess("All data has been removed")
			return nil
		},
	}
}

// removeDir removes dir and everything in it. A missing directory is not an
// error.
func (c *CLI) removeDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	c.Logger.Infof("Removing %s", dir)
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to remove %s", dir)
	}
	return nil
}

// countFiles returns the number of regular files below dir.
func countFiles(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	return count
}
