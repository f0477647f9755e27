package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/ivm/pkg/errors"
)

// uninstallCommand creates the uninstall command.
func (c *CLI) uninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall VERSION",
		Short: "Uninstall a version",
		Long: `Remove the files of an installed version.

The default version and the runtime data of the version are left alone. Use
"ivm remove" to delete those as well.`,
		Example: `  ivm uninstall 0.8.0     # Uninstalls version 0.8.0
  ivm uninstall latest    # Uninstalls the newest installed version`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeInstalled,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "You must specify a version to uninstall")
			}

			e, err := c.loadEnv()
			if err != nil {
				return err
			}
			return c.withLock(cmd.Context(), e, func() error {
				v, err := e.store.Resolve(args[0])
				if err != nil {
					return err
				}
				c.Logger.Infof("Uninstalling version %s", v)
				return e.store.Remove(v)
			})
		},
	}
}

// removeCommand creates the remove command.
func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove VERSION",
		Short: "Uninstall a version and remove its data",
		Long: `Remove an installed version along with its runtime data.

If the version is the default version, the default version is unset.`,
		Example: `  ivm remove 0.8.0     # Removes version 0.8.0
  ivm remove latest    # Removes the newest installed version`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeInstalled,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "You must specify a version to remove")
			}

			e, err := c.loadEnv()
			if err != nil {
				return err
			}
			return c.withLock(cmd.Context(), e, func() error {
				v, err := e.store.Resolve(args[0])
				if err != nil {
					return err
				}
				c.Logger.Infof("Removing version %s", v)
				return e.store.RemoveCascade(v, e.pointer)
			})
		},
	}
}
