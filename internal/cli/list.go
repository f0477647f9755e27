package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/ivm/pkg/version"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all installed versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.loadEnv()
			if err != nil {
				return err
			}
			versions, err := e.store.List()
			if err != nil {
				return err
			}
			current, _ := e.pointer.Current()
			printVersions(versions, current)
			return nil
		},
	}
}

// knownCommand creates the known command.
func (c *CLI) knownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "known",
		Short: "List all available versions",
		Long: `List all versions that can be installed.

The list of versions is downloaded if it is missing or out of date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.loadEnv()
			if err != nil {
				return err
			}

			spinner := startSpinner(cmd.Context(), "Refreshing the list of versions")
			m, err := e.manifest.Load(cmd.Context())
			spinner.Stop()
			if err != nil {
				return err
			}

			current, _ := e.pointer.Current()
			printVersions(m.Versions(), current)
			return nil
		},
	}
}

// printVersions prints one version per line, marking the default version.
// A zero current means there is no default.
func printVersions(versions []version.Version, current version.Version) {
	for _, v := range versions {
		printVersion(v.String(), !current.IsZero() && v == current)
	}
}
