package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/paths"
	"github.com/matzehuels/ivm/pkg/store"
)

// defaultCommand creates the default command.
func (c *CLI) defaultCommand() *cobra.Command {
	var check, repair bool

	cmd := &cobra.Command{
		Use:   "default [VERSION]",
		Short: "Set the default version",
		Long: `Set the version that "inko" refers to outside of "ivm run".

The default version is stored in the configuration directory, and a symbolic
link to its executable is placed in the bin directory. Add the bin directory
(see "ivm show bin") to your PATH to use it.

Without a version and on a terminal, a list of installed versions is shown
to pick from.`,
		Example: `  ivm default 0.8.0     # Makes 0.8.0 the default version
  ivm default --check   # Reports whether the marker and the link agree
  ivm default --repair  # Makes the marker and the link agree again`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeInstalled,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.loadEnv()
			if err != nil {
				return err
			}

			switch {
			case check:
				return c.checkDefault(e)
			case repair:
				return c.withLock(cmd.Context(), e, func() error { return c.repairDefault(e) })
			}

			target, err := c.selectDefault(e, args)
			if err != nil {
				return err
			}
			if target == "" {
				return nil
			}
			return c.setDefault(cmd.Context(), e, target)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "report the default version marker and symbolic link")
	cmd.Flags().BoolVar(&repair, "repair", false, "make the default version marker and symbolic link agree")
	cmd.MarkFlagsMutuallyExclusive("check", "repair")

	return cmd
}

// selectDefault returns the version named on the command line, or lets the
// user pick one. An empty target means nothing was picked.
func (c *CLI) selectDefault(e *env, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return "", errors.New(errors.ErrCodeInvalidInput, "You must specify a version")
	}

	versions, err := e.store.List()
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", errors.New(errors.ErrCodeNoVersions, "No versions are installed")
	}

	items := make([]VersionItem, len(versions))
	for i, v := range versions {
		items[i] = VersionItem{Version: v}
		if info, err := os.Stat(e.store.Dir(v)); err == nil {
			items[i].Installed = info.ModTime()
		}
	}

	current, _ := e.pointer.Current()
	v, ok, err := pickVersion(items, current)
	if err != nil {
		return "", err
	}
	if !ok {
		printInfo("No version selected")
		return "", nil
	}
	return v.String(), nil
}

// setDefault resolves target and points the default at it. Resolution happens
// under the lock.
func (c *CLI) setDefault(ctx context.Context, e *env, target string) error {
	return c.withLock(ctx, e, func() error {
		v, err := e.store.Resolve(target)
		if err != nil {
			return err
		}
		c.Logger.Info("Storing default version")
		c.Logger.Infof("Creating symbolic link for %s", paths.Executable())
		if err := e.pointer.Set(v); err != nil {
			return err
		}
		c.Logger.Infof("The default version is now %s", v)
		return nil
	})
}

func (c *CLI) checkDefault(e *env) error {
	st, err := e.pointer.Check()
	if err != nil {
		return err
	}
	printStatus(st)
	if !st.Consistent() {
		printWarning("The default version marker and symbolic link disagree, run \"ivm default --repair\"")
	}
	return nil
}

func (c *CLI) repairDefault(e *env) error {
	st, err := e.pointer.Repair()
	if err != nil {
		return err
	}
	if st.HasMarker {
		printSuccess("The default version is now %s", st.Marker)
	} else {
		printSuccess("No default version is set")
	}
	return nil
}

// printStatus prints both halves of the default pointer.
func printStatus(st store.Status) {
	marker := "none"
	if st.HasMarker {
		marker = st.Marker.String()
		if !st.Installed {
			marker += " (not installed)"
		}
	}

	link := "none"
	if st.HasLink {
		link = st.Target
	}

	printKeyValue("version", marker)
	printKeyValue("link", link)
	if st.Consistent() {
		printKeyValue("status", "consistent")
	} else {
		printKeyValue("status", "diverged")
	}
}
