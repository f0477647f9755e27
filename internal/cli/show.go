package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/paths"
)

// setting is a value "ivm show" can print.
type setting struct {
	name string
	help string
	get  func(paths.Paths) string
}

var settings = []setting{
	{"data", "The data directory", func(p paths.Paths) string { return p.Data }},
	{"bin", "The directory for symbolic links to executables", func(p paths.Paths) string { return p.Bin }},
	{"cache", "The directory for storing temporary data", func(p paths.Paths) string { return p.Cache }},
	{"install", "The directory containing all installed versions", func(p paths.Paths) string { return p.Install }},
	{"config", "The directory containing configuration files", func(p paths.Paths) string { return p.Config }},
	{"downloads", "The directory containing downloaded files", func(p paths.Paths) string { return p.Downloads }},
}

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	names := make([]string, len(settings))
	var help strings.Builder
	for i, s := range settings {
		names[i] = s.name
		fmt.Fprintf(&help, "  %-10s %s\n", s.name, s.help)
	}

	return &cobra.Command{
		Use:   "show SETTING",
		Short: "Show the value of a setting",
		Long:  "Print the value of a setting.\n\nSettings:\n" + help.String(),
		Example: `  ivm show bin    # Prints the directory to add to PATH
  export PATH="$(ivm show bin):$PATH"`,
		ValidArgs: names,
		Args:      cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "You must specify a setting name")
			}

			e, err := c.loadEnv()
			if err != nil {
				return err
			}

			for _, s := range settings {
				if s.name == args[0] {
					printLine(s.get(e.paths))
					return nil
				}
			}
			return errors.New(errors.ErrCodeInvalidInput, "The setting %s doesn't exist", args[0])
		},
	}
}
