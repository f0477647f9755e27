package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/store"
)

// ExitError carries the exit status of a command run through "ivm run".
// main exits with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run VERSION COMMAND [ARGS...]",
		Short: "Run a command with a specific version",
		Long: `Run a command with a specific version of Inko.

The bin directory of VERSION is added to the front of PATH, so "inko" refers
to that version. Flags after COMMAND are passed to the command. The exit
status of ivm is the exit status of the command.`,
		Example: `  ivm run 0.8.0 inko --version
  ivm run latest inko build`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: c.completeInstalled,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "You must specify a version to run the command with")
			}
			if len(args) == 1 {
				return errors.New(errors.ErrCodeInvalidInput, "You must specify a command to run")
			}

			e, err := c.loadEnv()
			if err != nil {
				return err
			}

			code, err := e.store.Run(cmd.Context(), args[0], args[1], args[2:], stdio)
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().SetInterspersed(false)
	return cmd
}

// stdio is what "ivm run" connects the child process to.
var stdio = store.OSStdio()
