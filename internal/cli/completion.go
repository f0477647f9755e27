package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ivm.

To load completions:

Bash:
  $ source <(ivm completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ ivm completion bash > /etc/bash_completion.d/ivm
  # macOS:
  $ ivm completion bash > $(brew --prefix)/etc/bash_completion.d/ivm

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ ivm completion zsh > "${fpath[1]}/_ivm"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ ivm completion fish | source

  # To load completions for each session, execute once:
  $ ivm completion fish > ~/.config/fish/completions/ivm.fish

PowerShell:
  PS> ivm completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> ivm completion powershell > ivm.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeInstalled completes the first argument with the installed versions.
func (c *CLI) completeInstalled(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	e, err := c.loadEnv()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	versions, err := e.store.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := make([]string, 0, len(versions)+1)
	for _, v := range versions {
		names = append(names, v.String())
	}
	names = append(names, "latest")
	return names, cobra.ShellCompDirectiveNoFileComp
}
