package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/runtime"
)

// completionCmd represents the completion command.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for clockset.

To load completions:

Bash:
  $ source <(clockset completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ clockset completion bash > /etc/bash_completion.d/clockset
  # macOS:
  $ clockset completion bash > $(brew --prefix)/etc/bash_completion.d/clockset

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ clockset completion zsh > "${fpath[1]}/_clockset"

Fish:
  $ clockset completion fish | source

  # To load completions for each session, execute once:
  $ clockset completion fish > ~/.config/fish/completions/clockset.fish

PowerShell:
  PS> clockset completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// completionContext builds an offline context for dynamic completion,
// which runs without the root command's pre-run hook.
func completionContext() bool {
	if ctx != nil {
		return true
	}
	opts := runtime.DefaultOptions()
	opts.Connect = false
	if flagConfig != "" {
		opts.ConfigPath = flagConfig
	}
	c, err := runtime.New(opts)
	if err != nil {
		return false
	}
	ctx = c
	cobra.OnFinalize(func() { ctx.Close() })
	return true
}

// completePresetNames completes saved preset names, with the total as the
// description.
func completePresetNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || !completionContext() {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, p := range ctx.Presets.List() {
		if strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(toComplete)) {
			completions = append(completions, p.Name+"\t"+formatTotal(p))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
