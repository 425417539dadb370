package cmd

import (
	"github.com/spf13/cobra"
)

// stopCmd represents the stop command.
var stopCmd = &cobra.Command{
	Use:     "stop",
	Aliases: []string{"x", "cancel"},
	Short:   "Stop the running timer",
	Long: `Stop the running timer and cancel its pending notifications. The selected
preset stays selected. Stopping when nothing runs is not an error.

Examples:
  clockset stop`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	client, err := ctx.Daemon()
	if err != nil {
		return err
	}

	callCtx, cancel := ctx.CallContext(cmd.Context())
	defer cancel()
	if err := client.Stop(callCtx); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStop()
	}
	ctx.CLIFormatter().PrintRunStopped()
	return nil
}
