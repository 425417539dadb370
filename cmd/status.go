package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/rpc"
	"github.com/manav03panchal/clockset/internal/timer"
)

// Status command flags.
var statusFlagWatch bool

// statusCmd represents the status command.
var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Show the running timer",
	Long: `Show the running timer: its preset, the current clock, the time left and
when it ends. An overdue timer is resolved on the spot.

Examples:
  clockset status
  clockset status --watch
  clockset status --format json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusFlagWatch, "watch", "w", false, "Redraw every second until the timer ends")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := ctx.Daemon()
	if err != nil {
		return err
	}
	if statusFlagWatch && !ctx.IsJSON() {
		return watchStatus(cmd, client)
	}

	callCtx, cancel := ctx.CallContext(cmd.Context())
	defer cancel()
	status, err := client.Status(callCtx)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus(status.RestoreResult, status.Wakeups)
	}
	ctx.CLIFormatter().PrintStatus(status.RestoreResult, status.Wakeups)
	return nil
}

// watchStatus redraws the countdown until the run is no longer live or the
// command is interrupted.
func watchStatus(cmd *cobra.Command, client *rpc.Client) error {
	display := timer.NewCountdownDisplay()
	display.Writer = ctx.Formatter.Writer
	display.UseColor = ctx.Formatter.IsColorEnabled()
	display.TimeFormat = ctx.TimeFormat()

	interval := ctx.Config.Runtime.Timer.RefreshInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *model.Notification
	for {
		callCtx, cancel := ctx.CallContext(cmd.Context())
		res, err := client.Restore(callCtx)
		cancel()
		if err != nil {
			return err
		}

		display.ClearScreen()
		fmt.Fprintln(display.Writer, display.RenderRun(res))
		if last != nil {
			fmt.Fprintf(display.Writer, "\n%s: %s\n", last.Title, last.Message)
		}
		if res.State != timer.StateLive {
			return nil
		}

		select {
		case <-cmd.Context().Done():
			return nil
		case n := <-notifications:
			last = n
		case <-ticker.C:
		}
	}
}
