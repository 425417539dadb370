package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/tui"
)

// popupCmd represents the popup command.
var popupCmd = &cobra.Command{
	Use:     "popup",
	Aliases: []string{"ui", "tui"},
	Short:   "Open the interactive timer",
	Long: `Open the interactive timer: pick, edit and start presets and watch the
countdown. Closing it leaves the timer running; reopening picks up where
the daemon is. The daemon is started if it is not running.

Keys:
  up/down    move between presets    enter   select preset
  s          start selected           x       stop timer
  n / e / d  new / edit / delete      t       12h/24h clock
  q          close`,
	Args: cobra.NoArgs,
	RunE: runPopup,
}

func init() {
	rootCmd.AddCommand(popupCmd)
}

func runPopup(cmd *cobra.Command, args []string) error {
	client, err := ensureDaemon()
	if err != nil {
		return err
	}

	rc := ctx.Config.Runtime
	return tui.Run(tui.PopupConfig{
		Backend:         client,
		Presets:         ctx.Presets,
		Settings:        ctx,
		Notifications:   notifications,
		RefreshInterval: rc.Timer.RefreshInterval,
		CallTimeout:     rc.RPC.DialTimeout,
	})
}
