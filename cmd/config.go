package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/config"
	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/rpc"
)

// Config command flags.
var configSecretFlagReveal bool

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Manage application configuration",
	Long: `View and modify clockset configuration.

Examples:
  clockset config show
  clockset config path
  clockset config init
  clockset config time-format 12h
  clockset config notify milestone off
  clockset config secret rotate`,
	Annotations: map[string]string{annotationOffline: "true"},
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]string{
				"config": ctx.Config.Path,
				"env":    config.EnvFilePath(ctx.Config.Path),
			})
		}
		ctx.Formatter.Println(ctx.Config.Path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configTimeFormatCmd = &cobra.Command{
	Use:       "time-format 12h|24h",
	Aliases:   []string{"set-time-format"},
	Short:     "Set how wall-clock times are shown",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{model.TimeFormat12h, model.TimeFormat24h},
	RunE:      runConfigTimeFormat,
}

var configNotifyCmd = &cobra.Command{
	Use:   "notify TYPE on|off",
	Short: "Turn a notification type on or off",
	Long: `Turn a notification type on or off.

Types:
  run_complete  the whole timer finished
  milestone     one clock of several finished

Examples:
  clockset config notify milestone off`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(model.NotifyRunComplete), string(model.NotifyMilestone)},
	RunE:      runConfigNotify,
}

var configSecretCmd = &cobra.Command{
	Use:   "secret [show|rotate|delete]",
	Short: "Manage the secret guarding the WebSocket endpoint",
	Long: `Manage the bearer secret the daemon requires on its WebSocket endpoint.
The secret lives in the OS keychain.

Examples:
  clockset config secret show --reveal
  clockset config secret rotate`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"show", "rotate", "delete"},
	RunE:      runConfigSecret,
}

func init() {
	configSecretCmd.Flags().BoolVar(&configSecretFlagReveal, "reveal", false, "Print the secret instead of a masked form")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configTimeFormatCmd)
	configCmd.AddCommand(configNotifyCmd)
	configCmd.AddCommand(configSecretCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := ctx.Config
	rt := cfg.Runtime

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{
			"path":             cfg.Path,
			"time_format":      ctx.TimeFormat(),
			"socket":           rt.RPC.SocketPath,
			"websocket":        rt.RPC.WebSocketEnabled,
			"websocket_addr":   rt.RPC.WebSocketAddr,
			"sweep_interval":   rt.Daemon.SweepInterval.String(),
			"refresh_interval": rt.Timer.RefreshInterval.String(),
			"max_retries":      rt.RetryQueue.MaxRetries,
			"notify_enabled":   cfg.Notify.Enabled,
			"webhooks":         len(cfg.Notify.Webhooks),
		})
	}

	cli := ctx.CLIFormatter()
	cli.Title("Configuration")
	ctx.Formatter.Printf("  file:              %s\n", cfg.Path)
	ctx.Formatter.Printf("  time format:       %s\n", ctx.TimeFormat())
	ctx.Formatter.Printf("  socket:            %s\n", rt.RPC.SocketPath)
	if rt.RPC.WebSocketEnabled {
		ctx.Formatter.Printf("  websocket:         %s\n", rt.RPC.WebSocketAddr)
	} else {
		ctx.Formatter.Printf("  websocket:         off\n")
	}
	ctx.Formatter.Printf("  sweep interval:    %s\n", rt.Daemon.SweepInterval)
	ctx.Formatter.Printf("  refresh interval:  %s\n", rt.Timer.RefreshInterval)
	ctx.Formatter.Printf("  webhook retries:   %d\n", rt.RetryQueue.MaxRetries)
	ctx.Formatter.Println("")
	cli.Title("Notifications")
	for _, t := range []model.NotificationType{model.NotifyRunComplete, model.NotifyMilestone} {
		ctx.Formatter.Printf("  %-14s %s\n", string(t)+":", onOff(cfg.Notify.IsTypeEnabled(t)))
	}
	ctx.Formatter.Printf("  %-14s %d\n", "webhooks:", len(cfg.Notify.Webhooks))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	created, err := config.Init(ctx.Fs, ctx.Config.Path)
	if err != nil {
		return errors.NewSystemErrorWithOp("init config", "could not write "+ctx.Config.Path, err)
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"path": ctx.Config.Path, "created": created})
	}
	if created {
		ctx.CLIFormatter().Success("Wrote " + ctx.Config.Path)
	} else {
		ctx.CLIFormatter().Muted(ctx.Config.Path + " already exists")
	}
	return nil
}

func runConfigTimeFormat(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(args[0])
	if !model.IsValidTimeFormat(format) {
		return errors.NewUserErrorWithField("format", args[0], "invalid time format", "Use 12h or 24h.")
	}
	if err := config.SetTimeFormat(ctx.Fs, ctx.Config.Path, format); err != nil {
		return errors.NewSystemErrorWithOp("set time format", "could not write "+ctx.Config.Path, err)
	}
	// The settings record is what the extension reads.
	if err := ctx.SetTimeFormat(format); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"time_format": format})
	}
	ctx.CLIFormatter().Success("Time format set to " + format)
	return nil
}

func runConfigNotify(cmd *cobra.Command, args []string) error {
	t := model.NotificationType(args[0])
	if t != model.NotifyRunComplete && t != model.NotifyMilestone {
		return errors.NewUserErrorWithField("type", args[0], "unknown notification type", "Use run_complete or milestone.")
	}
	enabled, err := parseEnabled(args[1])
	if err != nil {
		return err
	}
	if err := config.SetNotifyEnabled(ctx.Fs, ctx.Config.Path, t, enabled); err != nil {
		return errors.NewSystemErrorWithOp("set notify", "could not write "+ctx.Config.Path, err)
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"type": t, "enabled": enabled})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("%s notifications %s", t, onOff(enabled)))
	ctx.CLIFormatter().Muted("Restart the daemon to apply: clockset daemon stop && clockset daemon start")
	return nil
}

func runConfigSecret(cmd *cobra.Command, args []string) error {
	action := "show"
	if len(args) == 1 {
		action = args[0]
	}
	kr := rpc.NewKeyring()

	var (
		secret string
		err    error
	)
	switch action {
	case "show":
		secret, err = kr.EnsureKey()
	case "rotate":
		secret, err = kr.SetKey()
	case "delete":
		if err := kr.DeleteKey(); err != nil {
			return errors.NewSystemErrorWithOp("delete secret", "could not remove the keychain entry", err)
		}
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]string{"status": "deleted"})
		}
		ctx.CLIFormatter().Success("Secret deleted")
		return nil
	default:
		return errors.NewUserErrorWithField("action", action, "unknown secret action", "Use show, rotate or delete.")
	}
	if err != nil {
		return errors.NewSystemErrorWithOp(action+" secret", "could not use the OS keychain", err)
	}

	shown := secret
	if !configSecretFlagReveal {
		shown = logging.MaskToken(secret)
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"secret": shown})
	}
	ctx.Formatter.Println(shown)
	if action == "rotate" {
		ctx.CLIFormatter().Muted("Restart the daemon and update the extension to use the new secret.")
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// parseEnabled parses an on/off value.
func parseEnabled(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "enabled", "on", "true", "yes", "1":
		return true, nil
	case "disabled", "off", "false", "no", "0":
		return false, nil
	default:
		return false, errors.NewUserErrorWithField("value", s, "invalid value", "Use on or off.")
	}
}
