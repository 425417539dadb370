// Package cmd provides the CLI commands for clockset.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	clockerrors "github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/output"
	"github.com/manav03panchal/clockset/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
	flagConfig string
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// notifications receives milestones and completions pushed by the daemon
// while a command holds a connection.
var notifications = make(chan *model.Notification, 16)

// annotationOffline marks commands that must not dial the daemon.
const annotationOffline = "offline"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "clockset",
	Short: "Countdown timers built from preset clock sequences",
	Long: `clockset runs countdown timers made of one or more clocks. A background
daemon keeps time while terminals come and go, and notifies you as each
clock finishes.

Examples:
  clockset preset add Tea 0:3:0 0:2:0
  clockset start Tea
  clockset start "Quick break" 5m
  clockset start Lunch until 1pm
  clockset status --watch
  clockset popup
  clockset stop`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for completion and help commands (but allow __complete for dynamic completions)
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		if flagDebug {
			logging.InitDebug()
		}

		opts := runtime.DefaultOptions()
		opts.Format = output.ParseFormat(flagFormat)
		opts.ColorMode = parseColorMode(flagColor)
		opts.Debug = flagDebug
		opts.Connect = !isOffline(cmd)
		opts.OnNotify = forwardNotification
		if flagConfig != "" {
			opts.ConfigPath = flagConfig
		}

		var err error
		ctx, err = runtime.New(opts)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			return ctx.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show current status
		return runStatus(cmd, args)
	},
}

func parseColorMode(s string) output.ColorMode {
	switch s {
	case "always":
		return output.ColorAlways
	case "never":
		return output.ColorNever
	default:
		return output.ColorAuto
	}
}

// isOffline reports whether cmd must run without a daemon connection. The
// nearest annotated command, cmd itself or a parent, decides.
func isOffline(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if v, ok := c.Annotations[annotationOffline]; ok {
			return v == "true"
		}
	}
	return false
}

// forwardNotification hands a pushed notification to whoever is listening
// and drops it when nobody is.
func forwardNotification(n *model.Notification) {
	select {
	case notifications <- n:
	default:
	}
}

// nativeMessagingLaunch reports whether the process was started by a
// browser as a native messaging host. Chrome passes the caller's origin;
// Firefox passes the manifest path and the extension id.
func nativeMessagingLaunch(args []string) bool {
	if len(args) == 0 {
		return false
	}
	if strings.HasPrefix(args[0], "chrome-extension://") {
		return true
	}
	return len(args) == 2 && strings.HasSuffix(args[0], ".json")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args := os.Args[1:]; nativeMessagingLaunch(args) {
		rootCmd.SetArgs(append([]string{nativeHostCmd.Name()}, args...))
	}
	return rootCmd.ExecuteContext(sigCtx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default $XDG_CONFIG_HOME/clockset/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{annotationOffline: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("clockset %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// Die prints an error and exits.
func Die(err error) {
	if ctx != nil && ctx.IsJSON() {
		ctx.JSONFormatter().PrintError("error", err.Error(), clockerrors.GetSuggestion(err))
	} else {
		os.Stderr.WriteString("Error: " + runtime.FormatError(err) + "\n")
	}
	os.Exit(1)
}
