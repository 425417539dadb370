package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/daemon"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/rpc"
	"github.com/manav03panchal/clockset/internal/runtime"
)

// Daemon command flags.
var (
	daemonStartFlagForeground bool
	daemonLogsFlagTail        int
	daemonLogsFlagFollow      bool
	daemonInstallFlagForce    bool
)

// daemonCmd represents the daemon command.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"d", "bg", "service"},
	Short:   "Manage the background daemon",
	Long: `Manage the clockset daemon. The daemon owns the running timer: it wakes
up at each clock boundary, sends notifications and answers the CLI, the
popup and the browser extension.

Examples:
  clockset daemon start
  clockset daemon status
  clockset daemon health
  clockset daemon stop
  clockset daemon logs --tail 20`,
	Annotations: map[string]string{annotationOffline: "true"},
	RunE:        runDaemonStatus,
}

// daemonStartCmd starts the daemon.
var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	Long: `Start the clockset daemon.

Examples:
  clockset daemon start           # Start in background
  clockset daemon start -F        # Start in foreground (for debugging)`,
	RunE: runDaemonStart,
}

// daemonRunCmd is what the service manager and background start execute.
var daemonRunCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run the daemon in this process, logging to the daemon log",
	Hidden: true,
	RunE:   runDaemonRun,
}

// daemonStopCmd stops the daemon.
var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	RunE:  runDaemonStop,
}

// daemonStatusCmd shows daemon status.
var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

// daemonHealthCmd asks the running daemon for its health report.
var daemonHealthCmd = &cobra.Command{
	Use:         "health",
	Short:       "Show the running daemon's health report",
	Annotations: map[string]string{annotationOffline: "false"},
	RunE:        runDaemonHealth,
}

// daemonLogsCmd shows daemon logs.
var daemonLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	Long: `View the daemon log file.

Examples:
  clockset daemon logs
  clockset daemon logs --tail 50
  clockset daemon logs -f`,
	RunE: runDaemonLogs,
}

// daemonInstallCmd installs the daemon as a system service.
var daemonInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install daemon as a system service",
	Long: `Install the clockset daemon as a service that starts automatically on login.

On macOS, this creates a launchd agent in ~/Library/LaunchAgents.
On Linux, this creates a systemd user service in ~/.config/systemd/user.

Examples:
  clockset daemon install
  clockset daemon install --force   # Reinstall if already installed`,
	RunE: runDaemonInstall,
}

// daemonUninstallCmd uninstalls the daemon system service.
var daemonUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall daemon system service",
	RunE:  runDaemonUninstall,
}

func init() {
	daemonStartCmd.Flags().BoolVarP(&daemonStartFlagForeground, "foreground", "F", false,
		"Run in foreground (don't daemonize)")

	daemonLogsCmd.Flags().IntVarP(&daemonLogsFlagTail, "tail", "n", 20,
		"Number of lines to show")
	daemonLogsCmd.Flags().BoolVar(&daemonLogsFlagFollow, "follow", false,
		"Follow log output (like tail -f)")

	daemonInstallCmd.Flags().BoolVar(&daemonInstallFlagForce, "force", false,
		"Force reinstall if already installed")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonRunCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonHealthCmd)
	daemonCmd.AddCommand(daemonLogsCmd)
	daemonCmd.AddCommand(daemonInstallCmd)
	daemonCmd.AddCommand(daemonUninstallCmd)

	rootCmd.AddCommand(daemonCmd)
}

func newDaemon() *daemon.Daemon {
	d := daemon.NewDaemon(ctx.Config, Version)
	d.SetDebug(ctx.Debug)
	if flagConfig != "" {
		d.ExtraArgs = []string{"--config", flagConfig}
	}
	return d
}

// ensureDaemon returns a daemon client, starting the daemon in the
// background first when none answers.
func ensureDaemon() (*rpc.Client, error) {
	if client, err := ctx.Daemon(); err == nil {
		return client, nil
	}

	d := newDaemon()
	if !d.IsRunning() {
		if _, err := d.StartBackground(); err != nil {
			return nil, err
		}
	}

	// The PID file is written before the socket is listening.
	rc := ctx.Config.Runtime
	deadline := time.Now().Add(rc.Daemon.StartupWait + rc.RPC.DialTimeout)
	for {
		client, err := rpc.DialTimeout(rc.RPC.SocketPath, rc.RPC.DialTimeout, &rpc.ClientOptions{OnNotify: forwardNotification})
		if err == nil {
			ctx.Register(runtime.CapDaemon, client)
			return client, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// runDaemonStart handles the daemon start command.
func runDaemonStart(cmd *cobra.Command, args []string) error {
	d := newDaemon()
	if d.IsRunning() {
		status := d.GetStatus()
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]any{
				"status": "already_running",
				"pid":    status.PID,
			})
		}
		return fmt.Errorf("daemon is already running (PID: %d)", status.PID)
	}

	if daemonStartFlagForeground {
		cfg := logging.DaemonConfig(os.Stderr)
		cfg.JSON = false
		if ctx.Debug {
			cfg = logging.DebugConfig()
		}
		logging.Init(cfg)
		if len(ctx.Config.Notify.EnabledWebhooks()) == 0 && !ctx.IsJSON() {
			ctx.Formatter.Println("No webhooks configured; notifications go to the log and connected clients.")
		}
		ctx.Formatter.Printf("Starting clockset daemon (foreground mode)...\n")
		return d.Run(cmd.Context())
	}

	pid, err := d.StartBackground()
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"status": "started", "pid": pid})
	}
	ctx.Formatter.Printf("Daemon started (PID: %d)\n", pid)
	return nil
}

// runDaemonRun runs the daemon with the structured log going to the log
// file. The log is rotated before the first line is written.
func runDaemonRun(cmd *cobra.Command, args []string) error {
	logFile, err := daemon.OpenLogFile(daemon.GetLogPath())
	if err != nil {
		return err
	}
	defer logFile.Close()
	if err := logFile.Rotate(daemon.MaxLogSize); err != nil {
		fmt.Fprintf(os.Stderr, "could not rotate daemon log: %v\n", err)
	}
	logFile.Install(ctx.Debug)

	if err := newDaemon().Run(cmd.Context()); err != nil {
		logging.Error("daemon exited", logging.KeyError, err)
		return err
	}
	return nil
}

// runDaemonStop handles the daemon stop command.
func runDaemonStop(cmd *cobra.Command, args []string) error {
	d := newDaemon()
	status := d.GetStatus()
	if !status.Running {
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]any{"status": "not_running"})
		}
		ctx.Formatter.Println("Daemon is not running")
		return nil
	}

	if err := d.Stop(); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"status": "stopped", "pid": status.PID})
	}
	ctx.Formatter.Printf("Daemon stopped (was PID: %d)\n", status.PID)
	return nil
}

// runDaemonStatus handles the daemon status command.
func runDaemonStatus(cmd *cobra.Command, args []string) error {
	status := newDaemon().GetStatus()
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(status)
	}

	cli := ctx.CLIFormatter()
	cli.Title("clockset daemon")
	if status.Running {
		ctx.Formatter.Printf("  Status:    running\n")
		ctx.Formatter.Printf("  PID:       %d\n", status.PID)
		if status.Uptime != "" {
			ctx.Formatter.Printf("  Uptime:    %s\n", status.Uptime)
		}
	} else {
		ctx.Formatter.Printf("  Status:    stopped\n")
	}
	ctx.Formatter.Printf("  Socket:    %s\n", status.SocketPath)
	ctx.Formatter.Printf("  Log:       %s\n", status.LogPath)
	if !status.Running {
		ctx.Formatter.Println("")
		cli.Muted("Start with: clockset daemon start")
	}
	return nil
}

// runDaemonHealth handles the daemon health command.
func runDaemonHealth(cmd *cobra.Command, args []string) error {
	client, err := ctx.Daemon()
	if err != nil {
		return err
	}
	callCtx, cancel := ctx.CallContext(cmd.Context())
	defer cancel()

	var health daemon.HealthStatus
	if err := client.Health(callCtx, &health); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(health)
	}

	cli := ctx.CLIFormatter()
	if health.Status == daemon.StatusHealthy {
		cli.Success("Daemon is healthy")
	} else {
		cli.Error("Daemon is unhealthy")
	}
	ctx.Formatter.Printf("  Version:    %s\n", health.Version)
	ctx.Formatter.Printf("  Uptime:     %s\n", (time.Duration(health.UptimeSeconds) * time.Second).String())
	ctx.Formatter.Printf("  Memory:     %.1f MB\n", health.MemoryMB)
	ctx.Formatter.Printf("  Wake-ups:   %d pending\n", health.PendingWakeups)
	ctx.Formatter.Printf("  Retries:    %d queued\n", health.PendingNotifications)
	for _, check := range health.Checks {
		mark := "ok"
		if !check.Healthy {
			mark = "FAIL " + check.Error
		}
		ctx.Formatter.Printf("  Check %-5s %s\n", check.Name+":", mark)
	}
	if m := health.Metrics; m != nil {
		ctx.Formatter.Printf("  Sent:       %d milestones, %d completions\n", m.MilestonesTotal, m.CompletionsTotal)
		if m.ErrorsTotal > 0 {
			ctx.Formatter.Printf("  Errors:     %d (last: %s)\n", m.ErrorsTotal, m.LastError)
		}
	}
	return nil
}

// runDaemonLogs handles the daemon logs command.
func runDaemonLogs(cmd *cobra.Command, args []string) error {
	logPath := daemon.GetLogPath()
	file, err := os.Open(logPath)
	if os.IsNotExist(err) {
		ctx.Formatter.Println("No log file found.")
		ctx.Formatter.Printf("Log path: %s\n", logPath)
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	lines, err := tailLines(file, daemonLogsFlagTail)
	if err != nil {
		return err
	}
	for _, line := range lines {
		ctx.Formatter.Println(line)
	}

	if daemonLogsFlagFollow {
		return followLog(cmd, file, ctx.Formatter.Writer)
	}
	return nil
}

// tailLines returns the last n lines of r.
func tailLines(r io.Reader, n int) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// followLog copies lines appended to file until the command is cancelled.
func followLog(cmd *cobra.Command, file *os.File, w io.Writer) error {
	reader := bufio.NewReader(file)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Fprint(w, line)
		}
		if err == nil {
			continue
		}
		if err != io.EOF {
			return err
		}
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runDaemonInstall handles the daemon install command.
func runDaemonInstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager()
	if err != nil {
		return err
	}

	if mgr.IsInstalled() && !daemonInstallFlagForce {
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]any{"status": "already_installed"})
		}
		ctx.Formatter.Println("Service is already installed.")
		ctx.Formatter.Println("Use --force to reinstall.")
		return nil
	}

	if mgr.IsInstalled() {
		if err := mgr.Uninstall(); err != nil {
			return fmt.Errorf("failed to remove existing service: %w", err)
		}
	}

	// A daemon started by hand would hold the socket the service wants.
	if d := newDaemon(); d.IsRunning() {
		if err := d.Stop(); err != nil {
			ctx.Debugf("stopping running daemon: %v", err)
		}
	}

	if err := mgr.Install(); err != nil {
		return err
	}
	path, _ := mgr.Path()

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"status": "installed", "path": path})
	}
	ctx.CLIFormatter().Success("Service installed")
	ctx.Formatter.Printf("  %s\n", path)
	ctx.Formatter.Println("The daemon now starts automatically when you log in.")
	ctx.Formatter.Println("To remove: clockset daemon uninstall")
	return nil
}

// runDaemonUninstall handles the daemon uninstall command.
func runDaemonUninstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager()
	if err != nil {
		return err
	}

	if !mgr.IsInstalled() {
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]any{"status": "not_installed"})
		}
		ctx.Formatter.Println("Service is not installed.")
		return nil
	}

	if err := mgr.Uninstall(); err != nil {
		return err
	}
	if d := newDaemon(); d.IsRunning() {
		if err := d.Stop(); err != nil {
			ctx.Debugf("stopping running daemon: %v", err)
		}
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"status": "uninstalled"})
	}
	ctx.CLIFormatter().Success("Service uninstalled")
	ctx.Formatter.Println("The daemon will no longer start automatically.")
	return nil
}
