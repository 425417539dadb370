package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/manav03panchal/clockset/internal/config"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/notify"
	"github.com/manav03panchal/clockset/internal/rpc"
	"github.com/manav03panchal/clockset/internal/scheduler"
	"github.com/manav03panchal/clockset/internal/storage"
	"github.com/manav03panchal/clockset/internal/timer"
)

// Daemon manages the background process.
type Daemon struct {
	cfg      *config.Config
	version  string
	stateDir string
	pidFile  *PIDFile
	debug    bool

	// ExtraArgs are appended when StartBackground re-executes the binary,
	// e.g. a --config flag.
	ExtraArgs []string

	// inMemory keeps badger in memory; used by tests.
	inMemory bool

	ready     chan struct{}
	readyOnce sync.Once
	svc       *services
}

// Status represents the daemon status.
type Status struct {
	Running    bool      `json:"running"`
	PID        int       `json:"pid,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	Uptime     string    `json:"uptime,omitempty"`
	SocketPath string    `json:"socket_path"`
	LogPath    string    `json:"log_path"`
}

// NewDaemon creates a daemon manager.
func NewDaemon(cfg *config.Config, version string) *Daemon {
	dir := StateDir()
	return &Daemon{
		cfg:      cfg,
		version:  version,
		stateDir: dir,
		pidFile:  NewPIDFile(dir),
		ready:    make(chan struct{}),
	}
}

// SetDebug enables debug mode.
func (d *Daemon) SetDebug(debug bool) {
	d.debug = debug
}

// Ready is closed once Run has its listeners up.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() *Status {
	status := &Status{
		SocketPath: d.cfg.Runtime.RPC.SocketPath,
		LogPath:    GetLogPath(),
	}
	if pid := d.pidFile.GetRunningPID(); pid > 0 {
		status.Running = true
		status.PID = pid
		if state, err := d.readState(); err == nil {
			status.StartedAt = state.StartedAt
			status.Uptime = formatUptime(time.Since(state.StartedAt))
		}
	}
	return status
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	return d.pidFile.IsRunning()
}

// Run runs the daemon in the foreground until a signal arrives or ctx ends.
func (d *Daemon) Run(ctx context.Context) error {
	if d.IsRunning() {
		return ErrAlreadyRunning
	}
	if err := d.pidFile.Write(); err != nil {
		return err
	}
	defer d.pidFile.Remove()

	if err := d.writeState(&State{StartedAt: time.Now(), Version: d.version}); err != nil {
		return err
	}
	defer d.removeState()

	svc, err := d.startServices(ctx)
	if err != nil {
		return err
	}
	d.svc = svc
	defer svc.close()

	sigHandler := NewSignalHandler()
	sigHandler.Setup()
	defer sigHandler.Cleanup()

	logging.Info("daemon started", "pid", os.Getpid(), "socket", d.cfg.Runtime.RPC.SocketPath)
	d.readyOnce.Do(func() { close(d.ready) })

	if sig := sigHandler.Wait(ctx); sig != nil {
		logging.Info("received signal", "signal", sig.String())
	}
	logging.Info("daemon stopping")
	return nil
}

// services are the parts wired together by Run.
type services struct {
	db         *storage.DB
	engine     *timer.Engine
	wakeups    *scheduler.Wakeups
	sweeper    *scheduler.Scheduler
	queue      *notify.RetryQueue
	dispatcher *notify.Dispatcher
	server     *rpc.Server
	httpServer *http.Server
	metrics    *Metrics
	health     *HealthChecker
	cancel     context.CancelFunc
}

func (d *Daemon) startServices(parent context.Context) (_ *services, err error) {
	rc := d.cfg.Runtime
	ctx, cancel := context.WithCancel(parent)
	svc := &services{cancel: cancel, metrics: NewMetrics(), health: NewHealthChecker(d.version)}
	defer func() {
		if err != nil {
			svc.close()
		}
	}()

	svc.db, err = storage.Open(storage.Options{Path: rc.Storage.DBPath, InMemory: d.inMemory})
	if err != nil {
		return nil, err
	}

	httpClient := notify.NewHTTPClient(rc.HTTP)
	svc.queue = notify.NewRetryQueue(httpClient, rc.RetryQueue)
	svc.dispatcher = notify.NewDispatcher(d.cfg.Notify, httpClient, svc.queue)
	svc.dispatcher.AddSink(svc.metrics)

	svc.wakeups = scheduler.NewWakeups(ctx, func(id string) {
		svc.engine.HandleWakeup(ctx, id)
	})
	svc.engine = timer.NewEngine(storage.NewRunRepo(svc.db), svc.wakeups, svc.dispatcher)

	var secret string
	if rc.RPC.WebSocketEnabled {
		if secret, err = rpc.NewKeyring().EnsureKey(); err != nil {
			logging.Warn("keyring unavailable, HTTP endpoints disabled", logging.KeyError, err)
			secret, err = "", nil
		}
	}

	svc.health.SetSources(svc.wakeups.Pending, svc.queue.Pending, svc.metrics)
	svc.health.AddCheck("store", func() error {
		_, err := storage.NewRunRepo(svc.db).Load()
		return err
	})
	svc.server = rpc.NewServer(&rpc.Config{
		Version: d.version,
		Secret:  secret,
		Health:  func() any { return svc.health.Check() },
	}, svc.engine, storage.NewPresetRepo(svc.db), svc.wakeups)
	svc.dispatcher.AddSink(notify.NewPushSink(svc.server.Notifier()))

	l, err := rpc.Listen(rc.RPC.SocketPath)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := svc.server.Serve(ctx, l); err != nil {
			logging.Error("rpc listener failed", logging.KeyError, err)
			svc.metrics.RecordError(err)
		}
	}()

	if secret != "" {
		ln, err := net.Listen("tcp", rc.RPC.WebSocketAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", rc.RPC.WebSocketAddr, err)
		}
		svc.httpServer = &http.Server{Handler: svc.server.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := svc.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
				logging.Error("http listener failed", logging.KeyError, err)
				svc.metrics.RecordError(err)
			}
		}()
		logging.Info("http endpoints enabled", "addr", ln.Addr().String())
	}

	if err := svc.engine.Resume(ctx); err != nil {
		logging.Warn("could not resume run", logging.KeyError, err)
		svc.metrics.RecordError(err)
	}

	svc.sweeper = scheduler.NewScheduler(rc.Daemon.SweepInterval, func() {
		res := svc.engine.Restore(ctx)
		svc.metrics.RecordSweep()
		if res.State == timer.StateResolved {
			logging.Info("sweep resolved overdue run")
		}
	})
	if err := svc.sweeper.Start(); err != nil {
		return nil, err
	}
	svc.queue.Start()
	return svc, nil
}

// close stops everything in reverse dependency order. Parts never started
// are skipped.
func (s *services) close() {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	if s.wakeups != nil {
		s.wakeups.Stop()
	}
	s.cancel()
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = s.httpServer.Shutdown(ctx)
		cancel()
	}
	if s.server != nil {
		s.server.Close()
	}
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	if s.queue != nil {
		s.queue.Stop()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logging.Warn("closing store", logging.KeyError, err)
		}
	}
}

// StartBackground re-executes the binary as "daemon run" detached from the
// terminal and waits briefly for it to write its PID.
func (d *Daemon) StartBackground() (int, error) {
	if pid := d.pidFile.GetRunningPID(); pid > 0 {
		return pid, ErrAlreadyRunning
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := append([]string{"daemon", "run"}, d.ExtraArgs...)
	if d.debug {
		args = append(args, "--debug")
	}
	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil
	detach(cmd)

	logPath := GetLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err == nil {
		if logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			defer logFile.Close()
			cmd.Stdout = logFile
			cmd.Stderr = logFile
		}
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	go cmd.Wait()

	deadline := time.Now().Add(d.cfg.Runtime.Daemon.StartupWait)
	for time.Now().Before(deadline) {
		if d.pidFile.IsRunning() {
			return cmd.Process.Pid, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	if d.pidFile.IsRunning() {
		return cmd.Process.Pid, nil
	}
	if msg := lastLogError(logPath); msg != "" {
		return 0, fmt.Errorf("daemon failed to start: %s", msg)
	}
	return 0, fmt.Errorf("daemon failed to start (check logs: %s)", logPath)
}

// Stop signals the running daemon and waits up to KillTimeout for it to
// exit before killing it.
func (d *Daemon) Stop() error {
	pid := d.pidFile.GetRunningPID()
	if pid == 0 {
		return ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(os.Interrupt); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
	}

	deadline := time.Now().Add(d.cfg.Runtime.Daemon.KillTimeout)
	for IsProcessRunning(pid) {
		if time.Now().After(deadline) {
			logging.Warn("daemon did not exit in time, killing", "pid", pid)
			_ = process.Kill()
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	d.pidFile.Remove()
	d.removeState()
	return nil
}

// State is what the daemon records about itself while running.
type State struct {
	StartedAt time.Time `json:"started_at"`
	Version   string    `json:"version,omitempty"`
}

func (d *Daemon) statePath() string {
	return filepath.Join(d.stateDir, "daemon.json")
}

func (d *Daemon) writeState(state *State) error {
	path := d.statePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *Daemon) readState() (*State, error) {
	data, err := os.ReadFile(d.statePath())
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (d *Daemon) removeState() {
	if err := os.Remove(d.statePath()); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove daemon state file", logging.KeyError, err, "path", d.statePath())
	}
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
