// Package runtime provides the per-invocation application context for
// clockset commands.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/manav03panchal/clockset/internal/config"
	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/output"
	"github.com/manav03panchal/clockset/internal/presets"
	"github.com/manav03panchal/clockset/internal/rpc"
	"github.com/manav03panchal/clockset/internal/storage"
)

// Names of optional capabilities held by a Context.
const (
	CapDaemon = "daemon"
	CapSecret = "secret"
)

// Context holds what one command invocation needs. It is built once in the
// root command and closed when the command returns.
type Context struct {
	Config    *config.Config
	Fs        afero.Fs
	Formatter *output.Formatter

	Local   *storage.LocalStore
	Presets *presets.Store

	Debug bool

	mu   sync.Mutex
	caps map[string]any
}

// Options configures the runtime context.
type Options struct {
	ConfigPath string
	LocalPath  string
	InMemory   bool
	Format     output.Format
	ColorMode  output.ColorMode
	Debug      bool

	// Fs backs config and file import/export. Defaults to the OS filesystem.
	Fs afero.Fs

	// Connect dials the daemon. A dial failure leaves the daemon capability
	// absent rather than failing New.
	Connect bool

	// OnNotify receives pushed notifications when Connect is set.
	OnNotify func(n *model.Notification)
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		ConfigPath: config.DefaultPath(),
		Format:     output.FormatCLI,
		ColorMode:  output.ColorAuto,
		Fs:         afero.NewOsFs(),
		Connect:    true,
	}
}

// New creates a runtime context.
func New(opts Options) (*Context, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	cfg, err := config.Load(opts.Fs, opts.ConfigPath)
	if err != nil {
		return nil, errors.NewUserErrorWithField("config", opts.ConfigPath, err.Error(), "Fix the file or run 'clockset config init' on a fresh path.")
	}

	localPath := cfg.Runtime.Storage.LocalPath
	if opts.LocalPath != "" {
		localPath = opts.LocalPath
	}
	if opts.InMemory || localPath == ":memory:" {
		localPath = ":memory:"
	}
	local, err := storage.OpenLocal(localPath)
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("open local store", "could not open the local store", WrapDiskFullError(err, "open", localPath))
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	c := &Context{
		Config:    cfg,
		Fs:        opts.Fs,
		Formatter: formatter,
		Local:     local,
		Debug:     opts.Debug,
		caps:      make(map[string]any),
	}

	var shared presets.Shared
	if opts.Connect {
		client, err := rpc.DialTimeout(cfg.Runtime.RPC.SocketPath, cfg.Runtime.RPC.DialTimeout, &rpc.ClientOptions{OnNotify: opts.OnNotify})
		if err != nil {
			c.Debugf("daemon unavailable: %v", err)
		} else {
			c.Register(CapDaemon, client)
			shared = rpc.NewSharedPresets(client, cfg.Runtime.RPC.DialTimeout)
		}
	}
	c.Presets = presets.New(local, shared)
	formatter.TimeFormat = c.TimeFormat()

	return c, nil
}

// Register stores an optional capability under name, replacing any
// previous value.
func (c *Context) Register(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.caps == nil {
		c.caps = make(map[string]any)
	}
	c.caps[name] = v
}

// Lookup returns the capability registered under name.
func (c *Context) Lookup(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.caps[name]
	return v, ok
}

// Daemon returns the connected daemon client.
func (c *Context) Daemon() (*rpc.Client, error) {
	if v, ok := c.Lookup(CapDaemon); ok {
		if client, ok := v.(*rpc.Client); ok {
			return client, nil
		}
	}
	return nil, errors.NewUserError(errors.ErrDaemonNotRunning.Error(), errors.GetSuggestion(errors.ErrDaemonNotRunning))
}

// Secret returns the RPC bearer secret from the system keyring, caching it
// as a capability. A missing secret reports false.
func (c *Context) Secret() (string, bool) {
	if v, ok := c.Lookup(CapSecret); ok {
		s, _ := v.(string)
		return s, s != ""
	}
	secret, err := rpc.NewKeyring().GetKey()
	if err != nil || secret == "" {
		return "", false
	}
	c.Register(CapSecret, secret)
	return secret, true
}

// CallContext bounds a daemon call by the configured dial timeout.
func (c *Context) CallContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := c.Config.Runtime.RPC.DialTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

// TimeFormat returns the wall-clock preference. A value saved in the local
// store wins over the config file.
func (c *Context) TimeFormat() string {
	var settings model.Settings
	found, err := c.Local.GetJSON(storage.LocalKeySettings, &settings)
	if err == nil && found && model.IsValidTimeFormat(settings.TimeFormat) {
		return settings.TimeFormat
	}
	return model.Settings{TimeFormat: c.Config.TimeFormat}.Normalize().TimeFormat
}

// SetTimeFormat saves the wall-clock preference to the local store.
func (c *Context) SetTimeFormat(format string) error {
	if !model.IsValidTimeFormat(format) {
		return errors.Invalid(errors.ErrInvalidTimeFormat, "time format", format)
	}
	if err := c.Local.SaveSettings(model.Settings{TimeFormat: format}); err != nil {
		return WrapDiskFullError(err, "write", c.Local.Path())
	}
	c.Formatter.TimeFormat = format
	return nil
}

// Close releases the daemon connection and the local store.
func (c *Context) Close() error {
	if v, ok := c.Lookup(CapDaemon); ok {
		if client, ok := v.(*rpc.Client); ok {
			if err := client.Close(); err != nil {
				logging.DebugLog("closing daemon client", logging.KeyError, err)
			}
		}
	}
	if c.Local != nil {
		return c.Local.Close()
	}
	return nil
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...any) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}
