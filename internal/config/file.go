package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/manav03panchal/clockset/internal/model"
)

// Config is everything a clockset process reads at startup: runtime values,
// the user's display preference and the notification settings.
type Config struct {
	Runtime    *RuntimeConfig
	TimeFormat string
	Notify     model.NotifyConfig
	Path       string
}

// Config file keys.
const (
	keyTimeFormat       = "time_format"
	keySweepInterval    = "daemon.sweep_interval"
	keyWebSocket        = "rpc.websocket"
	keyWebSocketAddr    = "rpc.websocket_addr"
	keyNotifyEnabled    = "notify.enabled"
	keyNotifyWebhooks   = "notify.webhooks"
	keyRefreshInterval  = "timer.refresh_interval"
	keyRetryQueueMaxTry = "notify.max_retries"
)

// DefaultPath returns the config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// EnvFilePath returns the optional .env file next to the config file.
func EnvFilePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".env")
}

// Default returns a Config with no file or environment applied.
func Default() *Config {
	return &Config{
		Runtime:    DefaultRuntimeConfig(),
		TimeFormat: model.TimeFormat24h,
		Notify:     model.DefaultNotifyConfig(),
		Path:       DefaultPath(),
	}
}

func newViper(fsys afero.Fs, path string) *viper.Viper {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	d := Default()
	v.SetDefault(keyTimeFormat, d.TimeFormat)
	v.SetDefault(keySweepInterval, d.Runtime.Daemon.SweepInterval)
	v.SetDefault(keyWebSocket, d.Runtime.RPC.WebSocketEnabled)
	v.SetDefault(keyWebSocketAddr, d.Runtime.RPC.WebSocketAddr)
	v.SetDefault(keyRefreshInterval, d.Runtime.Timer.RefreshInterval)
	v.SetDefault(keyRetryQueueMaxTry, d.Runtime.RetryQueue.MaxRetries)
	v.SetDefault(keyNotifyEnabled, d.Notify.Enabled)
	return v
}

// Load reads the config file at path from fsys, then the optional .env
// file, then CLOCKSET_* variables. A missing file yields the defaults.
func Load(fsys afero.Fs, path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := loadEnvFile(fsys, EnvFilePath(path)); err != nil {
		return nil, err
	}

	v := newViper(fsys, path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Default()
	cfg.Path = path
	cfg.TimeFormat = model.Settings{TimeFormat: v.GetString(keyTimeFormat)}.Normalize().TimeFormat
	cfg.Runtime.Daemon.SweepInterval = v.GetDuration(keySweepInterval)
	cfg.Runtime.RPC.WebSocketEnabled = v.GetBool(keyWebSocket)
	cfg.Runtime.RPC.WebSocketAddr = v.GetString(keyWebSocketAddr)
	cfg.Runtime.Timer.RefreshInterval = v.GetDuration(keyRefreshInterval)
	cfg.Runtime.RetryQueue.MaxRetries = v.GetInt(keyRetryQueueMaxTry)

	if err := v.UnmarshalKey(keyNotifyEnabled, &cfg.Notify.Enabled); err != nil {
		return nil, fmt.Errorf("invalid notify.enabled: %w", err)
	}
	if err := v.UnmarshalKey(keyNotifyWebhooks, &cfg.Notify.Webhooks); err != nil {
		return nil, fmt.Errorf("invalid notify.webhooks: %w", err)
	}

	cfg.Runtime.LoadFromEnv()
	return cfg, nil
}

// loadEnvFile sets variables from an optional .env file without overriding
// ones already present in the environment.
func loadEnvFile(fsys afero.Fs, path string) error {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}
	for k, val := range vars {
		if _, set := os.LookupEnv(k); !set {
			os.Setenv(k, val)
		}
	}
	return nil
}

// Set writes one key to the config file at path, creating it if needed.
func Set(fsys afero.Fs, path, key string, value any) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	v := newViper(fsys, path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	v.Set(key, value)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Init writes a config file holding the defaults. An existing file is left
// alone and reported as false.
func Init(fsys afero.Fs, path string) (bool, error) {
	if path == "" {
		path = DefaultPath()
	}
	if exists, err := afero.Exists(fsys, path); err != nil || exists {
		return false, err
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("error creating config directory: %w", err)
	}
	v := newViper(fsys, path)
	v.Set(keyNotifyWebhooks, []model.Webhook{})
	if err := v.WriteConfigAs(path); err != nil {
		return false, fmt.Errorf("error writing config file: %w", err)
	}
	return true, nil
}

// SetTimeFormat persists the wall-clock format preference.
func SetTimeFormat(fsys afero.Fs, path, format string) error {
	return Set(fsys, path, keyTimeFormat, format)
}

// SetWebhooks replaces the webhook list in the config file.
func SetWebhooks(fsys afero.Fs, path string, webhooks []model.Webhook) error {
	if webhooks == nil {
		webhooks = []model.Webhook{}
	}
	return Set(fsys, path, keyNotifyWebhooks, webhooks)
}

// SetNotifyEnabled turns one notification type on or off.
func SetNotifyEnabled(fsys afero.Fs, path string, t model.NotificationType, enabled bool) error {
	return Set(fsys, path, keyNotifyEnabled+"."+string(t), enabled)
}
