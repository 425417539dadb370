package daemon

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"text/template"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"

	"github.com/manav03panchal/clockset/internal/logging"
)

const (
	launchdLabel = "dev.clockset.daemon"
	systemdUnit  = "clockset.service"
)

// ServiceManager installs the daemon as a per-user login service: a
// launchd agent on macOS or a systemd user unit on Linux.
type ServiceManager struct {
	Fs             afero.Fs
	ExecutablePath string
	Platform       string
	Home           string
	ConfigHome     string

	// run executes a service-manager command and returns its combined output.
	run func(name string, args ...string) ([]byte, error)
}

// NewServiceManager creates a service manager for the running executable.
func NewServiceManager() (*ServiceManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	home, _ := os.UserHomeDir()
	return &ServiceManager{
		Fs:             afero.NewOsFs(),
		ExecutablePath: execPath,
		Platform:       goruntime.GOOS,
		Home:           home,
		ConfigHome:     xdg.ConfigHome,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}, nil
}

const launchdPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>daemon</string>
        <string>run</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
</dict>
</plist>
`

const systemdTemplate = `[Unit]
Description=clockset countdown daemon

[Service]
Type=simple
ExecStart={{.ExecutablePath}} daemon run
Restart=on-failure
RestartSec=5
Environment="XDG_DATA_HOME={{.DataHome}}"
Environment="XDG_STATE_HOME={{.StateHome}}"

[Install]
WantedBy=default.target
`

type serviceData struct {
	Label          string
	ExecutablePath string
	LogPath        string
	DataHome       string
	StateHome      string
}

// Path returns the service definition file for the platform.
func (m *ServiceManager) Path() (string, error) {
	switch m.Platform {
	case "darwin":
		return filepath.Join(m.Home, "Library", "LaunchAgents", launchdLabel+".plist"), nil
	case "linux":
		return filepath.Join(m.ConfigHome, "systemd", "user", systemdUnit), nil
	default:
		return "", fmt.Errorf("service installation is not supported on %s", m.Platform)
	}
}

// Render returns the service definition for the platform.
func (m *ServiceManager) Render() ([]byte, error) {
	var text string
	switch m.Platform {
	case "darwin":
		text = launchdPlist
	case "linux":
		text = systemdTemplate
	default:
		return nil, fmt.Errorf("service installation is not supported on %s", m.Platform)
	}

	tmpl, err := template.New("service").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service template: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, serviceData{
		Label:          launchdLabel,
		ExecutablePath: m.ExecutablePath,
		LogPath:        GetLogPath(),
		DataHome:       xdg.DataHome,
		StateHome:      xdg.StateHome,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render service template: %w", err)
	}
	return buf.Bytes(), nil
}

// Install writes the service definition and asks the service manager to
// load it.
func (m *ServiceManager) Install() error {
	path, err := m.Path()
	if err != nil {
		return err
	}
	data, err := m.Render()
	if err != nil {
		return err
	}
	if err := m.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create service directory: %w", err)
	}
	if err := afero.WriteFile(m.Fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	var steps [][]string
	if m.Platform == "darwin" {
		steps = [][]string{{"launchctl", "load", path}}
	} else {
		steps = [][]string{
			{"systemctl", "--user", "daemon-reload"},
			{"systemctl", "--user", "enable", "--now", systemdUnit},
		}
	}
	for _, step := range steps {
		if out, err := m.run(step[0], step[1:]...); err != nil {
			return fmt.Errorf("%s failed: %w: %s", step[0], err, bytes.TrimSpace(out))
		}
	}
	logging.Info("installed service", "path", path)
	return nil
}

// Uninstall unloads and removes the service definition. A service that is
// not installed is not an error.
func (m *ServiceManager) Uninstall() error {
	path, err := m.Path()
	if err != nil {
		return err
	}

	// Unload failures are expected when the service is not loaded.
	if m.Platform == "darwin" {
		_, _ = m.run("launchctl", "unload", path)
	} else {
		_, _ = m.run("systemctl", "--user", "disable", "--now", systemdUnit)
	}

	if err := m.Fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove service file: %w", err)
	}
	if m.Platform == "linux" {
		_, _ = m.run("systemctl", "--user", "daemon-reload")
	}
	return nil
}

// IsInstalled reports whether the service definition exists.
func (m *ServiceManager) IsInstalled() bool {
	path, err := m.Path()
	if err != nil {
		return false
	}
	ok, _ := afero.Exists(m.Fs, path)
	return ok
}
