package nativehost

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// HostName must match the name the extension connects to.
const HostName = "dev.clockset.host"

// Browser is a browser with native messaging support.
type Browser string

const (
	BrowserChrome   Browser = "chrome"
	BrowserFirefox  Browser = "firefox"
	BrowserChromium Browser = "chromium"
	BrowserEdge     Browser = "edge"
	BrowserBrave    Browser = "brave"
)

// ErrUnsupported is returned for a browser/platform pair with no manifest
// location.
var ErrUnsupported = errors.New("unsupported browser or platform")

// SupportedBrowsers returns all browsers that support native messaging.
func SupportedBrowsers() []Browser {
	return []Browser{BrowserChrome, BrowserFirefox, BrowserChromium, BrowserEdge, BrowserBrave}
}

// ParseBrowser maps a name onto a Browser.
func ParseBrowser(name string) (Browser, error) {
	for _, b := range SupportedBrowsers() {
		if string(b) == name {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// ChromeManifest is the Chromium-family manifest.
type ChromeManifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// FirefoxManifest is the Firefox manifest.
type FirefoxManifest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Path              string   `json:"path"`
	Type              string   `json:"type"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

const manifestDescription = "clockset timer native host"

// GenerateChromeManifest renders a Chromium-family manifest.
func GenerateChromeManifest(hostPath, extensionID string) []byte {
	b, _ := json.MarshalIndent(ChromeManifest{
		Name:           HostName,
		Description:    manifestDescription,
		Path:           hostPath,
		Type:           "stdio",
		AllowedOrigins: []string{"chrome-extension://" + extensionID + "/"},
	}, "", "  ")
	return b
}

// GenerateFirefoxManifest renders a Firefox manifest.
func GenerateFirefoxManifest(hostPath, extensionID string) []byte {
	b, _ := json.MarshalIndent(FirefoxManifest{
		Name:              HostName,
		Description:       manifestDescription,
		Path:              hostPath,
		Type:              "stdio",
		AllowedExtensions: []string{extensionID},
	}, "", "  ")
	return b
}

// ManifestPath returns where browser looks for the manifest on platform.
// Windows locates manifests through the registry and is not supported.
func ManifestPath(browser Browser, platform, homeDir string) (string, error) {
	file := HostName + ".json"

	var dir string
	switch platform {
	case "darwin":
		appSupport := filepath.Join(homeDir, "Library", "Application Support")
		switch browser {
		case BrowserChrome:
			dir = filepath.Join(appSupport, "Google", "Chrome")
		case BrowserChromium:
			dir = filepath.Join(appSupport, "Chromium")
		case BrowserFirefox:
			dir = filepath.Join(appSupport, "Mozilla")
		case BrowserEdge:
			dir = filepath.Join(appSupport, "Microsoft Edge")
		case BrowserBrave:
			dir = filepath.Join(appSupport, "BraveSoftware", "Brave-Browser")
		}
		if dir != "" {
			return filepath.Join(dir, "NativeMessagingHosts", file), nil
		}
	case "linux":
		switch browser {
		case BrowserChrome:
			dir = filepath.Join(homeDir, ".config", "google-chrome", "NativeMessagingHosts")
		case BrowserChromium:
			dir = filepath.Join(homeDir, ".config", "chromium", "NativeMessagingHosts")
		case BrowserFirefox:
			dir = filepath.Join(homeDir, ".mozilla", "native-messaging-hosts")
		case BrowserEdge:
			dir = filepath.Join(homeDir, ".config", "microsoft-edge", "NativeMessagingHosts")
		case BrowserBrave:
			dir = filepath.Join(homeDir, ".config", "BraveSoftware", "Brave-Browser", "NativeMessagingHosts")
		}
		if dir != "" {
			return filepath.Join(dir, file), nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrUnsupported, browser, platform)
}

// ManifestInstaller writes and removes manifests.
type ManifestInstaller struct {
	Fs                 afero.Fs
	HostPath           string
	ChromeExtensionID  string
	FirefoxExtensionID string
	BaseDir            string // home directory override; empty uses the real one
	Platform           string // empty uses runtime.GOOS
}

func (m *ManifestInstaller) fs() afero.Fs {
	if m.Fs == nil {
		return afero.NewOsFs()
	}
	return m.Fs
}

func (m *ManifestInstaller) home() string {
	if m.BaseDir != "" {
		return m.BaseDir
	}
	home, _ := os.UserHomeDir()
	return home
}

func (m *ManifestInstaller) platform() string {
	if m.Platform != "" {
		return m.Platform
	}
	return runtime.GOOS
}

// Path returns the manifest location for browser.
func (m *ManifestInstaller) Path(browser Browser) (string, error) {
	return ManifestPath(browser, m.platform(), m.home())
}

// Install writes the manifest for browser and returns its path.
func (m *ManifestInstaller) Install(browser Browser) (string, error) {
	if m.HostPath == "" {
		return "", errors.New("host path is required")
	}

	var manifest []byte
	if browser == BrowserFirefox {
		if m.FirefoxExtensionID == "" {
			return "", errors.New("firefox extension ID is required")
		}
		manifest = GenerateFirefoxManifest(m.HostPath, m.FirefoxExtensionID)
	} else {
		if m.ChromeExtensionID == "" {
			return "", errors.New("chrome extension ID is required")
		}
		manifest = GenerateChromeManifest(m.HostPath, m.ChromeExtensionID)
	}

	path, err := m.Path(browser)
	if err != nil {
		return "", err
	}
	if err := m.fs().MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := afero.WriteFile(m.fs(), path, manifest, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// Uninstall removes the manifest for browser. A missing manifest is not an
// error.
func (m *ManifestInstaller) Uninstall(browser Browser) (string, error) {
	path, err := m.Path(browser)
	if err != nil {
		return "", err
	}
	if err := m.fs().Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	return path, nil
}

// Installed reports whether the manifest for browser exists.
func (m *ManifestInstaller) Installed(browser Browser) bool {
	path, err := m.Path(browser)
	if err != nil {
		return false
	}
	ok, _ := afero.Exists(m.fs(), path)
	return ok
}
