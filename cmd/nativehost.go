package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/nativehost"
)

// Native host command flags.
var (
	nativeHostFlagBrowser   string
	nativeHostFlagChromeID  string
	nativeHostFlagFirefoxID string
	nativeHostFlagHostPath  string
	nativeHostStatusFlagAll bool
)

// nativeHostCmd is what the browser launches. It speaks the native
// messaging framing on stdin and stdout, so nothing else may write there.
var nativeHostCmd = &cobra.Command{
	Use:   "native-host",
	Short: "Bridge the browser extension to the daemon",
	Long: `Run as a browser native messaging host. Browsers start this command
themselves once the manifest is installed; it is not meant to be run by hand.

Examples:
  clockset native-host install --chrome-extension-id abcdefghijklmnop
  clockset native-host install --browser firefox --firefox-extension-id clockset@example.org
  clockset native-host status
  clockset native-host uninstall`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	// Chrome on Windows adds --parent-window.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE:               runNativeHost,
}

var nativeHostInstallCmd = &cobra.Command{
	Use:         "install",
	Short:       "Install the native messaging manifest",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationOffline: "true"},
	RunE:        runNativeHostInstall,
}

var nativeHostUninstallCmd = &cobra.Command{
	Use:         "uninstall",
	Short:       "Remove the native messaging manifest",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationOffline: "true"},
	RunE:        runNativeHostUninstall,
}

var nativeHostStatusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show where manifests are installed",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationOffline: "true"},
	RunE:        runNativeHostStatus,
}

func init() {
	for _, c := range []*cobra.Command{nativeHostInstallCmd, nativeHostUninstallCmd, nativeHostStatusCmd} {
		c.Flags().StringVarP(&nativeHostFlagBrowser, "browser", "b", "all", "Browser: all, chrome, chromium, edge, brave, firefox")
	}
	nativeHostInstallCmd.Flags().StringVar(&nativeHostFlagChromeID, "chrome-extension-id", os.Getenv("CLOCKSET_CHROME_EXTENSION_ID"), "Extension ID for Chromium-family browsers")
	nativeHostInstallCmd.Flags().StringVar(&nativeHostFlagFirefoxID, "firefox-extension-id", os.Getenv("CLOCKSET_FIREFOX_EXTENSION_ID"), "Add-on ID for Firefox")
	nativeHostInstallCmd.Flags().StringVar(&nativeHostFlagHostPath, "host-path", "", "Binary the browser should launch (default: this executable)")
	nativeHostStatusCmd.Flags().BoolVar(&nativeHostStatusFlagAll, "all", false, "Also list browsers without a manifest")

	nativeHostCmd.AddCommand(nativeHostInstallCmd)
	nativeHostCmd.AddCommand(nativeHostUninstallCmd)
	nativeHostCmd.AddCommand(nativeHostStatusCmd)
	rootCmd.AddCommand(nativeHostCmd)
}

func runNativeHost(cmd *cobra.Command, args []string) error {
	// stdout belongs to the browser.
	cfg := logging.DaemonConfig(os.Stderr)
	cfg.JSON = false
	logging.Init(cfg)
	logging.Info("native host started", "args", args)

	client, err := ensureDaemon()
	if err != nil {
		return err
	}
	return nativehost.NewHost(client).Run(cmd.Context())
}

// selectedBrowsers resolves the --browser flag.
func selectedBrowsers() ([]nativehost.Browser, error) {
	if nativeHostFlagBrowser == "" || nativeHostFlagBrowser == "all" {
		return nativehost.SupportedBrowsers(), nil
	}
	b, err := nativehost.ParseBrowser(nativeHostFlagBrowser)
	if err != nil {
		return nil, errors.NewUserErrorWithField("browser", nativeHostFlagBrowser, err.Error(), "Use all, chrome, chromium, edge, brave or firefox.")
	}
	return []nativehost.Browser{b}, nil
}

func newManifestInstaller() (*nativehost.ManifestInstaller, error) {
	hostPath := nativeHostFlagHostPath
	if hostPath == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.NewSystemError("could not locate the clockset binary", err)
		}
		hostPath = exe
	}
	if resolved, err := filepath.EvalSymlinks(hostPath); err == nil {
		hostPath = resolved
	}
	return &nativehost.ManifestInstaller{
		Fs:                 ctx.Fs,
		HostPath:           hostPath,
		ChromeExtensionID:  nativeHostFlagChromeID,
		FirefoxExtensionID: nativeHostFlagFirefoxID,
	}, nil
}

type manifestResult struct {
	Browser string `json:"browser"`
	Path    string `json:"path,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

func printManifestResults(results []manifestResult) error {
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"manifests": results})
	}
	cli := ctx.CLIFormatter()
	for _, r := range results {
		switch {
		case r.Error != "":
			cli.Error(fmt.Sprintf("%-9s %s", r.Browser, r.Error))
		case r.Status == "missing":
			cli.Muted(fmt.Sprintf("%-9s not installed", r.Browser))
		default:
			cli.Success(fmt.Sprintf("%-9s %s %s", r.Browser, r.Status, r.Path))
		}
	}
	return nil
}

func runNativeHostInstall(cmd *cobra.Command, args []string) error {
	browsers, err := selectedBrowsers()
	if err != nil {
		return err
	}
	inst, err := newManifestInstaller()
	if err != nil {
		return err
	}

	var results []manifestResult
	installed := 0
	for _, b := range browsers {
		// With --browser all, only install where an ID was given.
		if len(browsers) > 1 {
			if b == nativehost.BrowserFirefox && inst.FirefoxExtensionID == "" {
				continue
			}
			if b != nativehost.BrowserFirefox && inst.ChromeExtensionID == "" {
				continue
			}
		}
		path, err := inst.Install(b)
		if errors.Is(err, nativehost.ErrUnsupported) {
			continue
		}
		r := manifestResult{Browser: string(b), Path: path, Status: "installed"}
		if err != nil {
			r.Status, r.Error = "failed", err.Error()
		} else {
			installed++
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return errors.NewUserError("no manifest installed", "Pass --chrome-extension-id or --firefox-extension-id.")
	}
	if err := printManifestResults(results); err != nil {
		return err
	}
	if installed == 0 {
		return errors.NewSystemError("native host install failed", nil)
	}
	return nil
}

func runNativeHostUninstall(cmd *cobra.Command, args []string) error {
	browsers, err := selectedBrowsers()
	if err != nil {
		return err
	}
	inst, err := newManifestInstaller()
	if err != nil {
		return err
	}

	var results []manifestResult
	for _, b := range browsers {
		if len(browsers) > 1 && !inst.Installed(b) {
			continue
		}
		path, err := inst.Uninstall(b)
		if errors.Is(err, nativehost.ErrUnsupported) {
			continue
		}
		r := manifestResult{Browser: string(b), Path: path, Status: "removed"}
		if err != nil {
			r.Status, r.Error = "failed", err.Error()
		}
		results = append(results, r)
	}
	if len(results) == 0 && !ctx.IsJSON() {
		ctx.CLIFormatter().Muted("No manifests installed.")
		return nil
	}
	return printManifestResults(results)
}

func runNativeHostStatus(cmd *cobra.Command, args []string) error {
	browsers, err := selectedBrowsers()
	if err != nil {
		return err
	}
	inst, err := newManifestInstaller()
	if err != nil {
		return err
	}

	var results []manifestResult
	for _, b := range browsers {
		path, err := inst.Path(b)
		if err != nil {
			continue
		}
		if inst.Installed(b) {
			results = append(results, manifestResult{Browser: string(b), Path: path, Status: "installed"})
		} else if nativeHostStatusFlagAll || len(browsers) == 1 {
			results = append(results, manifestResult{Browser: string(b), Path: path, Status: "missing"})
		}
	}
	if len(results) == 0 && !ctx.IsJSON() {
		ctx.CLIFormatter().Muted("No manifests installed. Run 'clockset native-host install'.")
		return nil
	}
	return printManifestResults(results)
}
