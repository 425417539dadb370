package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/output"
	"github.com/manav03panchal/clockset/internal/parser"
	"github.com/manav03panchal/clockset/internal/presets"
)

// Preset command flags.
var (
	presetAddFlagClocks     []string
	presetExportFlagAs      string
	presetImportFlagReplace bool
	presetImportFlagDryRun  bool
)

// presetCmd represents the preset command.
var presetCmd = &cobra.Command{
	Use:     "preset [command]",
	Aliases: []string{"presets", "p"},
	Short:   "Manage saved presets",
	Long: `Manage saved presets. A preset is a name and an ordered list of clocks.
Presets are saved locally and shared with the daemon, so the browser
extension sees the same list.

Examples:
  clockset preset add Tea 0:3:0 0:2:0
  clockset preset list
  clockset preset show Tea
  clockset preset select Tea
  clockset preset remove Tea
  clockset preset export presets.yaml
  clockset preset import presets.yaml`,
	RunE: runPresetList,
}

var presetAddCmd = &cobra.Command{
	Use:   "add NAME CLOCK...",
	Short: "Save a new preset",
	Long: `Save a new preset. Clocks are H:M:S, M:S or durations like 5m; each field
is 0-99.

Examples:
  clockset preset add Tea 0:3:0 0:2:0
  clockset preset add "Soft eggs" 6m30s
  clockset preset add Intervals --clock 0:40 --clock 0:20`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPresetAdd,
}

var presetListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved presets",
	Args:    cobra.NoArgs,
	RunE:    runPresetList,
}

var presetShowCmd = &cobra.Command{
	Use:               "show NAME",
	Short:             "Show one preset",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePresetNames,
	RunE:              runPresetShow,
}

var presetRemoveCmd = &cobra.Command{
	Use:               "remove NAME",
	Aliases:           []string{"rm", "delete"},
	Short:             "Delete a preset",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePresetNames,
	RunE:              runPresetRemove,
}

var presetSelectCmd = &cobra.Command{
	Use:               "select NAME",
	Short:             "Select the preset 'clockset start' runs by default",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePresetNames,
	RunE:              runPresetSelect,
}

var presetExportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write presets to a YAML or JSON file",
	Long: `Write every preset to FILE, or to stdout when FILE is omitted or "-".
The format follows the file extension unless --as is given.

Examples:
  clockset preset export
  clockset preset export presets.yaml
  clockset preset export --as json > presets.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPresetExport,
}

var presetImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Read presets from a YAML or JSON file",
	Long: `Add the presets in FILE. Presets whose name already exists are skipped
unless --replace is given.

Examples:
  clockset preset import presets.yaml
  clockset preset import presets.json --replace
  clockset preset import presets.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetImport,
}

func init() {
	presetAddCmd.Flags().StringArrayVarP(&presetAddFlagClocks, "clock", "c", nil, "Clock to add (repeatable)")
	presetExportCmd.Flags().StringVar(&presetExportFlagAs, "as", "", "Output format: yaml, json")
	presetImportCmd.Flags().BoolVar(&presetImportFlagReplace, "replace", false, "Replace presets with the same name")
	presetImportCmd.Flags().BoolVar(&presetImportFlagDryRun, "dry-run", false, "Show what would be imported without saving")

	presetCmd.AddCommand(presetAddCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetShowCmd)
	presetCmd.AddCommand(presetRemoveCmd)
	presetCmd.AddCommand(presetSelectCmd)
	presetCmd.AddCommand(presetExportCmd)
	presetCmd.AddCommand(presetImportCmd)
	rootCmd.AddCommand(presetCmd)
}

func runPresetAdd(cmd *cobra.Command, args []string) error {
	clocks, err := parser.ParseClocks(append(args[1:], presetAddFlagClocks...))
	if err != nil {
		return err
	}

	p := model.NewPreset(args[0], clocks)
	if err := ctx.Presets.Save(p); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintPreset(p)
	}
	cli := ctx.CLIFormatter()
	cli.Success(fmt.Sprintf("Saved preset %s", cli.PresetName(p.Name)))
	cli.PrintPreset(p)
	return nil
}

// selectedPreset returns the daemon's selected preset id, or "" when the
// daemon cannot say.
func selectedPreset(cmd *cobra.Command) string {
	client, err := ctx.Daemon()
	if err != nil {
		return ""
	}
	callCtx, cancel := ctx.CallContext(cmd.Context())
	defer cancel()
	res, err := client.Restore(callCtx)
	if err != nil || res.Run == nil {
		return ""
	}
	return res.Run.SelectedPreset()
}

func runPresetList(cmd *cobra.Command, args []string) error {
	list := ctx.Presets.List()
	selected := selectedPreset(cmd)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintPresets(list, selected)
	}
	ctx.CLIFormatter().PrintPresets(list, selected)
	return nil
}

func runPresetShow(cmd *cobra.Command, args []string) error {
	p, err := ctx.Presets.FindByName(args[0])
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintPreset(p)
	}
	ctx.CLIFormatter().PrintPreset(p)
	return nil
}

func runPresetRemove(cmd *cobra.Command, args []string) error {
	p, err := ctx.Presets.FindByName(args[0])
	if err != nil {
		return err
	}
	if err := ctx.Presets.Delete(p.ID); err != nil {
		return err
	}

	if selectedPreset(cmd) == p.ID {
		if client, err := ctx.Daemon(); err == nil {
			callCtx, cancel := ctx.CallContext(cmd.Context())
			if err := client.Select(callCtx, ""); err != nil {
				ctx.Debugf("clearing selection: %v", err)
			}
			cancel()
		}
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "deleted", "id": p.ID})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Deleted preset %s", p.Name))
	return nil
}

func runPresetSelect(cmd *cobra.Command, args []string) error {
	p, err := ctx.Presets.FindByName(args[0])
	if err != nil {
		return err
	}
	client, err := ctx.Daemon()
	if err != nil {
		return err
	}
	callCtx, cancel := ctx.CallContext(cmd.Context())
	defer cancel()
	if err := client.Select(callCtx, p.ID); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "selected", "id": p.ID})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Selected preset %s", p.Name))
	return nil
}

func runPresetExport(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	format := presetExportFlagAs
	if format == "" {
		format = presets.FormatFromPath(path)
	}

	var buf bytes.Buffer
	if err := presets.Encode(&buf, presets.NewDocument(ctx.Presets.List()), strings.ToLower(format)); err != nil {
		return err
	}

	if path == "-" {
		_, err := ctx.Formatter.Writer.Write(buf.Bytes())
		return err
	}
	if err := afero.WriteFile(ctx.Fs, path, buf.Bytes(), 0o644); err != nil {
		return errors.NewSystemErrorWithOp("export presets", "could not write "+path, err)
	}
	// Keep stdout clean for the document; the confirmation goes to stderr.
	fmt.Fprintf(os.Stderr, "Exported presets to %s\n", path)
	return nil
}

func runPresetImport(cmd *cobra.Command, args []string) error {
	data, err := afero.ReadFile(ctx.Fs, args[0])
	if err != nil {
		return errors.NewUserErrorWithField("file", args[0], "could not read file", err.Error())
	}
	doc, err := presets.Decode(data)
	if err != nil {
		return err
	}
	incoming, err := doc.ToPresets()
	if err != nil {
		return err
	}

	cli := ctx.CLIFormatter()
	if presetImportFlagDryRun {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintPresets(incoming, "")
		}
		cli.Title(fmt.Sprintf("Would import %d preset(s):", len(incoming)))
		cli.PrintPresets(incoming, "")
		return nil
	}

	res, err := ctx.Presets.Import(incoming, presetImportFlagReplace)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(res)
	}
	cli.Success(fmt.Sprintf("Imported %d preset(s), replaced %d", res.Added, res.Replaced))
	if len(res.Skipped) > 0 {
		cli.Muted(fmt.Sprintf("Skipped existing: %s", strings.Join(res.Skipped, ", ")))
		cli.Muted("Use --replace to overwrite them.")
	}
	return nil
}

// formatTotal is the preset's total as shown in completions.
func formatTotal(p *model.Preset) string {
	return output.FormatMs(p.TotalDurationMs())
}
