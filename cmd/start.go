package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/parser"
	"github.com/manav03panchal/clockset/internal/rpc"
)

// Start command flags.
var (
	startFlagPreset  string
	startFlagClocks  []string
	startFlagName    string
	startFlagUntil   string
	startFlagMinutes int
)

// startCmd represents the start command.
var startCmd = &cobra.Command{
	Use:     "start [PRESET | NAME CLOCK...] [until TIME]",
	Aliases: []string{"s", "go"},
	Short:   "Start a countdown",
	Long: `Start a countdown from a saved preset, from clocks given on the command
line, or until a time of day. Starting replaces any running timer.

With no arguments the selected preset is started.

Clocks are H:M:S, M:S or durations like 90s, 5m, 1h30m. A bare number is
minutes.

Examples:
  clockset start Tea
  clockset start --preset Tea
  clockset start "Soft eggs" 6m30s
  clockset start Intervals 0:0:40 0:0:20 0:0:40 0:0:20
  clockset start Meeting until 3pm
  clockset start --clock 0:25:0 --clock 0:5:0 --name Pomodoro`,
	ValidArgsFunction: completePresetNames,
	RunE:              runStart,
}

func init() {
	startCmd.Flags().StringVarP(&startFlagPreset, "preset", "p", "", "Saved preset name or id")
	startCmd.Flags().StringArrayVarP(&startFlagClocks, "clock", "c", nil, "Clock to run (repeatable)")
	startCmd.Flags().StringVarP(&startFlagName, "name", "n", "", "Name for an ad-hoc timer")
	startCmd.Flags().StringVarP(&startFlagUntil, "until", "u", "", "Run until this time")
	startCmd.Flags().IntVarP(&startFlagMinutes, "minutes", "m", 0, "Single countdown of N minutes")
	startCmd.Flags().MarkDeprecated("minutes", "use --clock 0:N:0 instead")

	startCmd.RegisterFlagCompletionFunc("preset", completePresetNames)

	rootCmd.AddCommand(startCmd)
}

// presetFinder looks up saved presets by name or id prefix.
type presetFinder interface {
	FindByName(name string) (*model.Preset, error)
	Get(id string) (*model.Preset, error)
}

// startRequest collects what the user asked to start.
type startRequest struct {
	Args     []string
	Preset   string
	Clocks   []string
	Name     string
	Until    string
	Minutes  int
	Selected string
}

// params turns the request into timer.start parameters. A name without
// clocks refers to a saved preset; a name with clocks is an ad-hoc timer.
func (r startRequest) params(presets presetFinder, now time.Time) (*rpc.StartParams, error) {
	if r.Minutes != 0 {
		if r.Minutes < 0 {
			return nil, errors.Invalid(errors.ErrClockOutOfRange, "minutes", "")
		}
		if len(r.Args) > 0 || r.Preset != "" || len(r.Clocks) > 0 || r.Until != "" {
			return nil, errors.NewUserError("--minutes cannot be combined with other inputs", "Use --clock for anything beyond a single countdown.")
		}
		return &rpc.StartParams{PresetName: r.Name, DurationMs: int64(r.Minutes) * int64(time.Minute/time.Millisecond)}, nil
	}

	parsed := parser.Parse(r.Args)
	parsed.Merge(r.Name, r.Clocks, r.Until)
	if err := parsed.Process(now); err != nil {
		return nil, err
	}

	if r.Preset != "" {
		if parsed.HasClocks || parsed.HasUntil {
			return nil, errors.NewUserError("--preset cannot be combined with clocks or a deadline", "")
		}
		p, err := presets.FindByName(r.Preset)
		if err != nil {
			return nil, err
		}
		return &rpc.StartParams{Preset: p}, nil
	}

	if len(parsed.Clocks) > 0 {
		return &rpc.StartParams{PresetName: parsed.Name, Clocks: parsed.Clocks}, nil
	}

	if parsed.HasName {
		p, err := presets.FindByName(parsed.Name)
		if err != nil {
			return nil, err
		}
		return &rpc.StartParams{Preset: p}, nil
	}

	if r.Selected != "" {
		if p, err := presets.Get(r.Selected); err == nil {
			return &rpc.StartParams{Preset: p}, nil
		}
	}
	return nil, errors.NewUserError("nothing to start", "Name a preset or give clocks, e.g. 'clockset start Tea' or 'clockset start 5m'.")
}

func runStart(cmd *cobra.Command, args []string) error {
	client, err := ctx.Daemon()
	if err != nil {
		return err
	}

	req := startRequest{
		Args:    args,
		Preset:  startFlagPreset,
		Clocks:  startFlagClocks,
		Name:    startFlagName,
		Until:   startFlagUntil,
		Minutes: startFlagMinutes,
	}
	if len(args) == 0 && startFlagPreset == "" && len(startFlagClocks) == 0 && startFlagUntil == "" && startFlagMinutes == 0 {
		callCtx, cancel := ctx.CallContext(cmd.Context())
		res, err := client.Restore(callCtx)
		cancel()
		if err != nil {
			return err
		}
		if res.Run != nil {
			req.Selected = res.Run.SelectedPreset()
		}
	}

	params, err := req.params(ctx.Presets, time.Now())
	if err != nil {
		return err
	}
	ctx.Debugf("timer.start %+v", params)

	callCtx, cancel := ctx.CallContext(cmd.Context())
	defer cancel()
	run, err := client.Start(callCtx, params)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStart(run)
	}
	ctx.CLIFormatter().PrintRunStarted(run)
	return nil
}
