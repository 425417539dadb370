package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/timer"
)

// Wait command flags.
var waitFlagQuiet bool

// waitCmd represents the wait command.
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the running timer finishes",
	Long: `Block until the running timer finishes, drawing one progress bar per
clock. Exits 0 when the timer completes and 1 when it is stopped, so it can
gate other commands.

Examples:
  clockset start Tea && clockset wait && echo "tea is ready"
  clockset wait --quiet`,
	Args: cobra.NoArgs,
	RunE: runWait,
}

func init() {
	waitCmd.Flags().BoolVarP(&waitFlagQuiet, "quiet", "q", false, "Do not draw progress bars")
	rootCmd.AddCommand(waitCmd)
}

// errRunStopped is returned when the awaited run ends before its end time.
var errRunStopped = errors.NewUserError("timer was stopped before it finished", "")

// segmentElapsed splits the elapsed time of a run across its clocks: full
// clocks before the current one, a partial current clock, zero after.
func segmentElapsed(clocks []model.ClockSegment, elapsed time.Duration) []int64 {
	out := make([]int64, len(clocks))
	left := elapsed.Milliseconds()
	for i, c := range clocks {
		d := c.DurationMs()
		switch {
		case left <= 0:
			return out
		case left >= d:
			out[i] = d
		default:
			out[i] = left
		}
		left -= d
	}
	return out
}

// terminalWidth returns a bar width that fits the terminal, or 0 when the
// output is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func newClockBars(p *mpb.Progress, run *model.TimerRun) []*mpb.Bar {
	style := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	n := len(run.Clocks)
	bars := make([]*mpb.Bar, n)
	for i, c := range run.Clocks {
		name := run.Name()
		if n > 1 {
			name = fmt.Sprintf("%s %s", run.Name(), model.Label(i+1, n))
		}
		bars[i] = p.New(c.DurationMs(),
			style,
			mpb.PrependDecorators(
				decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			),
			mpb.AppendDecorators(
				decor.OnComplete(
					decor.Any(func(s decor.Statistics) string {
						return timer.FormatDuration(time.Duration(s.Total-s.Current) * time.Millisecond)
					}, decor.WC{W: 6}), "done",
				),
			),
		)
	}
	return bars
}

func runWait(cmd *cobra.Command, args []string) error {
	client, err := ctx.Daemon()
	if err != nil {
		return err
	}

	callCtx, cancel := ctx.CallContext(cmd.Context())
	res, err := client.Restore(callCtx)
	cancel()
	if err != nil {
		return err
	}
	if res.State != timer.StateLive {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintStatus(res, nil)
		}
		ctx.CLIFormatter().PrintStatus(res, nil)
		return nil
	}
	run := res.Run

	var (
		progress *mpb.Progress
		bars     []*mpb.Bar
	)
	if !waitFlagQuiet && !ctx.IsJSON() {
		opts := []mpb.ContainerOption{mpb.WithOutput(ctx.Formatter.Writer), mpb.WithRefreshRate(100 * time.Millisecond)}
		if width := terminalWidth(ctx.Formatter.Writer); width > 0 {
			opts = append(opts, mpb.WithWidth(min(width/2, 64)))
		}
		progress = mpb.NewWithContext(cmd.Context(), opts...)
		bars = newClockBars(progress, run)
	}
	update := func(now time.Time) {
		for i, v := range segmentElapsed(run.Clocks, now.Sub(run.Start())) {
			if i < len(bars) {
				bars[i].SetCurrent(v)
			}
		}
	}
	finish := func() {
		if progress == nil {
			return
		}
		for _, b := range bars {
			if !b.Completed() {
				b.Abort(false)
			}
		}
		progress.Wait()
	}

	interval := ctx.Config.Runtime.Timer.RefreshInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			finish()
			return cmd.Context().Err()
		case n := <-notifications:
			ctx.Debugf("notification: %s", n.Message)
			if n.RunID != run.RunID || n.Type != model.NotifyRunComplete {
				continue
			}
		case now := <-ticker.C:
			update(now)
		}

		callCtx, cancel := ctx.CallContext(cmd.Context())
		res, err := client.Restore(callCtx)
		cancel()
		if err != nil {
			finish()
			return err
		}
		if res.State == timer.StateLive && res.Run.RunID == run.RunID {
			continue
		}

		completed := !time.Now().Before(run.End())
		update(time.Now())
		finish()
		if !completed {
			return errRunStopped
		}
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]string{"status": "complete", "runId": run.RunID})
		}
		ctx.CLIFormatter().Success(fmt.Sprintf("%s complete", run.Name()))
		return nil
	}
}
