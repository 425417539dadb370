package timer

import (
	"math"
	"time"

	"github.com/manav03panchal/clockset/internal/model"
)

// ComputeRemaining returns max(0, endTime-now). The second result is false
// when the record does not describe a running timer.
func ComputeRemaining(run *model.TimerRun, now time.Time) (time.Duration, bool) {
	if !run.Active() {
		return 0, false
	}
	remaining := *run.EndTime - now.UnixMilli()
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining) * time.Millisecond, true
}

// ComputeProgressPercent returns remaining/total*100 clamped to [0, 100],
// or 0 when not running.
func ComputeProgressPercent(run *model.TimerRun, now time.Time) float64 {
	remaining, ok := ComputeRemaining(run, now)
	if !ok {
		return 0
	}
	return ClampPercent(float64(remaining.Milliseconds()) / float64(*run.TotalDuration) * 100)
}

// ClampPercent clamps p to [0, 100]. NaN becomes 0.
func ClampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// ComputeAngularPosition returns the angle in radians of the marker for
// clock i (0-based) on a circular indicator. Zero is 3 o'clock, 12 o'clock is
// -π/2 and angles grow clockwise. It depends only on clocks, so the marker
// lands where the matching wake-up fires.
func ComputeAngularPosition(clocks []model.ClockSegment, i int) (float64, bool) {
	if i < 0 || i >= len(clocks) {
		return 0, false
	}
	sums := PrefixSums(clocks)
	total := sums[len(sums)-1]
	if total <= 0 {
		return 0, false
	}
	position := float64(sums[i]) / float64(total)
	return (position - 0.25) * 2 * math.Pi, true
}

// MarkerPositions returns the angular position of every clock boundary.
func MarkerPositions(clocks []model.ClockSegment) []float64 {
	angles := make([]float64, 0, len(clocks))
	for i := range clocks {
		a, ok := ComputeAngularPosition(clocks, i)
		if !ok {
			return nil
		}
		angles = append(angles, a)
	}
	return angles
}

// CurrentClock returns the 1-based position of the clock that is counting
// down at now. Zero-length clocks are passed over.
func CurrentClock(run *model.TimerRun, now time.Time) (int, bool) {
	if !run.Active() || len(run.Clocks) == 0 {
		return 0, false
	}
	elapsed := now.UnixMilli() - run.Start().UnixMilli()
	sums := PrefixSums(run.Clocks)
	for i, sum := range sums {
		if elapsed < sum {
			return i + 1, true
		}
	}
	return len(sums), true
}
