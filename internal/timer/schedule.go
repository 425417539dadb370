package timer

import (
	"strconv"
	"strings"
	"time"

	"github.com/manav03panchal/clockset/internal/model"
)

// Wake-up id layout: "<runId>/m/<i>" for milestones, "<runId>/complete" for
// the overall completion.
const (
	wakeupSep       = "/"
	wakeupMilestone = "m"
	wakeupComplete  = "complete"
)

// WakeupKind distinguishes milestone wake-ups from the completion wake-up.
type WakeupKind int

const (
	KindMilestone WakeupKind = iota
	KindComplete
)

// Wakeup is one scheduled, time-triggered callback belonging to a run.
type Wakeup struct {
	ID    string
	RunID string
	Kind  WakeupKind
	Index int // 1-based clock position, zero for completion
	At    time.Time
}

// MilestoneID returns the wake-up id for clock position i (1-based).
func MilestoneID(runID string, i int) string {
	return runID + wakeupSep + wakeupMilestone + wakeupSep + strconv.Itoa(i)
}

// CompleteID returns the completion wake-up id for a run.
func CompleteID(runID string) string {
	return runID + wakeupSep + wakeupComplete
}

// ParseWakeupID splits a wake-up id. Ids that were not produced by
// MilestoneID or CompleteID return false.
func ParseWakeupID(id string) (Wakeup, bool) {
	parts := strings.Split(id, wakeupSep)
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] == wakeupComplete:
		return Wakeup{ID: id, RunID: parts[0], Kind: KindComplete}, true
	case len(parts) == 3 && parts[0] != "" && parts[1] == wakeupMilestone:
		i, err := strconv.Atoi(parts[2])
		if err != nil || i < 1 {
			return Wakeup{}, false
		}
		return Wakeup{ID: id, RunID: parts[0], Kind: KindMilestone, Index: i}, true
	}
	return Wakeup{}, false
}

// WakeupIDs lists every wake-up id of a run with n clocks: n milestones
// followed by the completion.
func WakeupIDs(runID string, n int) []string {
	if runID == "" {
		return nil
	}
	ids := make([]string, 0, n+1)
	for i := 1; i <= n; i++ {
		ids = append(ids, MilestoneID(runID, i))
	}
	return append(ids, CompleteID(runID))
}

// PrefixSums returns the cumulative duration in milliseconds after each
// clock. The last entry equals the total duration.
func PrefixSums(clocks []model.ClockSegment) []int64 {
	sums := make([]int64, len(clocks))
	var acc int64
	for i, c := range clocks {
		acc += c.DurationMs()
		sums[i] = acc
	}
	return sums
}

// Schedule computes the n+1 wake-ups of a run started at start. Milestones
// come first in clock order, then the completion. The final milestone and
// the completion share the same instant, endTime.
func Schedule(runID string, start time.Time, clocks []model.ClockSegment) []Wakeup {
	sums := PrefixSums(clocks)
	wakeups := make([]Wakeup, 0, len(clocks)+1)
	for i, sum := range sums {
		wakeups = append(wakeups, Wakeup{
			ID:    MilestoneID(runID, i+1),
			RunID: runID,
			Kind:  KindMilestone,
			Index: i + 1,
			At:    start.Add(time.Duration(sum) * time.Millisecond),
		})
	}
	var total int64
	if len(sums) > 0 {
		total = sums[len(sums)-1]
	}
	return append(wakeups, Wakeup{
		ID:    CompleteID(runID),
		RunID: runID,
		Kind:  KindComplete,
		At:    start.Add(time.Duration(total) * time.Millisecond),
	})
}

// RunSchedule recomputes the schedule of a persisted run from its start
// timestamp and clocks.
func RunSchedule(run *model.TimerRun) []Wakeup {
	if !run.Active() || run.RunID == "" {
		return nil
	}
	return Schedule(run.RunID, run.Start(), run.Clocks)
}
