// Package timer implements the clockset countdown engine: start and stop of
// the single global run, wake-up handling, progress math and restore.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/storage"
	"github.com/manav03panchal/clockset/internal/validate"
)

// Store persists the run record. Update must apply fn and write the result
// atomically; storage.ErrNoChange from fn skips the write.
type Store interface {
	Load() (*model.TimerRun, error)
	Update(fn func(run *model.TimerRun) error) (*model.TimerRun, error)
}

// WakeupScheduler registers and cancels time-triggered callbacks.
type WakeupScheduler interface {
	Register(id string, at time.Time)
	Cancel(id string)
}

// Notifier receives completion and milestone notifications.
type Notifier interface {
	Emit(ctx context.Context, n *model.Notification)
}

// RunState is the outcome of Restore.
type RunState string

const (
	StateIdle     RunState = "idle"
	StateLive     RunState = "live"
	StateResolved RunState = "resolved"
)

// RestoreResult describes the run as seen by the foreground.
type RestoreResult struct {
	State       RunState        `json:"state"`
	Run         *model.TimerRun `json:"run"`
	RemainingMs int64           `json:"remainingMs"`
	Progress    float64         `json:"progress"`
	Clock       int             `json:"clock,omitempty"`
}

// Remaining returns RemainingMs as a duration.
func (r *RestoreResult) Remaining() time.Duration {
	return time.Duration(r.RemainingMs) * time.Millisecond
}

// Engine owns the single global run. All operations are serialized, and
// wake-up callbacks enter the same lock.
type Engine struct {
	mu       sync.Mutex
	store    Store
	wakeups  WakeupScheduler
	notifier Notifier
	now      func() time.Time
	newRunID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRunIDs overrides run id generation.
func WithRunIDs(fn func() string) Option {
	return func(e *Engine) { e.newRunID = fn }
}

// NewEngine creates an engine. notifier may be nil.
func NewEngine(store Store, wakeups WakeupScheduler, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		wakeups:  wakeups,
		notifier: notifier,
		now:      time.Now,
		newRunID: newRunID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a run of preset, replacing any active run. The previous run's
// wake-ups are cancelled before the new set of n+1 is registered.
func (e *Engine) Start(ctx context.Context, preset *model.Preset) (*model.TimerRun, error) {
	if err := validate.Preset(preset); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	runID := e.newRunID()
	start := e.now()
	total := model.TotalDurationMs(preset.Clocks)
	end := start.UnixMilli() + total

	var prev *model.TimerRun
	run, err := e.store.Update(func(run *model.TimerRun) error {
		prev = run.Clone()
		run.RunID = runID
		run.IsRunning = true
		run.EndTime = model.Ptr(end)
		run.TotalDuration = model.Ptr(total)
		run.PresetName = model.Ptr(preset.Name)
		run.Clocks = append([]model.ClockSegment(nil), preset.Clocks...)
		run.TimerProgress = 100
		if preset.ID != "" {
			run.SelectedPresetID = model.Ptr(preset.ID)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("start timer", "could not save run", err)
	}

	e.cancelRun(prev)
	for _, w := range Schedule(runID, time.UnixMilli(start.UnixMilli()), run.Clocks) {
		e.wakeups.Register(w.ID, w.At)
	}

	logging.InfoContext(ctx, "timer started",
		logging.KeyRunID, runID,
		logging.KeyPreset, preset.Name,
		logging.KeyCount, len(run.Clocks)+1,
	)
	return run.Clone(), nil
}

// Stop cancels every wake-up of the current run and resets the record. With
// no active run it succeeds without writing.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var prev *model.TimerRun
	_, err := e.store.Update(func(run *model.TimerRun) error {
		prev = run.Clone()
		if !run.Active() {
			return storage.ErrNoChange
		}
		run.Reset()
		return nil
	})
	if err != nil {
		return errors.NewSystemErrorWithOp("stop timer", "could not reset run", err)
	}

	e.cancelRun(prev)
	if prev.Active() {
		logging.InfoContext(ctx, "timer stopped", logging.KeyRunID, prev.RunID)
	}
	return nil
}

// HandleWakeup reacts to a fired wake-up. Ids that do not belong to the
// current run are ignored. The first of the final milestone and the
// completion to fire resolves the run; the other finds it gone.
func (e *Engine) HandleWakeup(ctx context.Context, id string) {
	w, ok := ParseWakeupID(id)
	if !ok {
		logging.WarnContext(ctx, "ignoring unknown wake-up", logging.KeyWakeup, id)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var (
		prev     *model.TimerRun
		resolved bool
	)
	_, err := e.store.Update(func(run *model.TimerRun) error {
		prev = run.Clone()
		if !run.Active() || run.RunID != w.RunID {
			return storage.ErrNoChange
		}
		final := w.Kind == KindComplete || w.Index >= len(run.Clocks) || now.UnixMilli() >= *run.EndTime
		if !final {
			return storage.ErrNoChange
		}
		run.Reset()
		resolved = true
		return nil
	})
	if err != nil {
		logging.ErrorContext(ctx, "wake-up handling failed", logging.KeyWakeup, id, logging.KeyError, err)
		return
	}

	if !prev.Active() || prev.RunID != w.RunID {
		logging.DebugLog("stale wake-up", logging.KeyWakeup, id)
		return
	}

	n := len(prev.Clocks)
	if resolved {
		e.cancelRun(prev)
		e.emit(ctx, model.NewRunComplete(prev.RunID, prev.Name(), n, n))
		logging.InfoContext(ctx, "timer complete", logging.KeyRunID, prev.RunID, logging.KeyPreset, prev.Name())
		return
	}
	e.emit(ctx, model.NewMilestone(prev.RunID, prev.Name(), w.Index, n))
}

// Restore reads the persisted run. A live run is reported with its
// remaining time, an overdue run is resolved before returning, and an idle
// record reports the last saved progress. Store failures degrade to Idle.
func (e *Engine) Restore(ctx context.Context) *RestoreResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	run, err := e.store.Load()
	if err != nil {
		logging.WarnContext(ctx, "could not load run, assuming idle", logging.KeyError, err)
		return &RestoreResult{State: StateIdle, Run: model.NewTimerRun()}
	}

	if !run.Active() {
		return &RestoreResult{State: StateIdle, Run: run, Progress: ClampPercent(run.TimerProgress)}
	}

	if now.UnixMilli() < *run.EndTime {
		remaining, _ := ComputeRemaining(run, now)
		clock, _ := CurrentClock(run, now)
		return &RestoreResult{
			State:       StateLive,
			Run:         run,
			RemainingMs: remaining.Milliseconds(),
			Progress:    ComputeProgressPercent(run, now),
			Clock:       clock,
		}
	}

	resolved, err := e.resolveOverdue(ctx, now)
	if err != nil {
		logging.WarnContext(ctx, "could not resolve overdue run", logging.KeyError, err)
		return &RestoreResult{State: StateIdle, Run: model.NewTimerRun()}
	}
	if resolved == nil {
		// Another caller resolved it between Load and Update.
		return &RestoreResult{State: StateIdle, Run: model.NewTimerRun()}
	}
	return &RestoreResult{State: StateResolved, Run: resolved}
}

// Resume re-registers the future wake-ups of a persisted live run, for use
// when the wake-up scheduler has lost its state. Milestones already in the
// past are skipped and an overdue run is resolved.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	run, err := e.store.Update(func(run *model.TimerRun) error {
		if !run.Active() || run.RunID != "" {
			return storage.ErrNoChange
		}
		run.RunID = e.newRunID()
		return nil
	})
	if err != nil {
		return errors.NewSystemErrorWithOp("resume timer", "could not load run", err)
	}
	if !run.Active() {
		return nil
	}

	if now.UnixMilli() >= *run.EndTime {
		_, err := e.resolveOverdue(ctx, now)
		return err
	}

	registered := 0
	for _, w := range RunSchedule(run) {
		if w.Kind == KindMilestone && !w.At.After(now) {
			continue
		}
		e.wakeups.Register(w.ID, w.At)
		registered++
	}
	logging.InfoContext(ctx, "timer resumed",
		logging.KeyRunID, run.RunID,
		logging.KeyPreset, run.Name(),
		logging.KeyCount, registered,
	)
	return nil
}

// SaveProgress persists the foreground's last-known progress, clamped to
// [0, 100].
func (e *Engine) SaveProgress(ctx context.Context, progress float64) error {
	progress = ClampPercent(progress)

	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.store.Update(func(run *model.TimerRun) error {
		if run.TimerProgress == progress {
			return storage.ErrNoChange
		}
		run.TimerProgress = progress
		return nil
	})
	if err != nil {
		return errors.NewSystemErrorWithOp("save progress", "could not save run", err)
	}
	return nil
}

// Select records presetID as the selected preset. An empty id clears it.
func (e *Engine) Select(ctx context.Context, presetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.store.Update(func(run *model.TimerRun) error {
		if run.SelectedPreset() == presetID {
			return storage.ErrNoChange
		}
		if presetID == "" {
			run.SelectedPresetID = nil
		} else {
			run.SelectedPresetID = model.Ptr(presetID)
		}
		return nil
	})
	if err != nil {
		return errors.NewSystemErrorWithOp("select preset", "could not save run", err)
	}
	logging.DebugLog("preset selected", logging.KeyPresetID, presetID)
	return nil
}

// resolveOverdue resets a run whose endTime has passed and emits its
// completion. It returns nil when the run was no longer overdue. Callers
// hold e.mu.
func (e *Engine) resolveOverdue(ctx context.Context, now time.Time) (*model.TimerRun, error) {
	var prev *model.TimerRun
	run, err := e.store.Update(func(run *model.TimerRun) error {
		if !run.Active() || now.UnixMilli() < *run.EndTime {
			return storage.ErrNoChange
		}
		prev = run.Clone()
		run.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}

	n := len(prev.Clocks)
	e.cancelRun(prev)
	e.emit(ctx, model.NewRunComplete(prev.RunID, prev.Name(), n, n))
	logging.InfoContext(ctx, "overdue timer resolved", logging.KeyRunID, prev.RunID, logging.KeyPreset, prev.Name())
	return run, nil
}

// cancelRun cancels every wake-up id of run, fired or not.
func (e *Engine) cancelRun(run *model.TimerRun) {
	if run == nil || run.RunID == "" {
		return
	}
	for _, id := range WakeupIDs(run.RunID, len(run.Clocks)) {
		e.wakeups.Cancel(id)
	}
}

func (e *Engine) emit(ctx context.Context, n *model.Notification) {
	if e.notifier == nil {
		return
	}
	e.notifier.Emit(ctx, n)
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
