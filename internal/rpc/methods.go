package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/creachadair/jrpc2"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/timer"
	"github.com/manav03panchal/clockset/internal/validate"
)

// Method names.
const (
	MethodVersion      = "system.version"
	MethodHealth       = "system.health"
	MethodStart        = "timer.start"
	MethodStop         = "timer.stop"
	MethodRestore      = "timer.restore"
	MethodStatus       = "timer.status"
	MethodSaveProgress = "timer.saveProgress"
	MethodSelect       = "timer.select"
	MethodPresetList   = "preset.list"
	MethodPresetGet    = "preset.get"
	MethodPresetSave   = "preset.save"
	MethodPresetDelete = "preset.delete"
)

// Custom JSON-RPC error codes.
const (
	codePresetNotFound = jrpc2.Code(-32001)
	codeNotRunning     = jrpc2.Code(-32002)
	codeInvalidParams  = jrpc2.Code(-32602)
	codeInternal       = jrpc2.Code(-32603)
)

// VersionResult is the response for system.version.
type VersionResult struct {
	Version string `json:"version"`
}

// StartParams is the input for timer.start. Exactly one way of naming the
// clocks is used, checked in this order: Preset, PresetID, Clocks,
// DurationMs.
type StartParams struct {
	Preset     *model.Preset        `json:"preset,omitempty"`
	PresetID   string               `json:"presetId,omitempty"`
	PresetName string               `json:"presetName,omitempty"`
	Clocks     []model.ClockSegment `json:"clocks,omitempty"`
	DurationMs int64                `json:"durationMs,omitempty"`
}

// StatusResult is the response for timer.status.
type StatusResult struct {
	*timer.RestoreResult
	Wakeups []string `json:"wakeups"`
}

// ProgressParams is the input for timer.saveProgress.
type ProgressParams struct {
	Progress float64 `json:"progress"`
}

// SelectParams is the input for timer.select.
type SelectParams struct {
	PresetID string `json:"presetId"`
}

// IDParam is a common input with just a preset id.
type IDParam struct {
	ID string `json:"id"`
}

// PresetList is the response for preset.list.
type PresetList struct {
	Presets []*model.Preset `json:"presets"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

func (s *Server) systemVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{Version: s.version}, nil
}

func (s *Server) timerStart(ctx context.Context, p *StartParams) (*model.TimerRun, error) {
	preset, err := s.resolvePreset(p)
	if err != nil {
		return nil, toRPCError(err)
	}
	run, err := s.engine.Start(ctx, preset)
	if err != nil {
		return nil, toRPCError(err)
	}
	return run, nil
}

func (s *Server) resolvePreset(p *StartParams) (*model.Preset, error) {
	switch {
	case p == nil:
	case p.Preset != nil:
		return p.Preset, nil
	case p.PresetID != "":
		preset, err := s.presets.Get(p.PresetID)
		if err != nil {
			return nil, errors.Invalid(errors.ErrPresetNotFound, "presetId", p.PresetID)
		}
		return preset, nil
	case len(p.Clocks) > 0:
		name := validate.SanitizePresetName(p.PresetName)
		if name == "" {
			name = model.QuickPresetName
		}
		return &model.Preset{Name: name, Clocks: p.Clocks}, nil
	case p.DurationMs > 0:
		preset, ok := model.QuickPreset(time.Duration(p.DurationMs) * time.Millisecond)
		if !ok {
			return nil, errors.Invalid(errors.ErrClockOutOfRange, "durationMs", "")
		}
		if name := validate.SanitizePresetName(p.PresetName); name != "" {
			preset.Name = name
		}
		// Ad-hoc runs are never selected.
		preset.ID, preset.Key = "", ""
		return preset, nil
	}
	return nil, errors.NewUserError("timer.start needs a preset, presetId, clocks or durationMs", "")
}

func (s *Server) timerStop(ctx context.Context) (*EmptyResult, error) {
	if err := s.engine.Stop(ctx); err != nil {
		return nil, toRPCError(err)
	}
	return &EmptyResult{}, nil
}

func (s *Server) timerRestore(ctx context.Context) (*timer.RestoreResult, error) {
	return s.engine.Restore(ctx), nil
}

func (s *Server) timerStatus(ctx context.Context) (*StatusResult, error) {
	res := &StatusResult{RestoreResult: s.engine.Restore(ctx), Wakeups: []string{}}
	if s.wakeups != nil {
		if ids := s.wakeups.Pending(); ids != nil {
			res.Wakeups = ids
		}
	}
	return res, nil
}

func (s *Server) timerSaveProgress(ctx context.Context, p *ProgressParams) (*EmptyResult, error) {
	if p == nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "progress is required"}
	}
	if err := s.engine.SaveProgress(ctx, p.Progress); err != nil {
		return nil, toRPCError(err)
	}
	return &EmptyResult{}, nil
}

func (s *Server) timerSelect(ctx context.Context, p *SelectParams) (*EmptyResult, error) {
	id := ""
	if p != nil {
		id = p.PresetID
	}
	if err := s.engine.Select(ctx, id); err != nil {
		return nil, toRPCError(err)
	}
	return &EmptyResult{}, nil
}

func (s *Server) presetList(_ context.Context) (*PresetList, error) {
	list, err := s.presets.List()
	if err != nil {
		return nil, toRPCError(errors.NewSystemErrorWithOp("list presets", "could not read presets", err))
	}
	if list == nil {
		list = []*model.Preset{}
	}
	return &PresetList{Presets: list}, nil
}

func (s *Server) presetGet(_ context.Context, p *IDParam) (*model.Preset, error) {
	if p == nil || p.ID == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "id is required"}
	}
	preset, err := s.presets.Get(p.ID)
	if err != nil {
		return nil, toRPCError(errors.Invalid(errors.ErrPresetNotFound, "id", p.ID))
	}
	return preset, nil
}

func (s *Server) presetSave(_ context.Context, p *model.Preset) (*model.Preset, error) {
	if p == nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "preset is required"}
	}
	p.Name = validate.SanitizePresetName(p.Name)
	if err := validate.Preset(p); err != nil {
		return nil, toRPCError(err)
	}
	if p.ID == "" {
		fresh := model.NewPreset(p.Name, p.Clocks)
		p.ID, p.Key, p.CreatedAt = fresh.ID, fresh.Key, fresh.CreatedAt
	}
	if err := s.presets.Put(p); err != nil {
		return nil, toRPCError(errors.NewSystemErrorWithOp("save preset", "could not write preset", err))
	}
	logging.DebugLog("shared preset saved", logging.KeyPresetID, p.ID, logging.KeyPreset, p.Name)
	return p, nil
}

func (s *Server) presetDelete(_ context.Context, p *IDParam) (*EmptyResult, error) {
	if p == nil || p.ID == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "id is required"}
	}
	if err := s.presets.Delete(p.ID); err != nil {
		return nil, toRPCError(errors.NewSystemErrorWithOp("delete preset", "could not delete preset", err))
	}
	return &EmptyResult{}, nil
}

// toRPCError maps domain errors onto JSON-RPC error codes.
func toRPCError(err error) error {
	var rpcErr *jrpc2.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &rpcErr):
		return err
	case errors.Is(err, errors.ErrPresetNotFound):
		return &jrpc2.Error{Code: codePresetNotFound, Message: err.Error()}
	case errors.Is(err, errors.ErrNotRunning):
		return &jrpc2.Error{Code: codeNotRunning, Message: err.Error()}
	case errors.IsUserError(err):
		return &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	default:
		return &jrpc2.Error{Code: codeInternal, Message: err.Error()}
	}
}

// fromRPCError turns an error returned by a call back into a domain error
// so callers can match sentinels with errors.Is.
func fromRPCError(err error) error {
	var rpcErr *jrpc2.Error
	if !errors.As(err, &rpcErr) {
		return errors.NewRecoverableError("daemon request failed", fmt.Errorf("%w: %w", errors.ErrDaemonNotRunning, err), 0)
	}
	switch rpcErr.Code {
	case codePresetNotFound:
		return errors.Invalid(errors.ErrPresetNotFound, "", "")
	case codeNotRunning:
		return errors.ErrNotRunning
	case codeInvalidParams:
		return errors.NewUserError(rpcErr.Message, "")
	default:
		return errors.NewSystemError(rpcErr.Message, err)
	}
}
