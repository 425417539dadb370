package output

import (
	"time"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/timer"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// RunOutput represents a run record in JSON output.
type RunOutput struct {
	RunID            string   `json:"run_id,omitempty"`
	PresetName       string   `json:"preset_name,omitempty"`
	Clocks           []string `json:"clocks,omitempty"`
	StartedAt        string   `json:"started_at,omitempty"`
	EndsAt           string   `json:"ends_at,omitempty"`
	TotalMs          int64    `json:"total_ms,omitempty"`
	SelectedPresetID string   `json:"selected_preset_id,omitempty"`
	IsRunning        bool     `json:"is_running"`
}

// NewRunOutput creates a RunOutput from a run record.
func NewRunOutput(r *model.TimerRun) *RunOutput {
	if r == nil {
		return nil
	}
	out := &RunOutput{
		RunID:            r.RunID,
		PresetName:       r.Name(),
		SelectedPresetID: r.SelectedPreset(),
		IsRunning:        r.Active(),
	}
	for _, c := range r.Clocks {
		out.Clocks = append(out.Clocks, c.String())
	}
	if r.TotalDuration != nil {
		out.TotalMs = *r.TotalDuration
	}
	if r.Active() {
		out.StartedAt = r.Start().UTC().Format(time.RFC3339)
		out.EndsAt = r.End().UTC().Format(time.RFC3339)
	}
	return out
}

// StatusResponse represents the status output in JSON.
type StatusResponse struct {
	Status      string     `json:"status"`
	Run         *RunOutput `json:"run,omitempty"`
	RemainingMs int64      `json:"remaining_ms"`
	Progress    float64    `json:"progress"`
	Clock       int        `json:"clock,omitempty"`
	Wakeups     []string   `json:"wakeups,omitempty"`
}

// StartResponse represents the start command output in JSON.
type StartResponse struct {
	Status string     `json:"status"`
	Run    *RunOutput `json:"run"`
}

// StopResponse represents the stop command output in JSON.
type StopResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PresetOutput represents a preset in JSON output.
type PresetOutput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Clocks    []string `json:"clocks"`
	TotalMs   int64    `json:"total_ms"`
	CreatedAt string   `json:"created_at,omitempty"`
	Selected  bool     `json:"selected,omitempty"`
}

// NewPresetOutput creates a PresetOutput from a Preset.
func NewPresetOutput(p *model.Preset) *PresetOutput {
	out := &PresetOutput{
		ID:      p.ID,
		Name:    p.Name,
		Clocks:  make([]string, len(p.Clocks)),
		TotalMs: p.TotalDurationMs(),
	}
	for i, c := range p.Clocks {
		out.Clocks[i] = c.String()
	}
	if !p.CreatedAt.IsZero() {
		out.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// PresetsResponse represents the preset list output in JSON.
type PresetsResponse struct {
	Presets []*PresetOutput `json:"presets"`
	Count   int             `json:"count"`
}

// NewPresetsResponse builds a PresetsResponse, marking the selected id.
func NewPresetsResponse(presets []*model.Preset, selected string) *PresetsResponse {
	out := make([]*PresetOutput, len(presets))
	for i, p := range presets {
		out[i] = NewPresetOutput(p)
		out[i].Selected = p.ID == selected
	}
	return &PresetsResponse{Presets: out, Count: len(out)}
}

// PrintStatus outputs a restore result in JSON format.
func (j *JSONFormatter) PrintStatus(res *timer.RestoreResult, wakeups []string) error {
	resp := StatusResponse{Status: string(timer.StateIdle), Wakeups: wakeups}
	if res != nil {
		resp.Status = string(res.State)
		resp.Run = NewRunOutput(res.Run)
		resp.RemainingMs = res.RemainingMs
		resp.Progress = res.Progress
		resp.Clock = res.Clock
	}
	return j.JSON(resp)
}

// PrintStart outputs a start response in JSON format.
func (j *JSONFormatter) PrintStart(run *model.TimerRun) error {
	return j.JSON(StartResponse{Status: "started", Run: NewRunOutput(run)})
}

// PrintStop outputs a stop response in JSON format.
func (j *JSONFormatter) PrintStop() error {
	return j.JSON(StopResponse{Status: "stopped"})
}

// PrintPresets outputs the preset list in JSON format.
func (j *JSONFormatter) PrintPresets(presets []*model.Preset, selected string) error {
	return j.JSON(NewPresetsResponse(presets, selected))
}

// PrintPreset outputs one preset in JSON format.
func (j *JSONFormatter) PrintPreset(p *model.Preset) error {
	return j.JSON(NewPresetOutput(p))
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(status, errMsg, message string) error {
	return j.JSON(ErrorResponse{
		Status:  status,
		Error:   errMsg,
		Message: message,
	})
}
