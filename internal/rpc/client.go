package rpc

import (
	"context"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/notify"
	"github.com/manav03panchal/clockset/internal/timer"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	// OnNotify receives notifications pushed by the daemon.
	OnNotify func(n *model.Notification)
}

// Client calls the daemon.
type Client struct {
	cli *jrpc2.Client
}

// Dial connects to the daemon's socket at path.
func Dial(ctx context.Context, path string, opts *ClientOptions) (*Client, error) {
	conn, err := dial(ctx, path)
	if err != nil {
		return nil, errors.NewRecoverableError("could not reach the daemon", errors.Wrap(errors.ErrDaemonNotRunning, err.Error()), 0)
	}
	return NewClient(channel.Line(conn, conn), opts), nil
}

// DialTimeout is Dial bounded by timeout.
func DialTimeout(path string, timeout time.Duration, opts *ClientOptions) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return Dial(ctx, path, opts)
}

// NewClient creates a client on an open channel.
func NewClient(ch channel.Channel, opts *ClientOptions) *Client {
	copts := &jrpc2.ClientOptions{}
	if opts != nil && opts.OnNotify != nil {
		onNotify := opts.OnNotify
		copts.OnNotify = func(req *jrpc2.Request) {
			if req.Method() != notify.PushMethod {
				return
			}
			var n model.Notification
			if err := req.UnmarshalParams(&n); err != nil {
				logging.DebugLog("bad push notification", logging.KeyError, err)
				return
			}
			onNotify(&n)
		}
	}
	return &Client{cli: jrpc2.NewClient(ch, copts)}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.cli.Close()
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if err := c.cli.CallResult(ctx, method, params, result); err != nil {
		return fromRPCError(err)
	}
	return nil
}

// Version returns the daemon's version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var res VersionResult
	if err := c.call(ctx, MethodVersion, nil, &res); err != nil {
		return "", err
	}
	return res.Version, nil
}

// Health decodes the daemon's health report into out.
func (c *Client) Health(ctx context.Context, out any) error {
	return c.call(ctx, MethodHealth, nil, out)
}

// Start starts a run.
func (c *Client) Start(ctx context.Context, p *StartParams) (*model.TimerRun, error) {
	var run model.TimerRun
	if err := c.call(ctx, MethodStart, p, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Stop stops the current run.
func (c *Client) Stop(ctx context.Context) error {
	return c.call(ctx, MethodStop, nil, &EmptyResult{})
}

// Restore returns the run as the foreground should display it.
func (c *Client) Restore(ctx context.Context) (*timer.RestoreResult, error) {
	var res timer.RestoreResult
	if err := c.call(ctx, MethodRestore, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Status returns the restored run plus the pending wake-ups.
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	res := &StatusResult{RestoreResult: &timer.RestoreResult{}}
	if err := c.call(ctx, MethodStatus, nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

// SaveProgress persists the foreground's progress percentage.
func (c *Client) SaveProgress(ctx context.Context, progress float64) error {
	return c.call(ctx, MethodSaveProgress, &ProgressParams{Progress: progress}, &EmptyResult{})
}

// Select records the selected preset. An empty id clears it.
func (c *Client) Select(ctx context.Context, presetID string) error {
	return c.call(ctx, MethodSelect, &SelectParams{PresetID: presetID}, &EmptyResult{})
}

// ListPresets returns the shared presets.
func (c *Client) ListPresets(ctx context.Context) ([]*model.Preset, error) {
	var res PresetList
	if err := c.call(ctx, MethodPresetList, nil, &res); err != nil {
		return nil, err
	}
	return res.Presets, nil
}

// GetPreset returns one shared preset.
func (c *Client) GetPreset(ctx context.Context, id string) (*model.Preset, error) {
	var p model.Preset
	if err := c.call(ctx, MethodPresetGet, &IDParam{ID: id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePreset writes a shared preset and returns it as stored.
func (c *Client) SavePreset(ctx context.Context, p *model.Preset) (*model.Preset, error) {
	var saved model.Preset
	if err := c.call(ctx, MethodPresetSave, p, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeletePreset removes a shared preset.
func (c *Client) DeletePreset(ctx context.Context, id string) error {
	return c.call(ctx, MethodPresetDelete, &IDParam{ID: id}, &EmptyResult{})
}

// SharedPresets adapts a Client to the preset store's shared copy.
type SharedPresets struct {
	c       *Client
	timeout time.Duration
}

// NewSharedPresets wraps c. Each call is bounded by timeout.
func NewSharedPresets(c *Client, timeout time.Duration) *SharedPresets {
	return &SharedPresets{c: c, timeout: timeout}
}

// List implements presets.Shared.
func (s *SharedPresets) List() ([]*model.Preset, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.c.ListPresets(ctx)
}

// Put implements presets.Shared.
func (s *SharedPresets) Put(p *model.Preset) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, err := s.c.SavePreset(ctx, p)
	return err
}

// Delete implements presets.Shared.
func (s *SharedPresets) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.c.DeletePreset(ctx, id)
}
