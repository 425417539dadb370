package nativehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/rpc"
	"github.com/manav03panchal/clockset/internal/timer"
)

// Backend is the part of the daemon client the host uses.
type Backend interface {
	Start(ctx context.Context, p *rpc.StartParams) (*model.TimerRun, error)
	Stop(ctx context.Context) error
	Restore(ctx context.Context) (*timer.RestoreResult, error)
}

// Host bridges the extension to the daemon.
type Host struct {
	backend Backend
	stdin   io.Reader
	stdout  io.Writer
}

// NewHost creates a host on os.Stdin and os.Stdout.
func NewHost(backend Backend) *Host {
	return NewHostIO(backend, os.Stdin, os.Stdout)
}

// NewHostIO creates a host on the given streams.
func NewHostIO(backend Backend, in io.Reader, out io.Writer) *Host {
	return &Host{backend: backend, stdin: in, stdout: out}
}

// Run answers messages until stdin reaches EOF or ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		err := h.processOneMessage(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) processOneMessage(ctx context.Context) error {
	data, err := ReadMessage(h.stdin)
	if err != nil {
		return err
	}

	var resp Response
	if req, err := ParseRequest(data); err != nil {
		resp = failure(fmt.Errorf("invalid request: %w", err))
	} else {
		resp = h.Handle(ctx, req)
	}
	return WriteMessage(h.stdout, encode(resp))
}

// Handle answers one request. It never panics on bad input; anything it
// cannot act on gets success=false.
func (h *Host) Handle(ctx context.Context, req *Request) Response {
	switch req.Action {
	case ActionStartTimer:
		params := &rpc.StartParams{PresetName: req.PresetName}
		switch {
		case len(req.Clocks) > 0:
			params.Clocks = req.Clocks
		case req.PresetID != "":
			params.PresetID = req.PresetID
		case req.Duration > 0:
			params.DurationMs = req.Duration
		default:
			return failure(errors.New("duration or clocks required"))
		}
		run, err := h.backend.Start(ctx, params)
		if err != nil {
			logging.Warn("native startTimer rejected", logging.KeyError, err)
			return failure(err)
		}
		logging.DebugLog("native startTimer", logging.KeyRunID, run.RunID)
		return Response{Success: true}

	case ActionStopTimer:
		if err := h.backend.Stop(ctx); err != nil {
			return failure(err)
		}
		return Response{Success: true}

	case ActionGetState:
		state, err := h.backend.Restore(ctx)
		if err != nil {
			return failure(err)
		}
		return Response{Success: true, State: state}

	default:
		return failure(fmt.Errorf("unknown action: %q", req.Action))
	}
}
