package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalHandler waits for a shutdown signal.
type SignalHandler struct {
	signals chan os.Signal
	done    chan struct{}
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler() *SignalHandler {
	return &SignalHandler{
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
}

// Setup registers for SIGINT, SIGTERM and SIGHUP.
func (h *SignalHandler) Setup() {
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

// Wait blocks until a signal arrives, ctx ends or Stop is called. Only the
// signal case returns non-nil.
func (h *SignalHandler) Wait(ctx context.Context) os.Signal {
	select {
	case sig := <-h.signals:
		return sig
	case <-ctx.Done():
		return nil
	case <-h.done:
		return nil
	}
}

// Stop releases a pending Wait.
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
	close(h.done)
}

// Cleanup unregisters the handler.
func (h *SignalHandler) Cleanup() {
	signal.Stop(h.signals)
}
