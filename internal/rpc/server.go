// Package rpc exposes the daemon's timer engine and shared presets over
// JSON-RPC 2.0, on a local socket and optionally on a loopback websocket.
package rpc

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/timer"
)

// PresetStore is the daemon's shared preset copy.
type PresetStore interface {
	List() ([]*model.Preset, error)
	Get(id string) (*model.Preset, error)
	Put(p *model.Preset) error
	Delete(id string) error
}

// PendingLister reports the wake-ups still waiting to fire.
type PendingLister interface {
	Pending() []string
}

// Config holds configuration for the RPC server.
type Config struct {
	Version string
	Secret  string // bearer token for the HTTP endpoints; empty rejects all

	// Health backs system.health. The method is absent when nil.
	Health func() any
}

// Server serves the method table on every accepted connection.
type Server struct {
	methods  handler.Map
	engine   *timer.Engine
	presets  PresetStore
	wakeups  PendingLister
	notifier *RPCNotifier
	version  string
	secret   string
	bridge   jhttp.Bridge

	mu     sync.Mutex
	active map[*jrpc2.Server]struct{}
	wg     sync.WaitGroup
}

// NewServer creates a server. wakeups may be nil.
func NewServer(cfg *Config, engine *timer.Engine, presets PresetStore, wakeups PendingLister) *Server {
	s := &Server{
		engine:   engine,
		presets:  presets,
		wakeups:  wakeups,
		notifier: NewRPCNotifier(),
		version:  cfg.Version,
		secret:   cfg.Secret,
		active:   make(map[*jrpc2.Server]struct{}),
	}

	s.methods = handler.Map{
		MethodVersion:      handler.New(s.systemVersion),
		MethodStart:        handler.New(s.timerStart),
		MethodStop:         handler.New(s.timerStop),
		MethodRestore:      handler.New(s.timerRestore),
		MethodStatus:       handler.New(s.timerStatus),
		MethodSaveProgress: handler.New(s.timerSaveProgress),
		MethodSelect:       handler.New(s.timerSelect),
		MethodPresetList:   handler.New(s.presetList),
		MethodPresetGet:    handler.New(s.presetGet),
		MethodPresetSave:   handler.New(s.presetSave),
		MethodPresetDelete: handler.New(s.presetDelete),
	}
	if cfg.Health != nil {
		health := cfg.Health
		s.methods[MethodHealth] = handler.New(func(context.Context) (any, error) {
			return health(), nil
		})
	}
	s.bridge = jhttp.NewBridge(s.methods, nil)
	return s
}

// Notifier returns the push broadcaster for connected clients.
func (s *Server) Notifier() *RPCNotifier {
	return s.notifier
}

// Serve accepts connections on l until ctx is cancelled or l fails.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.ServeChannel(channel.Line(conn, conn))
	}
}

// ServeChannel starts a jrpc2 server on ch and registers it for pushes.
// It returns without waiting for the channel to close.
func (s *Server) ServeChannel(ch channel.Channel) *jrpc2.Server {
	srv := jrpc2.NewServer(s.methods, &jrpc2.ServerOptions{AllowPush: true}).Start(ch)
	s.notifier.Register(srv)

	s.mu.Lock()
	s.active[srv] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.Wait(); err != nil {
			logging.DebugLog("rpc connection closed", logging.KeyError, err)
		}
		s.notifier.Unregister(srv)
		s.mu.Lock()
		delete(s.active, srv)
		s.mu.Unlock()
	}()
	return srv
}

// Handler returns the HTTP endpoints: POST /jsonrpc and the /jsonrpc/ws
// websocket. Both require the bearer secret.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/jsonrpc", requireToken(s.secret, s.bridge))
	mux.Handle("/jsonrpc/ws", requireToken(s.secret, http.HandlerFunc(s.handleWebSocket)))
	return mux
}

// Close stops every connection and waits for them to drain.
func (s *Server) Close() {
	s.mu.Lock()
	servers := make([]*jrpc2.Server, 0, len(s.active))
	for srv := range s.active {
		servers = append(servers, srv)
	}
	s.mu.Unlock()

	for _, srv := range servers {
		srv.Stop()
	}
	s.wg.Wait()
	_ = s.bridge.Close()
}
