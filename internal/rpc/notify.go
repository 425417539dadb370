package rpc

import (
	"context"
	"sync"

	"github.com/creachadair/jrpc2"

	"github.com/manav03panchal/clockset/internal/logging"
)

// RPCNotifier maintains the set of connected jrpc2 servers and broadcasts
// push notifications to all of them.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
}

// NewRPCNotifier creates a new notifier.
func NewRPCNotifier() *RPCNotifier {
	return &RPCNotifier{servers: make(map[*jrpc2.Server]struct{})}
}

// Register adds a server to the broadcast set.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to every registered server. Servers
// that fail to receive it are unregistered.
func (n *RPCNotifier) Broadcast(ctx context.Context, method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(ctx, method, params); err != nil {
			logging.DebugLog("rpc push failed", logging.KeyMethod, method, logging.KeyError, err)
			failed = append(failed, srv)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered servers.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}
