//go:build !windows

package runtime

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/rpc"
	"github.com/manav03panchal/clockset/internal/storage"
	"github.com/manav03panchal/clockset/internal/timer"
)

type memWakeups struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func (m *memWakeups) Register(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = at
}

func (m *memWakeups) Cancel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, id)
}

func (m *memWakeups) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func TestNewConnectsToDaemon(t *testing.T) {
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	wakeups := &memWakeups{ids: make(map[string]time.Time)}
	shared := storage.NewPresetRepo(db)
	engine := timer.NewEngine(storage.NewRunRepo(db), wakeups, nil)
	srv := rpc.NewServer(&rpc.Config{Version: "test"}, engine, shared, wakeups)

	sock := filepath.Join(t.TempDir(), "d.sock")
	l, err := rpc.Listen(sock)
	require.NoError(t, err)

	serveCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(serveCtx, l)
	defer srv.Close()

	t.Setenv("CLOCKSET_SOCKET", sock)
	ctx, err := New(Options{ConfigPath: testConfigPath, InMemory: true, Fs: afero.NewMemMapFs(), Connect: true})
	require.NoError(t, err)
	defer ctx.Close()

	client, err := ctx.Daemon()
	require.NoError(t, err)

	callCtx, done := ctx.CallContext(context.Background())
	defer done()
	version, err := client.Version(callCtx)
	require.NoError(t, err)
	assert.Equal(t, "test", version)

	// A save through the context reaches the daemon's shared copy.
	p := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)})
	require.NoError(t, ctx.Presets.Save(p))

	list, err := shared.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)
}
