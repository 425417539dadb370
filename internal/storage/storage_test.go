package storage

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/model"
)

// Helper to create an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	db, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupLocal(t *testing.T) *LocalStore {
	s, err := OpenLocal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// DB Tests
// =============================================================================

func TestOpenClose(t *testing.T) {
	t.Run("in_memory", func(t *testing.T) {
		db, err := Open(Options{InMemory: true})
		require.NoError(t, err)
		assert.Equal(t, "", db.Path())
		assert.NoError(t, db.Close())
	})

	t.Run("on_disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		db, err := Open(Options{Path: dir})
		require.NoError(t, err)
		assert.Equal(t, dir, db.Path())
		assert.NoError(t, db.Close())
		assert.DirExists(t, dir)
	})
}

func TestDefaultPath(t *testing.T) {
	assert.Contains(t, DefaultPath(), AppName)
	assert.Contains(t, DefaultLocalPath(), "local.db")
}

func TestCRUD(t *testing.T) {
	db := setupTestDB(t)

	p := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0)})
	require.NoError(t, db.Set(p))

	exists, err := db.Exists(p.GetKey())
	require.NoError(t, err)
	assert.True(t, exists)

	got := &model.Preset{}
	require.NoError(t, db.Get(p.GetKey(), got))
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.GetKey(), got.Key)

	keys, err := db.ListByPrefix(model.PrefixPreset + ":")
	require.NoError(t, err)
	assert.Equal(t, []string{p.GetKey()}, keys)

	require.NoError(t, db.Delete(p.GetKey()))
	err = db.Get(p.GetKey(), got)
	assert.True(t, IsErrKeyNotFound(err))
}

func TestDBUpdate(t *testing.T) {
	db := setupTestDB(t)

	t.Run("creates_missing", func(t *testing.T) {
		p := &model.Preset{}
		err := db.Update("preset:x", p, func(found bool) error {
			assert.False(t, found)
			p.Name = "created"
			return nil
		})
		require.NoError(t, err)

		got := &model.Preset{}
		require.NoError(t, db.Get("preset:x", got))
		assert.Equal(t, "created", got.Name)
	})

	t.Run("callback_error_aborts", func(t *testing.T) {
		p := &model.Preset{}
		boom := errors.New("boom")
		err := db.Update("preset:x", p, func(found bool) error {
			assert.True(t, found)
			p.Name = "changed"
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got := &model.Preset{}
		require.NoError(t, db.Get("preset:x", got))
		assert.Equal(t, "created", got.Name)
	})
}

// =============================================================================
// RunRepo Tests
// =============================================================================

func TestRunRepoLoadEmpty(t *testing.T) {
	repo := NewRunRepo(setupTestDB(t))

	run, err := repo.Load()
	require.NoError(t, err)
	assert.False(t, run.IsRunning)
	assert.Nil(t, run.EndTime)
}

func TestRunRepoSaveLoad(t *testing.T) {
	repo := NewRunRepo(setupTestDB(t))

	run := &model.TimerRun{
		RunID:         "r1",
		IsRunning:     true,
		EndTime:       model.Ptr(int64(1_000_000)),
		TotalDuration: model.Ptr(int64(300_000)),
		PresetName:    model.Ptr("Tea"),
		Clocks:        []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)},
	}
	require.NoError(t, repo.Save(run))

	got, err := repo.Load()
	require.NoError(t, err)
	assert.True(t, got.Active())
	assert.Equal(t, "Tea", got.Name())
	assert.Equal(t, run.Clocks, got.Clocks)
}

func TestRunRepoMalformedRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)

	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(model.KeyTimerRun), []byte(`{"isRunning": "yes"`))
	})
	require.NoError(t, err)

	run, err := repo.Load()
	require.NoError(t, err)
	assert.False(t, run.Active())

	updated, err := repo.Update(func(run *model.TimerRun) error {
		run.SelectedPresetID = model.Ptr("p1")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", updated.SelectedPreset())
}

func TestRunRepoUpdateNoChange(t *testing.T) {
	repo := NewRunRepo(setupTestDB(t))
	require.NoError(t, repo.Save(&model.TimerRun{TimerProgress: 40}))

	run, err := repo.Update(func(run *model.TimerRun) error {
		return ErrNoChange
	})
	require.NoError(t, err)
	assert.Equal(t, float64(40), run.TimerProgress)
}

func TestRunRepoConcurrentReadersNeverSeePartial(t *testing.T) {
	repo := NewRunRepo(setupTestDB(t))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			_, _ = repo.Update(func(run *model.TimerRun) error {
				if run.IsRunning {
					run.Reset()
					return nil
				}
				run.IsRunning = true
				run.EndTime = model.Ptr(int64(i + 1000))
				run.TotalDuration = model.Ptr(int64(1000))
				return nil
			})
		}
	}()

	for i := 0; i < 200; i++ {
		run, err := repo.Load()
		require.NoError(t, err)
		if run.IsRunning {
			assert.NotNil(t, run.EndTime)
			assert.NotNil(t, run.TotalDuration)
		}
	}
	close(stop)
	wg.Wait()
}

// =============================================================================
// PresetRepo Tests
// =============================================================================

func TestPresetRepo(t *testing.T) {
	repo := NewPresetRepo(setupTestDB(t))

	first := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)})
	first.CreatedAt = time.Now().Add(-time.Minute)
	second := model.NewPreset("Eggs", []model.ClockSegment{model.NewClock(0, 7, 0)})

	require.NoError(t, repo.Put(second))
	require.NoError(t, repo.Put(first))

	presets, err := repo.List()
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "Tea", presets[0].Name)
	assert.Equal(t, first.Clocks, presets[0].Clocks)

	got, err := repo.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eggs", got.Name)

	require.NoError(t, repo.Delete(second.ID))
	require.NoError(t, repo.Delete(second.ID))

	_, err = repo.Get(second.ID)
	assert.True(t, IsErrKeyNotFound(err))
}

// =============================================================================
// LocalStore Tests
// =============================================================================

func TestLocalStoreJSON(t *testing.T) {
	s := setupLocal(t)

	var v map[string]int
	found, err := s.GetJSON("missing", &v)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetJSON("k", map[string]int{"a": 1}))
	require.NoError(t, s.SetJSON("k", map[string]int{"a": 2}))

	found, err = s.GetJSON("k", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, v["a"])

	require.NoError(t, s.Remove("k"))
	found, err = s.GetJSON("k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocalStorePresetsRoundTrip(t *testing.T) {
	s := setupLocal(t)

	presets, err := s.Presets()
	require.NoError(t, err)
	assert.Empty(t, presets)

	tea := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)})
	require.NoError(t, s.SavePresets([]*model.Preset{tea}))

	presets, err = s.Presets()
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, tea.Name, presets[0].Name)
	assert.Equal(t, tea.Clocks, presets[0].Clocks)
	assert.Equal(t, tea.GetKey(), presets[0].Key)
}

func TestLocalStorePresetsSkipsNullEntries(t *testing.T) {
	s := setupLocal(t)

	tea := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0)})
	require.NoError(t, s.SetJSON(LocalKeyPresets, []any{nil, tea, nil}))

	var presets []*model.Preset
	require.NotPanics(t, func() {
		var err error
		presets, err = s.Presets()
		require.NoError(t, err)
	})
	require.Len(t, presets, 1)
	assert.Equal(t, tea.ID, presets[0].ID)
}

func TestSortPresetsNilLast(t *testing.T) {
	tea := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0)})
	presets := []*model.Preset{nil, tea, nil}

	assert.NotPanics(t, func() { SortPresets(presets) })
	assert.Same(t, tea, presets[0])
}

func TestLocalStoreSettings(t *testing.T) {
	s := setupLocal(t)

	settings, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, model.TimeFormat24h, settings.TimeFormat)

	require.NoError(t, s.SaveSettings(model.Settings{TimeFormat: model.TimeFormat12h}))
	settings, err = s.Settings()
	require.NoError(t, err)
	assert.Equal(t, model.TimeFormat12h, settings.TimeFormat)
}

func TestLocalStoreTombstones(t *testing.T) {
	s := setupLocal(t)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.AddTombstone("p1", at))

	tombstones, err := s.Tombstones()
	require.NoError(t, err)
	assert.True(t, tombstones["p1"].Equal(at))
}

func TestLocalStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "local.db")

	s, err := OpenLocal(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSettings(model.Settings{TimeFormat: model.TimeFormat12h}))
	require.NoError(t, s.Close())

	s, err = OpenLocal(path)
	require.NoError(t, err)
	defer s.Close()

	settings, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, model.TimeFormat12h, settings.TimeFormat)
}
