package presets

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clockerrors "github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/storage"
)

var errDown = errors.New("daemon unreachable")

// flakyShared wraps a PresetRepo and fails every call while down is set.
type flakyShared struct {
	repo *storage.PresetRepo
	down bool
}

func (f *flakyShared) List() ([]*model.Preset, error) {
	if f.down {
		return nil, errDown
	}
	return f.repo.List()
}

func (f *flakyShared) Put(p *model.Preset) error {
	if f.down {
		return errDown
	}
	return f.repo.Put(p)
}

func (f *flakyShared) Delete(id string) error {
	if f.down {
		return errDown
	}
	return f.repo.Delete(id)
}

func setup(t *testing.T) (*Store, *storage.LocalStore, *flakyShared) {
	t.Helper()
	local, err := storage.OpenLocal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	shared := &flakyShared{repo: storage.NewPresetRepo(db)}
	return New(local, shared), local, shared
}

func tea() *model.Preset {
	return model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)})
}

func TestSaveListRoundTrip(t *testing.T) {
	s, _, _ := setup(t)
	p := tea()

	require.NoError(t, s.Save(p))

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Tea", list[0].Name)
	assert.Equal(t, p.Clocks, list[0].Clocks)
}

func TestSaveWritesBothCopies(t *testing.T) {
	s, local, shared := setup(t)
	p := tea()
	require.NoError(t, s.Save(p))

	l, err := local.Presets()
	require.NoError(t, err)
	assert.Len(t, l, 1)

	sh, err := shared.repo.List()
	require.NoError(t, err)
	assert.Len(t, sh, 1)
}

func TestSaveRejectsInvalid(t *testing.T) {
	s, _, _ := setup(t)

	err := s.Save(&model.Preset{ID: "x", Name: "  ", Clocks: []model.ClockSegment{model.NewClock(0, 1, 0)}})
	assert.True(t, clockerrors.IsUserError(err))

	err = s.Save(&model.Preset{ID: "y", Name: "Empty"})
	assert.ErrorIs(t, err, clockerrors.ErrEmptyPreset)

	assert.Empty(t, s.List())
}

func TestSaveSharedDownStillSucceeds(t *testing.T) {
	s, _, shared := setup(t)
	shared.down = true

	p := tea()
	require.NoError(t, s.Save(p))
	assert.Len(t, s.List(), 1)

	// Once the daemon is back the next List converges the shared copy.
	shared.down = false
	assert.Len(t, s.List(), 1)
	sh, err := shared.repo.List()
	require.NoError(t, err)
	require.Len(t, sh, 1)
	assert.Equal(t, p.ID, sh[0].ID)
}

func TestListUnionsAndWritesBack(t *testing.T) {
	s, local, shared := setup(t)

	onlyLocal := tea()
	onlyShared := model.NewPreset("Eggs", []model.ClockSegment{model.NewClock(0, 7, 0)})
	onlyShared.CreatedAt = onlyLocal.CreatedAt.Add(time.Second)

	require.NoError(t, local.SavePresets([]*model.Preset{onlyLocal}))
	require.NoError(t, shared.repo.Put(onlyShared))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Tea", list[0].Name)
	assert.Equal(t, "Eggs", list[1].Name)

	l, err := local.Presets()
	require.NoError(t, err)
	assert.Len(t, l, 2)

	sh, err := shared.repo.List()
	require.NoError(t, err)
	assert.Len(t, sh, 2)
}

func TestDeleteLeavesTombstone(t *testing.T) {
	s, local, shared := setup(t)
	p := tea()
	require.NoError(t, s.Save(p))

	shared.down = true
	require.NoError(t, s.Delete(p.ID))
	assert.Empty(t, s.List())

	// The shared copy still holds it, but the tombstone keeps it dead and
	// the deletion propagates once the daemon answers.
	shared.down = false
	assert.Empty(t, s.List())
	sh, err := shared.repo.List()
	require.NoError(t, err)
	assert.Empty(t, sh)

	tombstones, err := local.Tombstones()
	require.NoError(t, err)
	assert.Contains(t, tombstones, p.ID)
}

func TestDeleteUnknownSucceeds(t *testing.T) {
	s, _, _ := setup(t)
	assert.NoError(t, s.Delete("missing"))
}

func TestBothCopiesDown(t *testing.T) {
	local, err := storage.OpenLocal(":memory:")
	require.NoError(t, err)
	require.NoError(t, local.Close())

	s := New(local, &flakyShared{down: true})
	assert.Empty(t, s.List())
	assert.Error(t, s.Save(tea()))
}

func TestLocalOnly(t *testing.T) {
	local, err := storage.OpenLocal(":memory:")
	require.NoError(t, err)
	defer local.Close()

	s := New(local, nil)
	require.NoError(t, s.Save(tea()))
	assert.Len(t, s.List(), 1)
}

func TestListSkipsNullEntries(t *testing.T) {
	local, err := storage.OpenLocal(":memory:")
	require.NoError(t, err)
	defer local.Close()
	require.NoError(t, local.SetJSON(storage.LocalKeyPresets, []any{nil}))

	s := New(local, nil)
	assert.NotPanics(t, func() {
		assert.Empty(t, s.List())
	})

	require.NoError(t, s.Save(tea()))
	assert.Len(t, s.List(), 1)
}

func TestGetAndFindByName(t *testing.T) {
	s, _, _ := setup(t)
	p := tea()
	require.NoError(t, s.Save(p))

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tea", got.Name)

	got, err = s.FindByName("tea")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	got, err = s.FindByName(p.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = s.Get("nope")
	assert.ErrorIs(t, err, clockerrors.ErrPresetNotFound)
	_, err = s.FindByName("Coffee")
	assert.ErrorIs(t, err, clockerrors.ErrPresetNotFound)
}
