package storage

import (
	"sort"

	"github.com/manav03panchal/clockset/internal/model"
)

// PresetRepo stores the shared copy of the presets.
type PresetRepo struct {
	db *DB
}

// NewPresetRepo creates a new preset repository.
func NewPresetRepo(db *DB) *PresetRepo {
	return &PresetRepo{db: db}
}

// Put stores a preset under its id.
func (r *PresetRepo) Put(p *model.Preset) error {
	p.Key = model.GeneratePresetKey(p.ID)
	return r.db.Set(p)
}

// Get retrieves a preset by id.
func (r *PresetRepo) Get(id string) (*model.Preset, error) {
	p := &model.Preset{}
	if err := r.db.Get(model.GeneratePresetKey(id), p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every preset ordered by creation time.
func (r *PresetRepo) List() ([]*model.Preset, error) {
	presets, err := GetAllByPrefix(r.db, model.PrefixPreset+":", func() *model.Preset {
		return &model.Preset{}
	})
	if err != nil {
		return nil, err
	}
	SortPresets(presets)
	return presets, nil
}

// Delete removes a preset by id. Deleting a missing preset is not an error.
func (r *PresetRepo) Delete(id string) error {
	return r.db.Delete(model.GeneratePresetKey(id))
}

// SortPresets orders presets by creation time, then id.
func SortPresets(presets []*model.Preset) {
	sort.SliceStable(presets, func(i, j int) bool {
		if presets[i] == nil || presets[j] == nil {
			return presets[j] == nil && presets[i] != nil
		}
		if presets[i].CreatedAt.Equal(presets[j].CreatedAt) {
			return presets[i].ID < presets[j].ID
		}
		return presets[i].CreatedAt.Before(presets[j].CreatedAt)
	})
}
