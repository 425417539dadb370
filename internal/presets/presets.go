// Package presets keeps the two shadowed preset copies in agreement: the
// foreground-local copy and the shared copy owned by the daemon.
package presets

import (
	"strings"
	"time"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/storage"
	"github.com/manav03panchal/clockset/internal/validate"
)

// Local is the foreground-local copy.
type Local interface {
	Presets() ([]*model.Preset, error)
	SavePresets(presets []*model.Preset) error
	Tombstones() (map[string]time.Time, error)
	AddTombstone(id string, at time.Time) error
}

// Shared is the extension-shared copy.
type Shared interface {
	List() ([]*model.Preset, error)
	Put(p *model.Preset) error
	Delete(id string) error
}

// Store reconciles Local and Shared. Either side may fail independently;
// the other side keeps the store usable.
type Store struct {
	local  Local
	shared Shared
	now    func() time.Time
}

// New creates a preset store. shared may be nil when the daemon cannot be
// reached, in which case only the local copy is used.
func New(local Local, shared Shared) *Store {
	return &Store{local: local, shared: shared, now: time.Now}
}

// Save validates p and writes it to both copies. It fails only when
// neither copy accepted the write.
func (s *Store) Save(p *model.Preset) error {
	p.Name = validate.SanitizePresetName(p.Name)
	if err := validate.Preset(p); err != nil {
		return err
	}

	localErr := s.saveLocal(p)
	if localErr != nil {
		logging.Warn("could not save preset locally", logging.KeyPresetID, p.ID, logging.KeyError, localErr)
	}

	var sharedErr error
	if s.shared != nil {
		if sharedErr = s.shared.Put(p); sharedErr != nil {
			logging.Warn("could not save shared preset", logging.KeyPresetID, p.ID, logging.KeyError, sharedErr)
		}
	}

	if localErr != nil && (s.shared == nil || sharedErr != nil) {
		return errors.NewSystemErrorWithOp("save preset", "no preset copy could be written", localErr)
	}
	return nil
}

func (s *Store) saveLocal(p *model.Preset) error {
	list, err := s.local.Presets()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range list {
		if existing.ID == p.ID {
			list[i] = p
			replaced = true
		}
	}
	if !replaced {
		list = append(list, p)
	}
	return s.local.SavePresets(list)
}

// Delete removes id from both copies and records a tombstone so a later
// merge does not bring it back. Deleting an unknown id succeeds.
func (s *Store) Delete(id string) error {
	if err := s.local.AddTombstone(id, s.now()); err != nil {
		logging.Warn("could not record tombstone", logging.KeyPresetID, id, logging.KeyError, err)
	}

	var localErr error
	list, err := s.local.Presets()
	if err == nil {
		kept := list[:0]
		for _, p := range list {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		err = s.local.SavePresets(kept)
	}
	if err != nil {
		localErr = err
		logging.Warn("could not delete local preset", logging.KeyPresetID, id, logging.KeyError, err)
	}

	var sharedErr error
	if s.shared != nil {
		if sharedErr = s.shared.Delete(id); sharedErr != nil {
			logging.Warn("could not delete shared preset", logging.KeyPresetID, id, logging.KeyError, sharedErr)
		}
	}

	if localErr != nil && (s.shared == nil || sharedErr != nil) {
		return errors.NewSystemErrorWithOp("delete preset", "no preset copy could be updated", localErr)
	}
	return nil
}

// List returns the union of both copies minus tombstoned ids, oldest first.
// Entries missing from one copy are written back to it. If both reads fail
// the result is empty.
func (s *Store) List() []*model.Preset {
	local, localErr := s.local.Presets()
	if localErr != nil {
		logging.Warn("could not read local presets", logging.KeyError, localErr)
	}

	var shared []*model.Preset
	var sharedErr error
	if s.shared != nil {
		if shared, sharedErr = s.shared.List(); sharedErr != nil {
			logging.Warn("could not read shared presets", logging.KeyError, sharedErr)
		}
	}

	tombstones, err := s.local.Tombstones()
	if err != nil {
		logging.Warn("could not read tombstones", logging.KeyError, err)
		tombstones = nil
	}

	merged := make(map[string]*model.Preset)
	inLocal := make(map[string]bool)
	inShared := make(map[string]bool)
	for _, p := range local {
		if p == nil {
			continue
		}
		inLocal[p.ID] = true
		merged[p.ID] = p
	}
	for _, p := range shared {
		if p == nil {
			continue
		}
		inShared[p.ID] = true
		if _, ok := merged[p.ID]; !ok {
			merged[p.ID] = p
		}
	}

	out := make([]*model.Preset, 0, len(merged))
	for id, p := range merged {
		if _, dead := tombstones[id]; dead {
			continue
		}
		out = append(out, p)
	}
	storage.SortPresets(out)

	s.writeBack(out, local, localErr, inLocal, inShared, sharedErr, tombstones)
	return out
}

func (s *Store) writeBack(merged, local []*model.Preset, localErr error, inLocal, inShared map[string]bool, sharedErr error, tombstones map[string]time.Time) {
	if localErr == nil && needsLocalWrite(merged, local, inLocal) {
		if err := s.local.SavePresets(merged); err != nil {
			logging.Warn("could not write back local presets", logging.KeyError, err)
		}
	}

	if s.shared == nil || sharedErr != nil {
		return
	}
	for _, p := range merged {
		if inShared[p.ID] {
			continue
		}
		if err := s.shared.Put(p); err != nil {
			logging.Warn("could not write back shared preset", logging.KeyPresetID, p.ID, logging.KeyError, err)
		}
	}
	for id := range inShared {
		if _, dead := tombstones[id]; !dead {
			continue
		}
		if err := s.shared.Delete(id); err != nil {
			logging.Warn("could not propagate preset deletion", logging.KeyPresetID, id, logging.KeyError, err)
		}
	}
}

func needsLocalWrite(merged, local []*model.Preset, inLocal map[string]bool) bool {
	if len(merged) != len(local) {
		return true
	}
	for _, p := range merged {
		if !inLocal[p.ID] {
			return true
		}
	}
	return false
}

// Get returns the preset with the given id.
func (s *Store) Get(id string) (*model.Preset, error) {
	for _, p := range s.List() {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.Invalid(errors.ErrPresetNotFound, "id", id)
}

// FindByName returns the first preset whose name matches, ignoring case.
// An id prefix of at least four characters also matches.
func (s *Store) FindByName(name string) (*model.Preset, error) {
	name = strings.TrimSpace(name)
	list := s.List()
	for _, p := range list {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	if len(name) >= 4 {
		for _, p := range list {
			if strings.HasPrefix(p.ID, name) {
				return p, nil
			}
		}
	}
	return nil, errors.Invalid(errors.ErrPresetNotFound, "name", name)
}
