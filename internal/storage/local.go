package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"

	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
)

// Keys used in the foreground-local store.
const (
	LocalKeyPresets    = "presets"
	LocalKeySettings   = "settings"
	LocalKeyTombstones = model.KeyTombstones
)

const localSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// LocalStore is the foreground's private key-value store, a sqlite file
// holding JSON values. It is never opened by the daemon.
type LocalStore struct {
	db   *sql.DB
	path string
}

// DefaultLocalPath returns the default local store path.
func DefaultLocalPath() string {
	return filepath.Join(xdg.DataHome, AppName, "local.db")
}

// OpenLocal opens the local store. An empty path or ":memory:" opens a
// private in-memory database.
func OpenLocal(path string) (*LocalStore, error) {
	dsn := path
	if path == "" || path == ":memory:" {
		dsn = ":memory:"
		path = ""
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(localSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &LocalStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Path returns the sqlite file path, or "" when in memory.
func (s *LocalStore) Path() string {
	return s.path
}

// GetJSON decodes the value stored under key into v.
// It reports false when the key is absent.
func (s *LocalStore) GetJSON(key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v as JSON under key.
func (s *LocalStore) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(data))
	return err
}

// Remove deletes key.
func (s *LocalStore) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Presets returns the local preset copy.
func (s *LocalStore) Presets() ([]*model.Preset, error) {
	var presets []*model.Preset
	if _, err := s.GetJSON(LocalKeyPresets, &presets); err != nil {
		return nil, err
	}
	presets = compactPresets(presets)
	for _, p := range presets {
		p.Key = model.GeneratePresetKey(p.ID)
	}
	SortPresets(presets)
	return presets, nil
}

// compactPresets drops null entries left by a hand-edited or corrupted list.
func compactPresets(presets []*model.Preset) []*model.Preset {
	out := presets[:0]
	for _, p := range presets {
		if p == nil {
			logging.Warn("skipping null preset entry", logging.KeyOperation, "local presets")
			continue
		}
		out = append(out, p)
	}
	return out
}

// SavePresets replaces the local preset copy.
func (s *LocalStore) SavePresets(presets []*model.Preset) error {
	if presets == nil {
		presets = []*model.Preset{}
	}
	return s.SetJSON(LocalKeyPresets, presets)
}

// Settings returns the stored settings, or defaults when none are stored.
func (s *LocalStore) Settings() (model.Settings, error) {
	settings := model.DefaultSettings()
	if _, err := s.GetJSON(LocalKeySettings, &settings); err != nil {
		return model.DefaultSettings(), err
	}
	return settings.Normalize(), nil
}

// SaveSettings stores settings.
func (s *LocalStore) SaveSettings(settings model.Settings) error {
	return s.SetJSON(LocalKeySettings, settings.Normalize())
}

// Tombstones returns the ids of deleted presets with their deletion time.
func (s *LocalStore) Tombstones() (map[string]time.Time, error) {
	tombstones := make(map[string]time.Time)
	if _, err := s.GetJSON(LocalKeyTombstones, &tombstones); err != nil {
		return map[string]time.Time{}, err
	}
	return tombstones, nil
}

// AddTombstone records that preset id was deleted.
func (s *LocalStore) AddTombstone(id string, at time.Time) error {
	tombstones, err := s.Tombstones()
	if err != nil {
		return err
	}
	tombstones[id] = at
	return s.SetJSON(LocalKeyTombstones, tombstones)
}
