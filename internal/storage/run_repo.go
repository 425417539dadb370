package storage

import (
	"encoding/json"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
)

// ErrNoChange may be returned from an Update callback to skip the write.
var ErrNoChange = errors.New("no change")

// RunRepo provides operations for the TimerRun singleton.
// Every write replaces the whole record in one transaction, so a reader
// never sees isRunning without its endTime.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new run repository.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Load retrieves the run record. A missing record yields the empty record.
// An undecodable record is logged and also yields the empty record.
func (r *RunRepo) Load() (*model.TimerRun, error) {
	run := model.NewTimerRun()
	err := r.db.db.View(func(txn *badger.Txn) error {
		return readRun(txn, run)
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Save persists the whole run record.
func (r *RunRepo) Save(run *model.TimerRun) error {
	run.Key = model.KeyTimerRun
	return r.db.Set(run)
}

// Update applies fn to the current record and persists the result in a
// single transaction. If fn returns ErrNoChange nothing is written and the
// unchanged record is returned with a nil error.
func (r *RunRepo) Update(fn func(run *model.TimerRun) error) (*model.TimerRun, error) {
	run := model.NewTimerRun()
	err := r.db.db.Update(func(txn *badger.Txn) error {
		if err := readRun(txn, run); err != nil {
			return err
		}
		if err := fn(run); err != nil {
			return err
		}
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		return txn.Set([]byte(model.KeyTimerRun), data)
	})
	if errors.Is(err, ErrNoChange) {
		return run, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func readRun(txn *badger.Txn, run *model.TimerRun) error {
	item, err := txn.Get([]byte(model.KeyTimerRun))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, run); err != nil {
			logging.Warn("discarding malformed run record", logging.KeyError, err)
			*run = *model.NewTimerRun()
		}
		run.Key = model.KeyTimerRun
		return nil
	})
}
