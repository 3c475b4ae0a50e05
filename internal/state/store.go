// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package state

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// TimestampLayout is the persisted layout of the last cycle timestamp.
const TimestampLayout = "02/01/2006 15:04:05"

const (
	lastCycleKey   = "cycle:last"
	cycleReportKey = "cycle:report"
	buildPrefix    = "build:"
	versionPrefix  = "version:"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("state store is closed")

// Store persists agent state between runs in a BadgerDB.
//
// Lock and Unlock bracket read-modify-write sequences on the cycle
// timestamp; single reads and writes are safe without them.
type Store struct {
	db *badger.DB

	cycleMu sync.Mutex

	closeMu sync.RWMutex
	closed  bool
}

// Open opens (or creates) the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Badger is chatty; errors surface through return values
	opts.NumVersionsToKeep = 1
	opts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store that is discarded on Close. Used by tests and
// by `serverpilot check`.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory state store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Lock acquires the cycle state lock.
func (s *Store) Lock() { s.cycleMu.Lock() }

// Unlock releases the cycle state lock.
func (s *Store) Unlock() { s.cycleMu.Unlock() }

// LastCycle returns the raw persisted timestamp of the last maintenance
// cycle, or "" if none was recorded.
func (s *Store) LastCycle() (string, error) {
	v, err := s.get(lastCycleKey)
	if err != nil {
		return "", fmt.Errorf("load last cycle: %w", err)
	}
	return string(v), nil
}

// SetLastCycle records t as the last maintenance cycle.
func (s *Store) SetLastCycle(t time.Time) error {
	if err := s.set(lastCycleKey, []byte(t.Format(TimestampLayout))); err != nil {
		return fmt.Errorf("save last cycle: %w", err)
	}
	return nil
}

// BuildID returns the last installed CI build id for target, 0 if unknown.
func (s *Store) BuildID(target string) (int, error) {
	v, err := s.get(buildPrefix + target)
	if err != nil {
		return 0, fmt.Errorf("load build id for %s: %w", target, err)
	}
	if len(v) == 0 {
		return 0, nil
	}
	id, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, fmt.Errorf("corrupt build id for %s: %w", target, err)
	}
	return id, nil
}

// SetBuildID records the CI build id installed for target.
func (s *Store) SetBuildID(target string, id int) error {
	if err := s.set(buildPrefix+target, []byte(strconv.Itoa(id))); err != nil {
		return fmt.Errorf("save build id for %s: %w", target, err)
	}
	return nil
}

// InstalledVersion returns the version recorded for target, "" if unknown.
func (s *Store) InstalledVersion(target string) (string, error) {
	v, err := s.get(versionPrefix + target)
	if err != nil {
		return "", fmt.Errorf("load version for %s: %w", target, err)
	}
	return string(v), nil
}

// SetInstalledVersion records the version installed for target.
func (s *Store) SetInstalledVersion(target, version string) error {
	if err := s.set(versionPrefix+target, []byte(version)); err != nil {
		return fmt.Errorf("save version for %s: %w", target, err)
	}
	return nil
}

// SaveCycleReport persists the summary of the most recent cycle.
func (s *Store) SaveCycleReport(r *CycleReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal cycle report: %w", err)
	}
	if err := s.set(cycleReportKey, data); err != nil {
		return fmt.Errorf("save cycle report: %w", err)
	}
	return nil
}

// LastCycleReport returns the most recent cycle summary.
// Returns nil, nil if no cycle has completed yet.
func (s *Store) LastCycleReport() (*CycleReport, error) {
	data, err := s.get(cycleReportKey)
	if err != nil {
		return nil, fmt.Errorf("load cycle report: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var r CycleReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal cycle report: %w", err)
	}
	return &r, nil
}

func (s *Store) get(key string) ([]byte, error) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (s *Store) set(key string, value []byte) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}
