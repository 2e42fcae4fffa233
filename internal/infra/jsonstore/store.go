// Package jsonstore provides a JSON file-based implementation of the domain repositories.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fieldlab/fieldops/internal/domain"
)

// schemaVersion is bumped whenever the record layout changes.
const schemaVersion = 1

// storeData represents the JSON file structure.
// Fields are ordered to minimize memory padding.
type storeData struct {
	Tasks         map[string]*taskRecord              `json:"tasks"`
	Projects      map[string]*projectRecord           `json:"projects"`
	Users         map[string]*userRecord              `json:"users"`
	WorkPackages  map[string]*workPackageRecord       `json:"work_packages"`
	Reports       map[string]map[string]*reportRecord `json:"reports"` // kind -> task ID -> row
	History       []*historyRecord                    `json:"history"`
	Notifications []*notificationRecord               `json:"notifications"`
	Meta          meta                                `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	SchemaVersion int `json:"schema_version"`
}

func newStoreData() *storeData {
	return &storeData{
		Tasks:        make(map[string]*taskRecord),
		Projects:     make(map[string]*projectRecord),
		Users:        make(map[string]*userRecord),
		WorkPackages: make(map[string]*workPackageRecord),
		Reports:      make(map[string]map[string]*reportRecord),
		Meta:         meta{SchemaVersion: schemaVersion},
	}
}

// Store persists all entities in a single JSON file guarded by a flock.
type Store struct {
	path     string
	lockPath string
}

// New creates a new Store for the given file path.
// The file does not need to exist; Initialize creates it.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Ensure Store implements the store-level interfaces.
var (
	_ domain.StoreInitializer = (*Store)(nil)
	_ domain.Transactor       = (*Store)(nil)
)

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// IsInitialized checks if the store file exists.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize creates an empty store file if it doesn't exist.
func (s *Store) Initialize(_ context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return s.write(newStoreData())
}

// InTx runs fn under one exclusive lock. The file is rewritten only if fn succeeds,
// so task and history writes made through tx land together or not at all.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.TxRepositories) error) error {
	return s.withLockWrite(func(data *storeData) error {
		return fn(ctx, domain.TxRepositories{
			Tasks:        &taskRepo{s: s, tx: data},
			History:      &historyRepo{s: s, tx: data},
			WorkPackages: &workPackageRepo{s: s, tx: data},
			Users:        &userRepo{s: s, tx: data},
		})
	})
}

// Tasks returns the task repository.
func (s *Store) Tasks() domain.TaskRepository { return &taskRepo{s: s} }

// History returns the history repository.
func (s *Store) History() domain.HistoryRepository { return &historyRepo{s: s} }

// Projects returns the project repository.
func (s *Store) Projects() domain.ProjectRepository { return &projectRepo{s: s} }

// Users returns the user repository.
func (s *Store) Users() domain.UserRepository { return &userRepo{s: s} }

// Notifications returns the notification repository.
func (s *Store) Notifications() domain.NotificationRepository { return &notificationRepo{s: s} }

// WorkPackages returns the work package repository.
func (s *Store) WorkPackages() domain.WorkPackageRepository { return &workPackageRepo{s: s} }

// view runs fn against tx if inside a transaction, otherwise under a shared lock.
func (s *Store) view(tx *storeData, fn func(*storeData) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.withLock(fn)
}

// update runs fn against tx if inside a transaction, otherwise under an exclusive lock.
func (s *Store) update(tx *storeData, fn func(*storeData) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.withLockWrite(fn)
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func (s *Store) read() (*storeData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotInitialized
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	data := newStoreData()
	if err := json.Unmarshal(content, data); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}

	// Ensure maps are initialized
	if data.Tasks == nil {
		data.Tasks = make(map[string]*taskRecord)
	}
	if data.Projects == nil {
		data.Projects = make(map[string]*projectRecord)
	}
	if data.Users == nil {
		data.Users = make(map[string]*userRecord)
	}
	if data.WorkPackages == nil {
		data.WorkPackages = make(map[string]*workPackageRecord)
	}
	if data.Reports == nil {
		data.Reports = make(map[string]map[string]*reportRecord)
	}

	return data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
