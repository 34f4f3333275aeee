package schedule

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hassnap/einkscreen/models"
)

// FileStore persists schedules as a single JSON document, guarded by an
// in-process mutex and written atomically (temp file + rename) so a
// crash mid-write cannot corrupt the store.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (without yet reading) a FileStore backed by path.
// The file is created by the first write if it does not already exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) readAllLocked() ([]*Schedule, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, models.New(models.KindStorageError, "reading schedule store", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var schedules []*Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		return nil, models.New(models.KindStorageError, "decoding schedule store", err)
	}
	return schedules, nil
}

func (fs *FileStore) writeAllLocked(schedules []*Schedule) error {
	data, err := json.MarshalIndent(schedules, "", "  ")
	if err != nil {
		return models.New(models.KindStorageError, "encoding schedule store", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.New(models.KindStorageError, "creating schedule store directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".schedules-*.tmp")
	if err != nil {
		return models.New(models.KindStorageError, "creating temp schedule file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return models.New(models.KindStorageError, "writing temp schedule file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return models.New(models.KindStorageError, "closing temp schedule file", err)
	}
	if err := os.Rename(tmpPath, fs.path); err != nil {
		os.Remove(tmpPath)
		return models.New(models.KindStorageError, "renaming temp schedule file", err)
	}
	return nil
}

// List returns every stored schedule.
func (fs *FileStore) List() ([]*Schedule, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readAllLocked()
}

// Get returns a single schedule by id, or nil if not found.
func (fs *FileStore) Get(id string) (*Schedule, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	all, err := fs.readAllLocked()
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

// Create assigns an id and timestamps, persists, and returns the stored record.
func (fs *FileStore) Create(s *Schedule) (*Schedule, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	all, err := fs.readAllLocked()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stored := *s
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	all = append(all, &stored)
	if err := fs.writeAllLocked(all); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Update applies patch's fields wholesale onto the stored record
// identified by id (the caller is expected to have merged partial
// updates onto the existing record already), stamping updatedAt.
// Returns nil, nil if id is not found.
func (fs *FileStore) Update(id string, patch *Schedule) (*Schedule, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	all, err := fs.readAllLocked()
	if err != nil {
		return nil, err
	}

	for i, s := range all {
		if s.ID != id {
			continue
		}
		updated := *patch
		updated.ID = id
		updated.CreatedAt = s.CreatedAt
		updated.UpdatedAt = time.Now()
		all[i] = &updated
		if err := fs.writeAllLocked(all); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, nil
}

// Delete removes the schedule identified by id, reporting whether it was found.
func (fs *FileStore) Delete(id string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	all, err := fs.readAllLocked()
	if err != nil {
		return false, err
	}

	for i, s := range all {
		if s.ID != id {
			continue
		}
		all = append(all[:i], all[i+1:]...)
		if err := fs.writeAllLocked(all); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
