package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/logging"
)

// DefaultPath returns <user config dir>/pdcbench/active_batch.json, falling
// back to the working directory when no config dir is available.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, "pdcbench", FileName)
}

// FileStore keeps the session record in a JSON file.
type FileStore struct {
	path   string
	logger logging.Logger
	now    func() time.Time
}

// NewFileStore creates a store backed by path. A nil logger discards output.
func NewFileStore(path string, logger logging.Logger) *FileStore {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &FileStore{path: path, logger: logger, now: time.Now}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Save writes the record to a temporary file and renames it over the
// previous one, so a crash never leaves a half-written record.
func (s *FileStore) Save(batch experiment.Batch) error {
	data, err := encode(batch, s.now())
	if err != nil {
		return apperrors.WrapError(err, "save session")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".active_batch-*.tmp")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Restore loads the record. Unreadable records are logged, removed and
// reported as absent.
func (s *FileStore) Restore() (experiment.Batch, bool) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return experiment.Batch{}, false
	}
	if err == nil {
		var batch experiment.Batch
		if batch, err = decode(data); err == nil {
			return batch, true
		}
	}
	s.logger.Warn("discarding unreadable session record",
		logging.Err(apperrors.SessionRestoreError{Location: s.path, Cause: err}))
	if rmErr := s.Clear(); rmErr != nil {
		s.logger.Error("failed to remove session record", rmErr, logging.String("path", s.path))
	}
	return experiment.Batch{}, false
}

// Clear removes the record file.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
