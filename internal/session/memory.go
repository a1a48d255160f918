package session

import (
	"sync"
	"time"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/logging"
)

// MemoryStore is a key-value backed Store. It stores the same encoded bytes
// as FileStore under Key, so corrupt-record handling behaves identically.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	logger logging.Logger
	now    func() time.Time
}

// NewMemoryStore creates an empty store. A nil logger discards output.
func NewMemoryStore(logger logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &MemoryStore{data: make(map[string][]byte), logger: logger, now: time.Now}
}

// Put stores raw bytes under key, bypassing the codec.
func (s *MemoryStore) Put(key string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), raw...)
}

// Raw returns the bytes stored under key.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[key]
	return append([]byte(nil), b...), ok
}

// Save implements Store.
func (s *MemoryStore) Save(batch experiment.Batch) error {
	data, err := encode(batch, s.now())
	if err != nil {
		return apperrors.WrapError(err, "save session")
	}
	s.Put(Key, data)
	return nil
}

// Restore implements Store.
func (s *MemoryStore) Restore() (experiment.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[Key]
	if !ok {
		return experiment.Batch{}, false
	}
	batch, err := decode(data)
	if err != nil {
		s.logger.Warn("discarding unreadable session record",
			logging.Err(apperrors.SessionRestoreError{Location: Key, Cause: err}))
		delete(s.data, Key)
		return experiment.Batch{}, false
	}
	return batch, true
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, Key)
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
