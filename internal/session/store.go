// Package session persists the identity of the active batch so that it
// survives process restarts. Only the batch is stored; experiment state is
// never persisted.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agbru/pdcbench/internal/experiment"
)

// Key is the fixed storage key of the session record.
const Key = "pdcbench.active_batch"

// FileName is the file FileStore writes under its directory.
const FileName = "active_batch.json"

// CurrentVersion is the record schema version. Records with another version
// are treated as corrupt and discarded.
const CurrentVersion = 1

// Store persists at most one batch.
type Store interface {
	// Save replaces the stored record.
	Save(batch experiment.Batch) error
	// Restore returns the stored batch. A missing or unreadable record yields
	// false; unreadable records are deleted.
	Restore() (experiment.Batch, bool)
	// Clear deletes the record. A missing record is not an error.
	Clear() error
}

// record is the persisted JSON document.
type record struct {
	Version int              `json:"version"`
	SavedAt time.Time        `json:"saved_at"`
	Batch   experiment.Batch `json:"batch"`
}

var errNoBatchID = errors.New("record has no batch id")

func encode(batch experiment.Batch, now time.Time) ([]byte, error) {
	if batch.ID == "" {
		return nil, errNoBatchID
	}
	return json.MarshalIndent(record{Version: CurrentVersion, SavedAt: now.UTC(), Batch: batch}, "", "  ")
}

func decode(data []byte) (experiment.Batch, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return experiment.Batch{}, fmt.Errorf("decode session record: %w", err)
	}
	if rec.Version != CurrentVersion {
		return experiment.Batch{}, fmt.Errorf("unsupported session record version %d", rec.Version)
	}
	if rec.Batch.ID == "" {
		return experiment.Batch{}, errNoBatchID
	}
	return rec.Batch, nil
}
