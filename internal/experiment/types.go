package experiment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/agbru/pdcbench/internal/errors"
)

// ID is an opaque identifier assigned by the processing service. The service
// emits numeric ids; ID accepts both JSON numbers and strings.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("experiment id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Mode selects the remote execution strategy.
type Mode string

const (
	ModeSerial   Mode = "SERIAL"
	ModeParallel Mode = "PARALLEL"
)

// Modes returns both modes in display order.
func Modes() []Mode { return []Mode{ModeSerial, ModeParallel} }

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeSerial:
		return ModeSerial, nil
	case ModeParallel:
		return ModeParallel, nil
	}
	return "", apperrors.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q (want SERIAL or PARALLEL)", s)}
}

// Status is the lifecycle stage of an experiment.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// IsTerminal reports whether no further transitions follow s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// File is one uploaded input file of a batch.
type File struct {
	ID        ID     `json:"id" yaml:"id"`
	Name      string `json:"original_name" yaml:"name"`
	URL       string `json:"file,omitempty" yaml:"url,omitempty"`
	SizeBytes int64  `json:"file_size_bytes,omitempty" yaml:"size_bytes,omitempty"`
}

// Batch is a set of uploaded input files accepted by the service.
type Batch struct {
	ID        ID     `json:"id" yaml:"id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Files     []File `json:"files" yaml:"files"`
}

// Clone returns a deep copy so callers cannot mutate a stored batch.
func (b Batch) Clone() Batch {
	c := b
	c.Files = append([]File(nil), b.Files...)
	return c
}

// Equal reports whether two batches describe the same snapshot.
func (b Batch) Equal(o Batch) bool {
	if b.ID != o.ID || b.Name != o.Name || b.CreatedAt != o.CreatedAt || len(b.Files) != len(o.Files) {
		return false
	}
	for i := range b.Files {
		if b.Files[i] != o.Files[i] {
			return false
		}
	}
	return true
}

// Result is the per-file output of a completed experiment.
type Result struct {
	ID               ID      `json:"id" yaml:"id"`
	ProcessedFile    string  `json:"processed_file" yaml:"processed_file"`
	OriginalFileURL  string  `json:"original_file_url,omitempty" yaml:"original_file_url,omitempty"`
	SpectrogramPath  string  `json:"spectrogram_path,omitempty" yaml:"spectrogram_path,omitempty"`
	ProcessingTimeMS float64 `json:"processing_time_ms" yaml:"processing_time_ms"`
}

// StatusReport is a single status query response.
// DurationSeconds and Results are only meaningful once Status is COMPLETED.
type StatusReport struct {
	ID              ID       `json:"id"`
	Mode            Mode     `json:"mode,omitempty"`
	Status          Status   `json:"status"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	CPUCoresUsed    int      `json:"cpu_cores_used,omitempty"`
	Results         []Result `json:"results,omitempty"`
}

// UploadFile is a local file handed to the service for a new batch.
type UploadFile struct {
	Name    string
	Content []byte
}

// Snapshot is a read-only view of a lifecycle at one point in time.
type Snapshot struct {
	Mode         Mode
	Status       Status
	ExperimentID ID
	// Duration is valid only when HasDuration is true (COMPLETED).
	Duration     float64
	HasDuration  bool
	CPUCoresUsed int
	Results      []Result
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Completed reports whether the snapshot holds terminal success data.
func (s Snapshot) Completed() bool {
	return s.Status == StatusCompleted && s.HasDuration
}

// Running reports whether the experiment is live.
func (s Snapshot) Running() bool { return s.Status == StatusProcessing }
