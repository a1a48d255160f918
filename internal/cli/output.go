// # Naming Conventions
//
// Functions in this package follow consistent naming patterns:
//
//   - Print* and Present* functions write formatted output to an [io.Writer].
//   - Format* functions return a formatted string without performing I/O.
//   - Write* and Download* functions write files on the filesystem.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/orchestration"
	"github.com/agbru/pdcbench/internal/ui"
)

// Report is the machine-readable summary written by --output.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Batch       *experiment.Batch  `json:"batch,omitempty" yaml:"batch,omitempty"`
	Experiments []ExperimentReport `json:"experiments" yaml:"experiments"`
	Comparison  ComparisonReport   `json:"comparison" yaml:"comparison"`
	ResultsMode experiment.Mode    `json:"results_mode,omitempty" yaml:"results_mode,omitempty"`
	Results     []ResultReport     `json:"results" yaml:"results"`
}

// ExperimentReport is the final state of one lifecycle.
type ExperimentReport struct {
	Mode            experiment.Mode   `json:"mode" yaml:"mode"`
	Status          experiment.Status `json:"status" yaml:"status"`
	ExperimentID    experiment.ID     `json:"experiment_id,omitempty" yaml:"experiment_id,omitempty"`
	DurationSeconds *float64          `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
	CPUCoresUsed    int               `json:"cpu_cores_used,omitempty" yaml:"cpu_cores_used,omitempty"`
	Error           string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// ComparisonReport holds the derived metrics; absent values are omitted.
type ComparisonReport struct {
	Speedup    *float64 `json:"speedup,omitempty" yaml:"speedup,omitempty"`
	Efficiency *float64 `json:"efficiency_percent,omitempty" yaml:"efficiency_percent,omitempty"`
	Cores      int      `json:"cores" yaml:"cores"`
}

// ResultReport is one processed file with resolved artifact URLs.
type ResultReport struct {
	ID               experiment.ID `json:"id" yaml:"id"`
	ProcessedFile    string        `json:"processed_file" yaml:"processed_file"`
	ProcessedURL     string        `json:"processed_url,omitempty" yaml:"processed_url,omitempty"`
	SpectrogramURL   string        `json:"spectrogram_url,omitempty" yaml:"spectrogram_url,omitempty"`
	ProcessingTimeMS float64       `json:"processing_time_ms" yaml:"processing_time_ms"`
}

// BuildReport converts st into a Report. resolver may be nil.
func BuildReport(st orchestration.State, resolver ArtifactResolver, now time.Time) Report {
	r := Report{
		GeneratedAt: now.UTC(),
		ResultsMode: st.ResultsMode,
		Comparison:  ComparisonReport{Cores: st.Comparison.Cores},
		Experiments: make([]ExperimentReport, 0, 2),
		Results:     make([]ResultReport, 0, len(st.Results)),
	}
	if st.HasBatch {
		b := st.Batch.Clone()
		r.Batch = &b
	}
	for _, m := range experiment.Modes() {
		s := st.Snapshot(m)
		e := ExperimentReport{Mode: m, Status: s.Status, ExperimentID: s.ExperimentID, CPUCoresUsed: s.CPUCoresUsed}
		if e.Status == "" {
			e.Status = experiment.StatusPending
		}
		if s.Completed() {
			d := s.Duration
			e.DurationSeconds = &d
		}
		if s.Err != nil {
			e.Error = s.Err.Error()
		}
		r.Experiments = append(r.Experiments, e)
	}
	if st.Comparison.SpeedupDefined {
		v := st.Comparison.Speedup
		r.Comparison.Speedup = &v
	}
	if st.Comparison.EfficiencyDefined {
		v := st.Comparison.Efficiency
		r.Comparison.Efficiency = &v
	}
	for _, res := range st.Results {
		rr := ResultReport{ID: res.ID, ProcessedFile: res.ProcessedFile, ProcessingTimeMS: res.ProcessingTimeMS}
		if resolver != nil {
			rr.ProcessedURL = resolver.ResolveArtifact(res.ProcessedFile)
			rr.SpectrogramURL = resolver.ResolveArtifact(res.SpectrogramPath)
		}
		r.Results = append(r.Results, rr)
	}
	return r
}

// WriteReport writes report to file as YAML for .yaml/.yml and JSON
// otherwise, creating parent directories as needed.
func WriteReport(file string, report Report) error {
	if file == "" {
		return nil
	}
	if dir := filepath.Dir(file); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Downloader fetches one artifact. remote.Client implements it.
type Downloader interface {
	Download(ctx context.Context, path string, w io.Writer) (int64, error)
}

// DownloadArtifacts saves the processed file and spectrogram of every result
// into dir and returns the number of files written. It stops at the first
// error.
func DownloadArtifacts(ctx context.Context, d Downloader, results []experiment.Result, dir string, out io.Writer) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}
	written := 0
	for _, r := range results {
		for _, p := range []string{r.ProcessedFile, r.SpectrogramPath} {
			if p == "" {
				continue
			}
			target := filepath.Join(dir, path.Base(p))
			if err := downloadOne(ctx, d, p, target); err != nil {
				return written, err
			}
			written++
			fmt.Fprintf(out, "%s✓%s %s\n", ui.ColorGreen(), ui.ColorReset(), target)
		}
	}
	return written, nil
}

func downloadOne(ctx context.Context, d Downloader, src, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := d.Download(ctx, src, f); err != nil {
		f.Close()
		os.Remove(target)
		return fmt.Errorf("download %s: %w", src, err)
	}
	return f.Close()
}
