package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/orchestration"
)

type prefixResolver string

func (p prefixResolver) ResolveArtifact(path string) string {
	if path == "" {
		return ""
	}
	return string(p) + path
}

func sampleState() orchestration.State {
	serial := completedSnapshot(experiment.ModeSerial, 8)
	parallel := completedSnapshot(experiment.ModeParallel, 2)
	results := []experiment.Result{
		{ID: "1", ProcessedFile: "processed/a.wav", SpectrogramPath: "spectrograms/a.png", ProcessingTimeMS: 120},
		{ID: "2", ProcessedFile: "processed/b.wav", ProcessingTimeMS: 80},
	}
	parallel.Results = results
	return orchestration.State{
		Batch:       experiment.Batch{ID: "42", Name: "demo", Files: []experiment.File{{ID: "1", Name: "a.wav"}, {ID: "2", Name: "b.wav"}}},
		HasBatch:    true,
		Serial:      serial,
		Parallel:    parallel,
		Comparison:  orchestration.Compare(serial, parallel, 8),
		ResultsMode: experiment.ModeParallel,
		Results:     results,
	}
}

func TestBuildReport(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))
	r := BuildReport(sampleState(), prefixResolver("http://media/"), now)

	if !r.GeneratedAt.Equal(now) || r.GeneratedAt.Location() != time.UTC {
		t.Errorf("GeneratedAt = %v, want %v in UTC", r.GeneratedAt, now)
	}
	if r.Batch == nil || r.Batch.ID != "42" {
		t.Fatalf("Batch = %+v, want id 42", r.Batch)
	}
	if len(r.Experiments) != 2 || r.Experiments[0].Mode != experiment.ModeSerial {
		t.Fatalf("Experiments = %+v", r.Experiments)
	}
	if d := r.Experiments[0].DurationSeconds; d == nil || *d != 8 {
		t.Errorf("serial duration = %v, want 8", d)
	}
	if s := r.Comparison.Speedup; s == nil || *s != 4 {
		t.Errorf("speedup = %v, want 4", s)
	}
	if e := r.Comparison.Efficiency; e == nil || *e != 50 {
		t.Errorf("efficiency = %v, want 50", e)
	}
	if len(r.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(r.Results))
	}
	if got := r.Results[0].SpectrogramURL; got != "http://media/spectrograms/a.png" {
		t.Errorf("SpectrogramURL = %q", got)
	}
	if got := r.Results[1].SpectrogramURL; got != "" {
		t.Errorf("missing spectrogram should resolve to empty, got %q", got)
	}
}

func TestBuildReport_Pending(t *testing.T) {
	t.Parallel()
	r := BuildReport(orchestration.State{}, nil, time.Now())
	if r.Batch != nil {
		t.Error("Batch should be nil without an active batch")
	}
	for _, e := range r.Experiments {
		if e.Status != experiment.StatusPending || e.DurationSeconds != nil {
			t.Errorf("experiment %s = %+v, want PENDING without duration", e.Mode, e)
		}
	}
	if r.Comparison.Speedup != nil || r.Comparison.Efficiency != nil {
		t.Error("comparison should be undefined")
	}
}

func TestWriteReport(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	report := BuildReport(sampleState(), nil, time.Now())

	tests := []struct {
		name   string
		file   string
		decode func([]byte, any) error
	}{
		{"json", filepath.Join(dir, "report.json"), json.Unmarshal},
		{"yaml", filepath.Join(dir, "nested", "report.yaml"), yaml.Unmarshal},
		{"yml", filepath.Join(dir, "report.yml"), yaml.Unmarshal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := WriteReport(tt.file, report); err != nil {
				t.Fatalf("WriteReport() error = %v", err)
			}
			data, err := os.ReadFile(tt.file)
			if err != nil {
				t.Fatal(err)
			}
			var decoded map[string]any
			if err := tt.decode(data, &decoded); err != nil {
				t.Fatalf("decode: %v\n%s", err, data)
			}
			for _, key := range []string{"generated_at", "batch", "experiments", "comparison", "results"} {
				if _, ok := decoded[key]; !ok {
					t.Errorf("missing key %q in %s", key, data)
				}
			}
		})
	}

	t.Run("empty name is a no-op", func(t *testing.T) {
		t.Parallel()
		if err := WriteReport("", report); err != nil {
			t.Errorf("WriteReport(\"\") error = %v", err)
		}
	})
}

type fakeDownloader struct {
	fail map[string]bool
	got  []string
}

func (f *fakeDownloader) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	f.got = append(f.got, path)
	if f.fail[path] {
		w.Write([]byte("partial"))
		return 7, errors.New("boom")
	}
	n, err := io.WriteString(w, "content of "+path)
	return int64(n), err
}

func TestDownloadArtifacts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d := &fakeDownloader{}
	var out bytes.Buffer

	n, err := DownloadArtifacts(context.Background(), d, sampleState().Results, dir, &out)
	if err != nil {
		t.Fatalf("DownloadArtifacts() error = %v", err)
	}
	if n != 3 {
		t.Errorf("written = %d, want 3", n)
	}
	data, err := os.ReadFile(filepath.Join(dir, "a.png"))
	if err != nil || string(data) != "content of spectrograms/a.png" {
		t.Errorf("a.png = %q, %v", data, err)
	}
	if !strings.Contains(out.String(), filepath.Join(dir, "b.wav")) {
		t.Errorf("output should list b.wav, got %q", out.String())
	}
}

func TestDownloadArtifacts_Failure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d := &fakeDownloader{fail: map[string]bool{"spectrograms/a.png": true}}

	n, err := DownloadArtifacts(context.Background(), d, sampleState().Results, dir, io.Discard)
	if err == nil {
		t.Fatal("expected an error")
	}
	if n != 1 {
		t.Errorf("written = %d, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.png")); !os.IsNotExist(err) {
		t.Errorf("partial file should be removed, stat err = %v", err)
	}
	if len(d.got) != 2 {
		t.Errorf("download should stop at the first error, got %v", d.got)
	}
}
