package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/orchestration"
)

func TestPresentStatus(t *testing.T) {
	t.Parallel()
	st := sampleState()
	st.Serial = experiment.Snapshot{Status: experiment.StatusFailed, Err: errors.New("service failed")}

	var out bytes.Buffer
	CLIResultPresenter{}.PresentStatus(st, &out)
	got := out.String()

	for _, want := range []string{"Batch 42 (demo), 2 files", "Mode", "SERIAL", "FAILED", "PARALLEL", "COMPLETED", "2.00 s", "SERIAL: service failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPresentComparison(t *testing.T) {
	t.Parallel()

	t.Run("defined", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		CLIResultPresenter{}.PresentComparison(sampleState(), &out)
		for _, want := range []string{"Serial:     8.00 s", "Parallel:   2.00 s", "Speedup:    4.00x", "Efficiency: 50.0% (8 cores)"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("output missing %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("undefined", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		CLIResultPresenter{}.PresentComparison(orchestration.State{}, &out)
		if !strings.Contains(out.String(), "Speedup: n/a") {
			t.Errorf("expected n/a, got %q", out.String())
		}
		if strings.Contains(out.String(), "Efficiency") {
			t.Error("efficiency must not be shown without a speedup")
		}
	})
}

func TestPresentResults(t *testing.T) {
	t.Parallel()

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		CLIResultPresenter{MaxRows: 1}.PresentResults(sampleState(), &out)
		got := out.String()
		for _, want := range []string{"Results (PARALLEL)", "2 files processed", "a.wav", "120.0 ms", "a.png", "... 1 more"} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
		if strings.Contains(got, "b.wav") {
			t.Errorf("b.wav should be truncated:\n%s", got)
		}
	})

	t.Run("verbose prints urls", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		CLIResultPresenter{MaxRows: 1, Verbose: true, Resolver: prefixResolver("http://media/")}.PresentResults(sampleState(), &out)
		got := out.String()
		for _, want := range []string{"b.wav", "http://media/processed/a.wav", "http://media/spectrograms/a.png"} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
		if strings.Contains(got, "more") {
			t.Error("verbose output must not truncate")
		}
	})

	t.Run("no results mode", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		CLIResultPresenter{}.PresentResults(orchestration.State{}, &out)
		if out.Len() != 0 {
			t.Errorf("expected no output, got %q", out.String())
		}
	})
}

func TestHandleError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantHint string
	}{
		{"timeout", apperrors.TimeoutError{Operation: "run"}, apperrors.ExitErrorTimeout, "--timeout"},
		{"canceled", context.Canceled, apperrors.ExitErrorCanceled, "canceled"},
		{"no batch", fmt.Errorf("start: %w", orchestration.ErrNoBatch), apperrors.ExitErrorGeneric, "upload files first"},
		{"server error", apperrors.APIError{StatusCode: 502}, apperrors.ExitErrorGeneric, "internal error"},
		{"plain", errors.New("boom"), apperrors.ExitErrorGeneric, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			code := CLIResultPresenter{}.HandleError(tt.err, &out)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if !strings.HasPrefix(out.String(), "Error: ") {
				t.Errorf("output = %q, want Error prefix", out.String())
			}
			if tt.wantHint != "" && !strings.Contains(out.String(), tt.wantHint) {
				t.Errorf("output %q missing hint %q", out.String(), tt.wantHint)
			}
		})
	}
}

func TestQuietResultPresenter(t *testing.T) {
	t.Parallel()
	var out, errOut bytes.Buffer
	q := QuietResultPresenter{ErrWriter: &errOut}
	st := orchestration.State{Comparison: orchestration.Compare(
		experiment.Snapshot{Status: experiment.StatusCompleted, Duration: 9, HasDuration: true},
		experiment.Snapshot{Status: experiment.StatusCompleted, Duration: 3, HasDuration: true}, 8)}

	q.PresentStatus(st, &out)
	q.PresentComparison(st, &out)
	q.PresentResults(st, &out)
	if got := out.String(); got != "3.00\n" {
		t.Errorf("output = %q, want %q", got, "3.00\n")
	}

	code := q.HandleError(orchestration.ErrNoBatch, &out)
	if code != apperrors.ExitErrorGeneric {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(errOut.String(), "no active batch") || out.String() != "3.00\n" {
		t.Errorf("errors must go to ErrWriter only; out=%q err=%q", out.String(), errOut.String())
	}
}
