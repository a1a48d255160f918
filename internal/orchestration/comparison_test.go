package orchestration

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/pdcbench/internal/experiment"
)

func completed(mode experiment.Mode, seconds float64, results ...experiment.Result) experiment.Snapshot {
	return experiment.Snapshot{Mode: mode, Status: experiment.StatusCompleted, Duration: seconds, HasDuration: true, Results: results}
}

func TestSpeedupFromDurations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		serial   float64
		parallel float64
		want     string
		defined  bool
	}{
		{"double", 4.0, 2.0, "2.00", true},
		{"quadruple", 10.0, 2.5, "4.00", true},
		{"slowdown", 1.0, 4.0, "0.25", true},
		{"zero parallel", 3.0, 0, "", false},
		{"zero serial", 0, 3.0, "", false},
		{"negative", -1, 2, "", false},
		{"infinite", math.Inf(1), 2, "", false},
		{"nan", math.NaN(), 2, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := SpeedupFromDurations(tt.serial, tt.parallel)
			if ok != tt.defined {
				t.Fatalf("defined = %v, want %v", ok, tt.defined)
			}
			if ok && FormatSpeedup(got) != tt.want {
				t.Errorf("speedup = %s, want %s", FormatSpeedup(got), tt.want)
			}
		})
	}
}

func TestSpeedup_RequiresBothCompleted(t *testing.T) {
	t.Parallel()
	processing := experiment.Snapshot{Mode: experiment.ModeParallel, Status: experiment.StatusProcessing}
	failed := experiment.Snapshot{Mode: experiment.ModeParallel, Status: experiment.StatusFailed}
	serial := completed(experiment.ModeSerial, 4)
	for _, parallel := range []experiment.Snapshot{processing, failed, {}} {
		if _, ok := Speedup(serial, parallel); ok {
			t.Errorf("speedup defined with PARALLEL %s", parallel.Status)
		}
	}
	if v, ok := Speedup(serial, completed(experiment.ModeParallel, 2)); !ok || v != 2 {
		t.Errorf("Speedup() = %v, %v", v, ok)
	}
}

func TestEfficiency(t *testing.T) {
	t.Parallel()
	tests := []struct {
		speedup float64
		cores   int
		want    string
		defined bool
	}{
		{4.0, 8, "50.0%", true},
		{8.0, 8, "100.0%", true},
		{2.0, 8, "25.0%", true},
		{3.0, 4, "75.0%", true},
		{2.0, 0, "", false},
		{0, 8, "", false},
	}
	for _, tt := range tests {
		got, ok := Efficiency(tt.speedup, tt.cores)
		if ok != tt.defined {
			t.Errorf("Efficiency(%v, %d) defined = %v", tt.speedup, tt.cores, ok)
			continue
		}
		if ok && FormatEfficiency(got) != tt.want {
			t.Errorf("Efficiency(%v, %d) = %s, want %s", tt.speedup, tt.cores, FormatEfficiency(got), tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()
	c := Compare(completed(experiment.ModeSerial, 12), experiment.Snapshot{Status: experiment.StatusProcessing}, 8)
	if c.SerialSeconds != 12 || c.ParallelSeconds != 0 || c.SpeedupDefined || c.EfficiencyDefined || c.Cores != 8 {
		t.Errorf("partial comparison = %+v", c)
	}
	c = Compare(completed(experiment.ModeSerial, 12), completed(experiment.ModeParallel, 3), 8)
	if !c.SpeedupDefined || c.Speedup != 4 || !c.EfficiencyDefined || c.Efficiency != 50 {
		t.Errorf("full comparison = %+v", c)
	}
}

func TestSelectResults(t *testing.T) {
	t.Parallel()
	serialRes := []experiment.Result{{ID: "s"}}
	parallelRes := []experiment.Result{{ID: "p"}}
	tests := []struct {
		name     string
		serial   experiment.Snapshot
		parallel experiment.Snapshot
		wantMode experiment.Mode
		wantID   experiment.ID
	}{
		{"both completed prefers parallel", completed(experiment.ModeSerial, 1, serialRes...), completed(experiment.ModeParallel, 1, parallelRes...), experiment.ModeParallel, "p"},
		{"only serial", completed(experiment.ModeSerial, 1, serialRes...), experiment.Snapshot{Status: experiment.StatusFailed}, experiment.ModeSerial, "s"},
		{"only parallel", experiment.Snapshot{Status: experiment.StatusProcessing}, completed(experiment.ModeParallel, 1, parallelRes...), experiment.ModeParallel, "p"},
		{"none", experiment.Snapshot{Status: experiment.StatusPending}, experiment.Snapshot{Status: experiment.StatusFailed}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mode, results := SelectResults(tt.serial, tt.parallel)
			if mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", mode, tt.wantMode)
			}
			if tt.wantID == "" {
				if len(results) != 0 {
					t.Errorf("results = %+v, want empty", results)
				}
				return
			}
			if len(results) != 1 || results[0].ID != tt.wantID {
				t.Errorf("results = %+v, want %s", results, tt.wantID)
			}
		})
	}
}

func TestSelectResults_ReturnsCopy(t *testing.T) {
	t.Parallel()
	p := completed(experiment.ModeParallel, 1, experiment.Result{ID: "p"})
	_, results := SelectResults(experiment.Snapshot{}, p)
	results[0].ID = "mutated"
	if p.Results[0].ID != "p" {
		t.Error("SelectResults must not alias snapshot results")
	}
}

// TestSpeedup_PropertyBased checks that the speedup, when defined, is the
// finite positive ratio of the durations and that efficiency scales it by
// the core count.
func TestSpeedup_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("speedup is finite and equals serial/parallel", prop.ForAll(
		func(serial, parallel float64) bool {
			v, ok := SpeedupFromDurations(serial, parallel)
			if !ok {
				return serial <= 0 || parallel <= 0
			}
			return !math.IsInf(v, 0) && v > 0 && math.Abs(v*parallel-serial) <= 1e-9*serial
		},
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0, 1e6),
	))

	properties.Property("efficiency is speedup over cores in percent", prop.ForAll(
		func(speedup float64, cores int) bool {
			e, ok := Efficiency(speedup, cores)
			return ok && math.Abs(e-speedup*100/float64(cores)) < 1e-9*e+1e-12
		},
		gen.Float64Range(0.001, 64),
		gen.IntRange(1, 256),
	))

	properties.TestingRun(t)
}
