package metrics

import (
	"testing"
	"time"
)

type fixedWatches int

func (f fixedWatches) Active() int { return int(f) }

func TestMemoryCollector_Snapshot(t *testing.T) {
	t.Parallel()

	snap := NewMemoryCollector(nil).Snapshot()
	if snap.HeapAlloc == 0 || snap.Sys == 0 {
		t.Errorf("snapshot = %+v, want non-zero heap and sys", snap)
	}
	if snap.Goroutines < 1 {
		t.Errorf("Goroutines = %d", snap.Goroutines)
	}
	if snap.ActiveWatches != 0 {
		t.Errorf("ActiveWatches = %d without a counter", snap.ActiveWatches)
	}
}

func TestMemoryCollector_Watches(t *testing.T) {
	t.Parallel()
	if got := NewMemoryCollector(fixedWatches(2)).Snapshot().ActiveWatches; got != 2 {
		t.Errorf("ActiveWatches = %d, want 2", got)
	}
}

func TestMemorySnapshot_Derived(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		snap      MemorySnapshot
		wantUsage float64
		wantPause time.Duration
	}{
		{"unsized heap", MemorySnapshot{HeapAlloc: 10}, 0, 0},
		{"half used", MemorySnapshot{HeapAlloc: 512, HeapSys: 1024, PauseTotalNs: 1_500_000}, 50, 1500 * time.Microsecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.snap.HeapUsage(); got != tt.wantUsage {
				t.Errorf("HeapUsage() = %v, want %v", got, tt.wantUsage)
			}
			if got := tt.snap.GCPause(); got != tt.wantPause {
				t.Errorf("GCPause() = %v, want %v", got, tt.wantPause)
			}
		})
	}
}
