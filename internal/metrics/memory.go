package metrics

import (
	"runtime"
	"time"
)

// MemorySnapshot is a point-in-time reading of the client process.
type MemorySnapshot struct {
	HeapAlloc    uint64
	HeapSys      uint64
	Sys          uint64
	NumGC        uint32
	PauseTotalNs uint64
	Goroutines   int
	// ActiveWatches counts status watches still polling the service.
	ActiveWatches int
}

// HeapUsage returns HeapAlloc as a percentage of HeapSys, or 0 before the
// heap has been sized.
func (s MemorySnapshot) HeapUsage() float64 {
	if s.HeapSys == 0 {
		return 0
	}
	return float64(s.HeapAlloc) / float64(s.HeapSys) * 100
}

// GCPause returns the cumulative GC pause time.
func (s MemorySnapshot) GCPause() time.Duration {
	return time.Duration(s.PauseTotalNs)
}

// WatchCounter reports how many experiments are being polled.
// *polling.Scheduler implements it.
type WatchCounter interface {
	Active() int
}

// MemoryCollector samples the runtime and, when configured, the number of
// live status watches.
type MemoryCollector struct {
	watches WatchCounter
}

// NewMemoryCollector creates a collector. watches may be nil.
func NewMemoryCollector(watches WatchCounter) *MemoryCollector {
	return &MemoryCollector{watches: watches}
}

// Snapshot reads the current statistics. runtime.ReadMemStats stops the
// world briefly, so callers sample on a ticker rather than per frame.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap := MemorySnapshot{
		HeapAlloc:    ms.HeapAlloc,
		HeapSys:      ms.HeapSys,
		Sys:          ms.Sys,
		NumGC:        ms.NumGC,
		PauseTotalNs: ms.PauseTotalNs,
		Goroutines:   runtime.NumGoroutine(),
	}
	if mc.watches != nil {
		snap.ActiveWatches = mc.watches.Active()
	}
	return snap
}
