package observe

// If tracking breaks, the tracked call MUST still run.
// If we are unsure, DO LESS.
// Observe the call. Never change its outcome.

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// MemoryUsage is a point-in-time memory snapshot in bytes
type MemoryUsage struct {
	HeapUsed  uint64 `json:"heap_used"`
	HeapTotal uint64 `json:"heap_total"`
	External  uint64 `json:"external"`
	RSS       uint64 `json:"rss"`
}

// MemorySource reports memory usage. ok=false means introspection is
// unavailable on this platform; implementations must not panic.
type MemorySource interface {
	MemoryUsage() (usage MemoryUsage, ok bool)
}

// RuntimeMemory reads the Go heap from the runtime and process RSS from gopsutil
type RuntimeMemory struct {
	proc *process.Process
}

// NewRuntimeMemory creates a memory source for the current process.
// RSS falls back to MemStats.Sys when the process handle is unavailable.
func NewRuntimeMemory() *RuntimeMemory {
	rm := &RuntimeMemory{}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		rm.proc = p
	}
	return rm
}

// MemoryUsage implements MemorySource
func (rm *RuntimeMemory) MemoryUsage() (usage MemoryUsage, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			usage, ok = MemoryUsage{}, false
		}
	}()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage = MemoryUsage{
		HeapUsed:  m.HeapAlloc,
		HeapTotal: m.HeapSys,
		External:  m.StackSys + m.OtherSys,
		RSS:       m.Sys,
	}

	if rm.proc != nil {
		if info, err := rm.proc.MemoryInfo(); err == nil && info != nil {
			usage.RSS = info.RSS
		}
	}

	return usage, true
}

// NoMemory is a source that never has data
type NoMemory struct{}

// MemoryUsage implements MemorySource
func (NoMemory) MemoryUsage() (MemoryUsage, bool) {
	return MemoryUsage{}, false
}

// HeapDelta returns end.HeapUsed - start.HeapUsed as a signed value
func HeapDelta(start, end MemoryUsage) int64 {
	return int64(end.HeapUsed) - int64(start.HeapUsed)
}
