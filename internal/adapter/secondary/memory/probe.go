package memory

import (
	"fmt"
	"math"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v3/mem"

	"micros-shell/internal/domain"
)

// RuntimeProbe reports the free heap of this process: the memory limit (or
// the OS-reserved heap when no limit is set) minus live objects.
type RuntimeProbe struct{}

var _ domain.MemoryProbe = RuntimeProbe{}

// Collect runs a garbage collection pass.
func (RuntimeProbe) Collect() { runtime.GC() }

// Free returns the free heap in bytes.
func (RuntimeProbe) Free() (int64, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	total := int64(ms.HeapSys)
	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		total = limit
	}
	free := total - int64(ms.HeapAlloc)
	if free < 0 {
		free = 0
	}
	return free, nil
}

// HostProbe reports memory available to new processes on the host.
type HostProbe struct{}

var _ domain.MemoryProbe = HostProbe{}

// Collect releases this process's unused heap back to the OS.
func (HostProbe) Collect() { debug.FreeOSMemory() }

// Free returns the host available memory in bytes.
func (HostProbe) Free() (int64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("read host memory: %w", err)
	}
	return int64(v.Available), nil
}

// New returns the probe for kind ("runtime" or "host").
func New(kind string) (domain.MemoryProbe, error) {
	switch kind {
	case "", "runtime":
		return RuntimeProbe{}, nil
	case "host":
		return HostProbe{}, nil
	default:
		return nil, fmt.Errorf("unknown memory probe %q", kind)
	}
}
