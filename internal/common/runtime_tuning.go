package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles tuned for quote-serving latency. Quote traffic is
// allocation-heavy (per-request route slices and big.Int math), so GOGC runs
// high with GOMEMLIMIT as the backstop: fewer GC cycles on the hot path in
// exchange for a larger steady-state heap.
const (
	smallServerGOGC     = 400
	smallServerMemLimit = 2 * 1024 * 1024 * 1024

	largeServerGOGC     = 800
	largeServerMemLimit = 8 * 1024 * 1024 * 1024
)

// InitRuntime applies the runtime profile for the detected machine size.
// GOGC, GOMAXPROCS and GOMEMLIMIT env vars always win over the profile.
func InitRuntime() {
	gogc, memLimit := smallServerGOGC, int64(smallServerMemLimit)
	if runtime.NumCPU() > 4 {
		gogc, memLimit = largeServerGOGC, int64(largeServerMemLimit)
	}

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(gogc)
		log.Info().Int("GOGC", gogc).Msg("[runtime] set GC percent")
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(memLimit)
		log.Info().Int64("GOMEMLIMIT_bytes", memLimit).Msg("[runtime] set memory limit")
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_sys_mb", memStats.HeapSys/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] runtime configured")
}
