package workers

import "runtime"

// ioPerCPU is the number of I/O-bound workers started per usable CPU.
const ioPerCPU = 2.0

// Count sizes a pool at perCPU workers per usable CPU, as reported by
// GOMAXPROCS so container CPU limits are honored. A positive override
// replaces the calculation. The result is at least 1 and, when limit is
// positive, at most limit.
func Count(override int, perCPU float64, limit int) int {
	n := override
	if n <= 0 {
		n = int(float64(runtime.GOMAXPROCS(0)) * perCPU)
	}
	return clamp(n, limit)
}

// ForIO sizes a pool of I/O-bound workers. Staging is dominated by copies
// from network storage and ffprobe runs.
func ForIO(override, limit int) int {
	return Count(override, ioPerCPU, limit)
}

func clamp(n, limit int) int {
	if limit > 0 && n > limit {
		n = limit
	}
	return max(n, 1)
}
