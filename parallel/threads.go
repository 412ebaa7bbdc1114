package parallel

import "runtime"

import "github.com/klauspost/cpuid/v2"

// Threads reports how many goroutines ForEach callers should run at most:
// the logical core count, or the Go runtime CPU count when it is unknown.
func Threads() int {
	if cpuid.CPU.LogicalCores > 0 {
		return cpuid.CPU.LogicalCores
	}
	return runtime.NumCPU()
}
