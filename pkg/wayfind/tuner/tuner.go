// Package tuner provides resource detection and worker-count calculation
// for the wayfind path searcher. It detects CPU cores and RAM and derives
// walker concurrency and index-store memory sizing from them.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the available (free) RAM in bytes.
	// This may be an estimate based on system heuristics.
	AvailableRAM int64
}
