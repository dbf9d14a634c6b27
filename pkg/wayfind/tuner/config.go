package tuner

// Worker configuration limits.
const (
	// maxWorkers is the maximum number of walk workers.
	maxWorkers = 64

	// minWalkWorkers is the minimum number of walk workers. Directory
	// traversal is metadata-heavy and benefits from parallelism even on
	// small systems.
	minWalkWorkers = 4
)

// Memtable sizing constants for the badger-backed stores.
const (
	// minMemtableSize keeps badger functional on tiny systems.
	minMemtableSize = 8 << 20 // 8 MiB

	// maxMemtableSize caps memory spent on the index store.
	maxMemtableSize = 128 << 20 // 128 MiB

	// memtableFraction is the fraction of available RAM given to the
	// store's memtable.
	memtableFraction = 0.02
)

// OptimalConfig contains tuned configuration for the detected system.
type OptimalConfig struct {
	// WalkWorkers is the fastwalk worker count for direct searches.
	WalkWorkers int

	// IndexWorkers is the fastwalk worker count for daemon index builds.
	// Index builds run in the background, so they get fewer workers than
	// interactive searches.
	IndexWorkers int

	// MemtableSize is the badger memtable size in bytes for the cache and
	// index stores.
	MemtableSize int64
}

// Calculate returns optimal configuration based on system resources.
//
// WalkWorkers is max(NumCPU, 4) capped at 64: traversal spends most of its
// time waiting on the filesystem, so oversubscribing the cores pays off.
// IndexWorkers is half of that, at least one.
func Calculate(resources SystemResources) OptimalConfig {
	walkWorkers := max(resources.CPUCores, minWalkWorkers)
	walkWorkers = min(walkWorkers, maxWorkers)

	indexWorkers := max(walkWorkers/2, 1)

	return OptimalConfig{
		WalkWorkers:  walkWorkers,
		IndexWorkers: indexWorkers,
		MemtableSize: calculateMemtableSize(resources.AvailableRAM),
	}
}

// CalculateWithOverrides applies a user worker override to the optimal
// config. If workerOverride is greater than 0, both worker counts are set
// to that value, still respecting the maximum cap. Zero or negative keeps
// the calculated values.
func CalculateWithOverrides(resources SystemResources, workerOverride int) OptimalConfig {
	config := Calculate(resources)

	if workerOverride > 0 {
		workers := min(workerOverride, maxWorkers)
		config.WalkWorkers = workers
		config.IndexWorkers = workers
	}

	return config
}

// calculateMemtableSize determines store memtable size from available RAM.
func calculateMemtableSize(availableRAM int64) int64 {
	size := int64(float64(availableRAM) * memtableFraction)
	size = max(size, minMemtableSize)
	size = min(size, maxMemtableSize)
	return size
}
