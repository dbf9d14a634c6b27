package tuner

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	resources, err := Detect()
	if err != nil {
		t.Fatalf("Detect() returned error: %v", err)
	}

	if resources.CPUCores <= 0 {
		t.Errorf("CPUCores = %d, want > 0", resources.CPUCores)
	}
	if resources.CPUCores != runtime.NumCPU() {
		t.Errorf("CPUCores = %d, want %d (runtime.NumCPU())", resources.CPUCores, runtime.NumCPU())
	}

	minRAM := int64(512 * 1024 * 1024)
	if resources.TotalRAM < minRAM {
		t.Errorf("TotalRAM = %d bytes, want >= %d bytes (512MB)", resources.TotalRAM, minRAM)
	}

	if resources.AvailableRAM <= 0 {
		t.Errorf("AvailableRAM = %d, want > 0", resources.AvailableRAM)
	}
	if resources.AvailableRAM > resources.TotalRAM {
		t.Errorf("AvailableRAM (%d) > TotalRAM (%d)", resources.AvailableRAM, resources.TotalRAM)
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name             string
		resources        SystemResources
		wantWalkWorkers  int
		wantIndexWorkers int
	}{
		{
			name: "small system (2 cores)",
			resources: SystemResources{
				CPUCores:     2,
				TotalRAM:     4 << 30,
				AvailableRAM: 2 << 30,
			},
			wantWalkWorkers:  4, // floor applies
			wantIndexWorkers: 2,
		},
		{
			name: "typical system (8 cores)",
			resources: SystemResources{
				CPUCores:     8,
				TotalRAM:     16 << 30,
				AvailableRAM: 8 << 30,
			},
			wantWalkWorkers:  8,
			wantIndexWorkers: 4,
		},
		{
			name: "huge system (128 cores)",
			resources: SystemResources{
				CPUCores:     128,
				TotalRAM:     256 << 30,
				AvailableRAM: 128 << 30,
			},
			wantWalkWorkers:  64, // cap applies
			wantIndexWorkers: 32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Calculate(tt.resources)
			if config.WalkWorkers != tt.wantWalkWorkers {
				t.Errorf("WalkWorkers = %d, want %d", config.WalkWorkers, tt.wantWalkWorkers)
			}
			if config.IndexWorkers != tt.wantIndexWorkers {
				t.Errorf("IndexWorkers = %d, want %d", config.IndexWorkers, tt.wantIndexWorkers)
			}
			if config.MemtableSize < minMemtableSize || config.MemtableSize > maxMemtableSize {
				t.Errorf("MemtableSize = %d, want within [%d, %d]",
					config.MemtableSize, int64(minMemtableSize), int64(maxMemtableSize))
			}
		})
	}
}

func TestCalculateWithOverrides(t *testing.T) {
	resources := SystemResources{
		CPUCores:     8,
		TotalRAM:     16 << 30,
		AvailableRAM: 8 << 30,
	}

	tests := []struct {
		name     string
		override int
		want     int
	}{
		{"no override", 0, 8},
		{"negative ignored", -3, 8},
		{"explicit workers", 12, 12},
		{"override capped", 200, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CalculateWithOverrides(resources, tt.override)
			if config.WalkWorkers != tt.want {
				t.Errorf("WalkWorkers = %d, want %d", config.WalkWorkers, tt.want)
			}
			if tt.override > 0 && config.IndexWorkers != tt.want {
				t.Errorf("IndexWorkers = %d, want %d", config.IndexWorkers, tt.want)
			}
		})
	}
}
