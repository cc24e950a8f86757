package monitoring

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats junta stats del proceso y del host. El pipeline de
// similitudes es O(n²) y su límite real es la memoria, así que esto va en
// el healthcheck de ambos binarios.
type SystemStats struct {
	Timestamp time.Time `json:"timestamp"`

	// proceso
	NumGoroutine int    `json:"numGoroutine"`
	AllocBytes   uint64 `json:"allocBytes"`
	SysBytes     uint64 `json:"sysBytes"`
	NumGC        uint32 `json:"numGc"`

	// host
	TotalRAM        uint64    `json:"totalRam"`
	AvailableRAM    uint64    `json:"availableRam"`
	UsedRAMPercent  float64   `json:"usedRamPercent"`
	TotalCPUCores   int       `json:"totalCpuCores"`
	CPUUsagePercent []float64 `json:"cpuUsagePercent"`
}

// Snapshot toma las stats actuales. Los errores de gopsutil se ignoran:
// el healthcheck no debe caerse porque un sensor no responda.
func Snapshot() SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	st := SystemStats{
		Timestamp:     time.Now(),
		NumGoroutine:  runtime.NumGoroutine(),
		AllocBytes:    memStats.Alloc,
		SysBytes:      memStats.Sys,
		NumGC:         memStats.NumGC,
		TotalCPUCores: runtime.NumCPU(),
	}

	if vMem, err := mem.VirtualMemory(); err == nil && vMem != nil {
		st.TotalRAM = vMem.Total
		st.AvailableRAM = vMem.Available
		st.UsedRAMPercent = vMem.UsedPercent
	}
	if cpuPercent, err := cpu.Percent(0, true); err == nil {
		st.CPUUsagePercent = cpuPercent
	}

	return st
}
