package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is a host and runtime snapshot reported on /health
type SystemStats struct {
	Timestamp time.Time `json:"timestamp"`

	CPUPercent float64 `json:"cpu_percent"`
	CPUCount   int     `json:"cpu_count"`

	MemTotal       uint64  `json:"mem_total_bytes"`
	MemUsedPercent float64 `json:"mem_used_percent"`

	// Uploaded media is spooled here before being sent to collaborators
	TempDir             string  `json:"temp_dir"`
	TempDiskFree        uint64  `json:"temp_disk_free_bytes"`
	TempDiskUsedPercent float64 `json:"temp_disk_used_percent"`

	HeapAlloc    uint64 `json:"heap_alloc_bytes"`
	HeapSys      uint64 `json:"heap_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
	NumGoroutine int    `json:"num_goroutine"`
}

// CollectSystemStats samples host stats with gopsutil and runtime stats
// from the Go runtime. Host probes that fail leave their fields zero.
func CollectSystemStats(ctx context.Context, tempDir string) SystemStats {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	stats := SystemStats{Timestamp: time.Now(), TempDir: tempDir}

	// zero interval compares against the previous call instead of blocking
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.CPUCount = n
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemTotal = vm.Total
		stats.MemUsedPercent = vm.UsedPercent
	}
	if du, err := disk.UsageWithContext(ctx, tempDir); err == nil {
		stats.TempDiskFree = du.Free
		stats.TempDiskUsedPercent = du.UsedPercent
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats.HeapAlloc = ms.HeapAlloc
	stats.HeapSys = ms.HeapSys
	stats.NumGC = ms.NumGC
	stats.NumGoroutine = runtime.NumGoroutine()

	return stats
}

// SystemMonitor samples SystemStats on an interval and feeds the GC
// counters into Metrics.
type SystemMonitor struct {
	interval time.Duration
	tempDir  string
	metrics  *Metrics
	logger   *Logger

	mutex  sync.RWMutex
	latest SystemStats

	stopOnce    sync.Once
	stopChannel chan struct{}
}

// NewSystemMonitor creates a monitor; call Start to begin sampling
func NewSystemMonitor(interval time.Duration, tempDir string, metrics *Metrics, logger *Logger) *SystemMonitor {
	return &SystemMonitor{
		interval:    interval,
		tempDir:     tempDir,
		metrics:     metrics,
		logger:      logger,
		stopChannel: make(chan struct{}),
	}
}

// Start begins sampling in a goroutine
func (sm *SystemMonitor) Start() {
	sm.sample()
	go func() {
		ticker := time.NewTicker(sm.interval)
		defer ticker.Stop()

		slog.Info("Starting system monitoring", "interval_ms", sm.interval.Milliseconds())

		for {
			select {
			case <-ticker.C:
				sm.sample()
			case <-sm.stopChannel:
				slog.Info("System monitoring stopped")
				return
			}
		}
	}()
}

// Stop stops sampling; it is safe to call more than once
func (sm *SystemMonitor) Stop() {
	sm.stopOnce.Do(func() { close(sm.stopChannel) })
}

func (sm *SystemMonitor) sample() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats := CollectSystemStats(ctx, sm.tempDir)

	sm.mutex.Lock()
	sm.latest = stats
	sm.mutex.Unlock()

	if sm.metrics != nil {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		sm.metrics.RecordGCMetrics(int64(ms.NumGC), int64(ms.PauseTotalNs), int64(ms.HeapAlloc), int64(ms.HeapSys))
	}

	if sm.logger != nil && stats.TempDiskUsedPercent > 90 {
		sm.logger.SystemLogger("temp_disk_pressure", fmt.Sprintf(
			"dir:%s used:%.1f%% free:%dMB", stats.TempDir, stats.TempDiskUsedPercent, stats.TempDiskFree/(1024*1024)))
	}
}

// Latest returns the most recent snapshot
func (sm *SystemMonitor) Latest() SystemStats {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.latest
}
