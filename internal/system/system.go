package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// FindLatestFile returns the most recently modified file in dir whose extension is one of exts
func FindLatestFile(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

// ListFiles returns the files in dir with one of exts, in directory order
func ListFiles(dir string, exts ...string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, f := range files {
		if !f.IsDir() && hasExt(f.Name(), exts) {
			out = append(out, filepath.Join(dir, f.Name()))
		}
	}
	return out, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// Stats is a snapshot of process and host resources
type Stats struct {
	Goroutines     int
	ProcessRSS     uint64  // bytes
	ProcessCPU     float64 // percent since process start
	HostMemUsed    float64 // percent
	HostMemTotal   uint64  // bytes
	HostCPUPercent float64
	HostCPUCount   int
}

// ResourceStats samples the current process and host. Host CPU is measured over sample.
func ResourceStats(ctx context.Context, sample time.Duration) (Stats, error) {
	stats := Stats{Goroutines: runtime.NumGoroutine()}

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return stats, fmt.Errorf("open process: %w", err)
	}
	if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
		stats.ProcessRSS = info.RSS
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		stats.ProcessCPU = pct
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("host memory: %w", err)
	}
	stats.HostMemUsed = vm.UsedPercent
	stats.HostMemTotal = vm.Total

	if pcts, err := cpu.PercentWithContext(ctx, sample, false); err == nil && len(pcts) > 0 {
		stats.HostCPUPercent = pcts[0]
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.HostCPUCount = n
	}
	return stats, nil
}

// Report formats stats the way the CLI prints them
func (s Stats) Report() string {
	return fmt.Sprintf(
		"--- [RESOURCE REPORT] ---\n"+
			"Goroutines: %d\n"+
			"Process RSS: %.1f MiB\n"+
			"Process CPU: %.1f%%\n"+
			"Host CPU: %.1f%% of %d cores\n"+
			"Host Memory: %.1f%% of %.1f GiB\n"+
			"-------------------------\n",
		s.Goroutines,
		float64(s.ProcessRSS)/(1<<20),
		s.ProcessCPU,
		s.HostCPUPercent, s.HostCPUCount,
		s.HostMemUsed, float64(s.HostMemTotal)/(1<<30),
	)
}
