package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Source is the set of OS counters the collector reads.
type Source interface {
	HostInfo(ctx context.Context) (*host.InfoStat, error)
	BootTime(ctx context.Context) (uint64, error)
	CPUPercent(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
	CPUCounts(ctx context.Context, logical bool) (int, error)
	CPUInfo(ctx context.Context) ([]cpu.InfoStat, error)
	Temperatures(ctx context.Context) ([]host.TemperatureStat, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error)
}

// PsutilSource reads the local host through gopsutil.
type PsutilSource struct{}

func (PsutilSource) HostInfo(ctx context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(ctx)
}

func (PsutilSource) BootTime(ctx context.Context) (uint64, error) {
	return host.BootTimeWithContext(ctx)
}

func (PsutilSource) CPUPercent(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error) {
	return cpu.PercentWithContext(ctx, interval, percpu)
}

func (PsutilSource) CPUCounts(ctx context.Context, logical bool) (int, error) {
	return cpu.CountsWithContext(ctx, logical)
}

func (PsutilSource) CPUInfo(ctx context.Context) ([]cpu.InfoStat, error) {
	return cpu.InfoWithContext(ctx)
}

func (PsutilSource) Temperatures(ctx context.Context) ([]host.TemperatureStat, error) {
	return host.SensorsTemperaturesWithContext(ctx)
}

func (PsutilSource) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (PsutilSource) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}
