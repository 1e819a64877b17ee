// Package collector reads host telemetry and normalizes it into the units
// served by the API: decimal gigabytes, percentages in [0,100] and MHz.
package collector

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/DGHeroin/HostStats/logging"
	"github.com/DGHeroin/HostStats/status"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	BootTimeLayout = "02 January 2006 15:04:05"

	bytesPerGB  = 1e9
	gbPrecision = 1e10

	DefaultSampleWindow = time.Second
	DefaultDiskPath     = "/"
)

var DefaultSensors = []string{"cpu_thermal", "coretemp", "k10temp", "zenpower", "acpitz"}

var osTypes = map[string]string{
	"linux":   "Linux",
	"darwin":  "Darwin",
	"windows": "Windows",
	"freebsd": "FreeBSD",
	"openbsd": "OpenBSD",
	"netbsd":  "NetBSD",
	"solaris": "SunOS",
	"aix":     "AIX",
}

type Options struct {
	// SampleWindow is how long CPU usage is measured for.
	SampleWindow time.Duration
	// Sensors are temperature sensor key prefixes, tried in order.
	Sensors  []string
	DiskPath string

	Fs       afero.Fs
	Now      func() time.Time
	Location *time.Location
	Hostname func() (string, error)
	Logger   *logging.Logger
}

type Collector struct {
	src          Source
	fs           afero.Fs
	now          func() time.Time
	loc          *time.Location
	hostname     func() (string, error)
	sampleWindow time.Duration
	sensors      []string
	diskPath     string
	logger       *logging.Logger
}

func New(src Source, opts Options) *Collector {
	c := &Collector{
		src:          src,
		fs:           opts.Fs,
		now:          opts.Now,
		loc:          opts.Location,
		hostname:     opts.Hostname,
		sampleWindow: opts.SampleWindow,
		sensors:      opts.Sensors,
		diskPath:     opts.DiskPath,
		logger:       opts.Logger,
	}
	if c.fs == nil {
		c.fs = afero.NewReadOnlyFs(afero.NewOsFs())
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.hostname == nil {
		c.hostname = os.Hostname
	}
	if c.sampleWindow <= 0 {
		c.sampleWindow = DefaultSampleWindow
	}
	if len(c.sensors) == 0 {
		c.sensors = DefaultSensors
	}
	if c.diskPath == "" {
		c.diskPath = DefaultDiskPath
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	return c
}

func (c *Collector) SampleWindow() time.Duration {
	return c.sampleWindow
}

// Identity never fails: fields the host cannot report are left empty.
func (c *Collector) Identity(ctx context.Context) status.Identity {
	id := status.Identity{
		OSType: osType(runtime.GOOS),
		OSName: prettyName(c.fs),
	}
	id.KernelVersion = kernelBuild(c.fs)

	info, err := c.src.HostInfo(ctx)
	if err != nil {
		c.logger.Debug("host info unavailable", "error", err)
	}
	if info != nil {
		id.Hostname = info.Hostname
		if info.OS != "" {
			id.OSType = osType(info.OS)
		}
		id.OSVersion = info.KernelVersion
		id.Arch = info.KernelArch
		if id.OSName == "" {
			id.OSName = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		}
	}
	if id.Hostname == "" {
		if name, err := c.hostname(); err == nil {
			id.Hostname = name
		}
	}
	return id
}

func osType(goos string) string {
	if name, ok := osTypes[strings.ToLower(goos)]; ok {
		return name
	}
	return goos
}

type UptimeInfo struct {
	BootTime time.Time
	LastBoot string
	Uptime   status.Uptime
}

func (c *Collector) Uptime(ctx context.Context) (UptimeInfo, error) {
	boot, err := c.src.BootTime(ctx)
	if err != nil {
		return UptimeInfo{}, fmt.Errorf("boot time: %w", err)
	}
	bootTime := time.Unix(int64(boot), 0).In(c.loc)
	elapsed := c.now().Sub(bootTime)
	return UptimeInfo{
		BootTime: bootTime,
		LastBoot: bootTime.Format(BootTimeLayout),
		Uptime:   DecomposeUptime(int64(elapsed / time.Second)),
	}, nil
}

// DecomposeUptime splits elapsed seconds into day, hour, minute and second
// remainders. Negative input is treated as zero.
func DecomposeUptime(elapsed int64) status.Uptime {
	if elapsed < 0 {
		elapsed = 0
	}
	return status.Uptime{
		Days:    elapsed / 86400,
		Hours:   elapsed % 86400 / 3600,
		Minutes: elapsed % 3600 / 60,
		Seconds: elapsed % 60,
	}
}

// CPU blocks for one sample window. The aggregate and per-core samples are
// taken concurrently over the same window.
func (c *Collector) CPU(ctx context.Context) (status.CPUStats, error) {
	var total, perCore []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.src.CPUPercent(gctx, c.sampleWindow, false)
		if err != nil {
			return fmt.Errorf("cpu percent: %w", err)
		}
		total = v
		return nil
	})
	g.Go(func() error {
		v, err := c.src.CPUPercent(gctx, c.sampleWindow, true)
		if err != nil {
			return fmt.Errorf("per-core cpu percent: %w", err)
		}
		perCore = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return status.CPUStats{}, err
	}

	stats := status.CPUStats{
		Temp:         c.temperature(ctx),
		Freq:         c.frequency(ctx),
		UsagePerCore: make(status.PerCore, len(perCore)),
	}
	if len(total) > 0 {
		stats.Usage = clampPercent(total[0])
	}
	for i, v := range perCore {
		stats.UsagePerCore[i] = clampPercent(v)
	}

	count, err := c.src.CPUCounts(ctx, true)
	if err != nil {
		c.logger.Debug("cpu count unavailable", "error", err)
	}
	if len(perCore) > 0 && count != len(perCore) {
		count = len(perCore)
	}
	stats.Count = count
	return stats, nil
}

// temperature returns the first sensor matching the configured prefixes, or
// nil when the host has none.
func (c *Collector) temperature(ctx context.Context) *float64 {
	temps, err := c.src.Temperatures(ctx)
	if err != nil && len(temps) == 0 {
		c.logger.Debug("temperature sensors unavailable", "error", err)
		return nil
	}
	for _, prefix := range c.sensors {
		for _, t := range temps {
			if strings.HasPrefix(t.SensorKey, prefix) && !math.IsNaN(t.Temperature) {
				v := t.Temperature
				return &v
			}
		}
	}
	return nil
}

func (c *Collector) frequency(ctx context.Context) float64 {
	if mhz, ok := currentFreqMHz(c.fs); ok {
		return mhz
	}
	info, err := c.src.CPUInfo(ctx)
	if err != nil || len(info) == 0 {
		return 0
	}
	return info[0].Mhz
}

func (c *Collector) Memory(ctx context.Context) (status.MemStats, error) {
	vm, err := c.src.VirtualMemory(ctx)
	if err != nil {
		return status.MemStats{}, fmt.Errorf("virtual memory: %w", err)
	}
	return status.MemStats{
		Total:     ToGB(vm.Total),
		Used:      ToGB(vm.Used),
		Available: ToGB(vm.Available),
		Free:      ToGB(vm.Free),
		Buffers:   ToGB(vm.Buffers),
		Cached:    ToGB(vm.Cached),
		Percent:   clampPercent(vm.UsedPercent),
	}, nil
}

func (c *Collector) Disk(ctx context.Context) (status.DiskStats, error) {
	usage, err := c.src.DiskUsage(ctx, c.diskPath)
	if err != nil {
		return status.DiskStats{}, fmt.Errorf("disk usage %s: %w", c.diskPath, err)
	}
	return status.DiskStats{
		Total:   ToGB(usage.Total),
		Used:    ToGB(usage.Used),
		Free:    ToGB(usage.Free),
		Percent: clampPercent(usage.UsedPercent),
	}, nil
}

// ToGB converts bytes to decimal gigabytes rounded to 10 places.
func ToGB(b uint64) float64 {
	return math.Round(float64(b)/bytesPerGB*gbPrecision) / gbPrecision
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
