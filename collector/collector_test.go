package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DGHeroin/HostStats/status"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("unavailable")

type fakeSource struct {
	info     *host.InfoStat
	infoErr  error
	boot     uint64
	bootErr  error
	total    []float64
	perCore  []float64
	cpuErr   error
	count    int
	cpuInfo  []cpu.InfoStat
	temps    []host.TemperatureStat
	tempsErr error
	vm       *mem.VirtualMemoryStat
	vmErr    error
	usage    *disk.UsageStat
	usageErr error

	diskPath  string
	intervals []time.Duration
	inFlight  int32
	maxFlight int32
}

func (f *fakeSource) HostInfo(context.Context) (*host.InfoStat, error) { return f.info, f.infoErr }
func (f *fakeSource) BootTime(context.Context) (uint64, error)         { return f.boot, f.bootErr }
func (f *fakeSource) CPUCounts(context.Context, bool) (int, error)     { return f.count, nil }
func (f *fakeSource) CPUInfo(context.Context) ([]cpu.InfoStat, error)  { return f.cpuInfo, nil }

func (f *fakeSource) CPUPercent(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxFlight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxFlight, m, n) {
			break
		}
	}
	select {
	case <-time.After(interval):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.cpuErr != nil {
		return nil, f.cpuErr
	}
	if percpu {
		return f.perCore, nil
	}
	return f.total, nil
}

func (f *fakeSource) Temperatures(context.Context) ([]host.TemperatureStat, error) {
	return f.temps, f.tempsErr
}

func (f *fakeSource) VirtualMemory(context.Context) (*mem.VirtualMemoryStat, error) {
	return f.vm, f.vmErr
}

func (f *fakeSource) DiskUsage(_ context.Context, path string) (*disk.UsageStat, error) {
	f.diskPath = path
	return f.usage, f.usageErr
}

func newTestCollector(src Source, fs afero.Fs, now time.Time) *Collector {
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	return New(src, Options{
		SampleWindow: 10 * time.Millisecond,
		Fs:           fs,
		Now:          func() time.Time { return now },
		Location:     time.UTC,
		Hostname:     func() (string, error) { return "fallback-host", nil },
	})
}

func TestDecomposeUptime(t *testing.T) {
	assert.Equal(t, status.Uptime{Seconds: 1, Minutes: 1, Hours: 1, Days: 1}, DecomposeUptime(90061))
	assert.Equal(t, status.Uptime{}, DecomposeUptime(0))
	assert.Equal(t, status.Uptime{}, DecomposeUptime(-5))
	assert.Equal(t, status.Uptime{Seconds: 59, Minutes: 59, Hours: 23}, DecomposeUptime(86399))

	for _, e := range []int64{1, 59, 60, 61, 3599, 3600, 86400, 90061, 1234567, 987654321} {
		u := DecomposeUptime(e)
		assert.Equal(t, e, u.TotalSeconds(), "elapsed %d", e)
		assert.Less(t, u.Seconds, int64(60))
		assert.Less(t, u.Minutes, int64(60))
		assert.Less(t, u.Hours, int64(24))
	}
}

func TestUptime(t *testing.T) {
	now := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	boot := now.Add(-90061 * time.Second)
	src := &fakeSource{boot: uint64(boot.Unix())}

	info, err := newTestCollector(src, nil, now.Add(400*time.Millisecond)).Uptime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.Uptime{Seconds: 1, Minutes: 1, Hours: 1, Days: 1}, info.Uptime)
	assert.Equal(t, "04 March 2024 10:58:59", info.LastBoot)
	assert.True(t, boot.Equal(info.BootTime))
}

func TestUptimeError(t *testing.T) {
	src := &fakeSource{bootErr: errUnavailable}
	_, err := newTestCollector(src, nil, time.Now()).Uptime(context.Background())
	assert.ErrorIs(t, err, errUnavailable)
}

func TestIdentity(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/os-release", []byte(`NAME="Ubuntu"
VERSION_ID="22.04"
# comment
PRETTY_NAME="Ubuntu 22.04.3 LTS"
`), 0644))
	require.NoError(t, afero.WriteFile(fs, "/proc/sys/kernel/version", []byte("#101-Ubuntu SMP Tue Nov 14 13:30:08 UTC 2023\n"), 0644))

	src := &fakeSource{info: &host.InfoStat{
		Hostname:        "pi",
		OS:              "linux",
		Platform:        "ubuntu",
		PlatformVersion: "22.04",
		KernelVersion:   "5.15.0-91-generic",
		KernelArch:      "aarch64",
	}}
	id := newTestCollector(src, fs, time.Now()).Identity(context.Background())
	assert.Equal(t, status.Identity{
		Hostname:      "pi",
		OSType:        "Linux",
		OSName:        "Ubuntu 22.04.3 LTS",
		OSVersion:     "5.15.0-91-generic",
		KernelVersion: "#101-Ubuntu SMP Tue Nov 14 13:30:08 UTC 2023",
		Arch:          "aarch64",
	}, id)
}

func TestIdentityFallbacks(t *testing.T) {
	src := &fakeSource{info: &host.InfoStat{OS: "linux", Platform: "debian", PlatformVersion: "12.4"}}
	id := newTestCollector(src, nil, time.Now()).Identity(context.Background())
	assert.Equal(t, "fallback-host", id.Hostname)
	assert.Equal(t, "debian 12.4", id.OSName)
	assert.Equal(t, "", id.KernelVersion)

	src = &fakeSource{infoErr: errUnavailable}
	id = newTestCollector(src, nil, time.Now()).Identity(context.Background())
	assert.Equal(t, "fallback-host", id.Hostname)
	assert.NotEmpty(t, id.OSType)
	assert.Equal(t, "", id.OSName)
	assert.Equal(t, "", id.OSVersion)
	assert.Equal(t, "", id.Arch)
}

func TestMemoryScenario(t *testing.T) {
	src := &fakeSource{vm: &mem.VirtualMemoryStat{
		Total:       16_000_000_000,
		Used:        8_000_000_000,
		Available:   7_500_000_000,
		Free:        6_000_000_000,
		Buffers:     250_000_000,
		Cached:      1_234_567_891,
		UsedPercent: 50,
	}}
	m, err := newTestCollector(src, nil, time.Now()).Memory(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 16.0, m.Total, 1e-9)
	assert.InDelta(t, 8.0, m.Used, 1e-9)
	assert.InDelta(t, 7.5, m.Available, 1e-9)
	assert.InDelta(t, 6.0, m.Free, 1e-9)
	assert.InDelta(t, 0.25, m.Buffers, 1e-9)
	assert.InDelta(t, 1.234567891, m.Cached, 1e-9)
	assert.Equal(t, 50.0, m.Percent)
}

func TestMemoryError(t *testing.T) {
	src := &fakeSource{vmErr: errUnavailable}
	_, err := newTestCollector(src, nil, time.Now()).Memory(context.Background())
	assert.ErrorIs(t, err, errUnavailable)
}

func TestDisk(t *testing.T) {
	src := &fakeSource{usage: &disk.UsageStat{
		Total:       500_107_862_016,
		Used:        120_000_000_000,
		Free:        380_107_862_016,
		UsedPercent: 23.99,
	}}
	d, err := newTestCollector(src, nil, time.Now()).Disk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/", src.diskPath)
	assert.InDelta(t, 500.107862016, d.Total, 1e-9)
	assert.InDelta(t, 120.0, d.Used, 1e-9)
	assert.InDelta(t, 380.107862016, d.Free, 1e-9)
	assert.Equal(t, 23.99, d.Percent)

	src.usageErr = errUnavailable
	_, err = newTestCollector(src, nil, time.Now()).Disk(context.Background())
	assert.ErrorIs(t, err, errUnavailable)
}

func TestToGBIsDecimal(t *testing.T) {
	assert.Equal(t, 1.0, ToGB(1_000_000_000))
	assert.InDelta(t, 1.073741824, ToGB(1<<30), 1e-12)
	assert.Equal(t, 0.0, ToGB(0))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, clampPercent(-0.5))
	assert.Equal(t, 100.0, clampPercent(100.0001))
	assert.Equal(t, 42.5, clampPercent(42.5))
}

func TestCPU(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq", []byte("1500000\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/sys/devices/system/cpu/cpu1/cpufreq/scaling_cur_freq", []byte("1800000\n"), 0644))

	src := &fakeSource{
		total:   []float64{12.5},
		perCore: []float64{10, 15, 101, -1},
		count:   4,
		temps: []host.TemperatureStat{
			{SensorKey: "gpu_thermal", Temperature: 39},
			{SensorKey: "cpu_thermal", Temperature: 47.2},
		},
	}
	c := New(src, Options{SampleWindow: 100 * time.Millisecond, Fs: fs})

	start := time.Now()
	stats, err := c.CPU(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*c.SampleWindow()+500*time.Millisecond)
	assert.EqualValues(t, 2, src.maxFlight, "samples should overlap")
	assert.Equal(t, 12.5, stats.Usage)
	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, status.PerCore{10, 15, 100, 0}, stats.UsagePerCore)
	require.NotNil(t, stats.Temp)
	assert.Equal(t, 47.2, *stats.Temp)
	assert.InDelta(t, 1650.0, stats.Freq, 1e-9)
}

func TestCPUFallbacks(t *testing.T) {
	src := &fakeSource{
		total:    []float64{3},
		perCore:  []float64{1, 2, 3},
		count:    8,
		cpuInfo:  []cpu.InfoStat{{Mhz: 2400}},
		tempsErr: errUnavailable,
	}
	stats, err := newTestCollector(src, nil, time.Now()).CPU(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.Temp)
	assert.Equal(t, 2400.0, stats.Freq)
	assert.Equal(t, 3, stats.Count, "count follows the per-core sample")
	assert.Len(t, stats.UsagePerCore, stats.Count)

	src = &fakeSource{total: []float64{3}, perCore: []float64{3}, count: 1}
	stats, err = newTestCollector(src, nil, time.Now()).CPU(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.Temp)
	assert.Equal(t, 0.0, stats.Freq)
}

func TestCPUSensorPrefixOrder(t *testing.T) {
	src := &fakeSource{
		total:   []float64{1},
		perCore: []float64{1},
		temps: []host.TemperatureStat{
			{SensorKey: "acpitz_input", Temperature: 30},
			{SensorKey: "coretemp_package_id_0", Temperature: 55},
		},
		tempsErr: errors.New("warnings: partial read"),
	}
	stats, err := newTestCollector(src, nil, time.Now()).CPU(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.Temp)
	assert.Equal(t, 55.0, *stats.Temp)
}

func TestCPUError(t *testing.T) {
	src := &fakeSource{cpuErr: errUnavailable}
	_, err := newTestCollector(src, nil, time.Now()).CPU(context.Background())
	assert.ErrorIs(t, err, errUnavailable)
}

func TestCPUCancel(t *testing.T) {
	src := &fakeSource{total: []float64{1}, perCore: []float64{1}}
	c := New(src, Options{SampleWindow: time.Hour, Fs: afero.NewMemMapFs()})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.CPU(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOSType(t *testing.T) {
	assert.Equal(t, "Linux", osType("linux"))
	assert.Equal(t, "Darwin", osType("darwin"))
	assert.Equal(t, "Windows", osType("windows"))
	assert.Equal(t, "plan9", osType("plan9"))
}
