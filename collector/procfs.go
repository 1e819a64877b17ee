package collector

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

var (
	osReleasePaths    = []string{"/etc/os-release", "/usr/lib/os-release"}
	kernelVersionFile = "/proc/sys/kernel/version"
	curFreqGlob       = "/sys/devices/system/cpu/cpu[0-9]*/cpufreq/scaling_cur_freq"
)

// prettyName returns PRETTY_NAME from os-release, or "".
func prettyName(fs afero.Fs) string {
	for _, path := range osReleasePaths {
		f, err := fs.Open(path)
		if err != nil {
			continue
		}
		name := parseOSRelease(f, "PRETTY_NAME")
		f.Close()
		if name != "" {
			return name
		}
	}
	return ""
}

func parseOSRelease(f afero.File, key string) string {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || k != key {
			continue
		}
		if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
			v = v[1 : len(v)-1]
		}
		return v
	}
	return ""
}

// kernelBuild returns the uname version string, e.g. "#1 SMP PREEMPT_DYNAMIC ...".
func kernelBuild(fs afero.Fs) string {
	data, err := afero.ReadFile(fs, kernelVersionFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// currentFreqMHz averages scaling_cur_freq over all cores. ok is false when
// cpufreq is not exposed.
func currentFreqMHz(fs afero.Fs) (mhz float64, ok bool) {
	paths, err := afero.Glob(fs, curFreqGlob)
	if err != nil || len(paths) == 0 {
		return 0, false
	}
	var sum float64
	var n int
	for _, p := range paths {
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			continue
		}
		khz, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil || khz <= 0 {
			continue
		}
		sum += khz
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n) / 1000, true
}
