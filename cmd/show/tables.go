package show

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/DGHeroin/HostStats/stats"
	"github.com/DGHeroin/HostStats/status"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

const bytesPerGB = 1e9

func renderGeneral(ctx context.Context, out io.Writer, s *stats.Aggregator) error {
	g, err := s.General(ctx)
	if err != nil {
		return err
	}
	writeGeneral(out, g)
	return nil
}

func renderCPU(ctx context.Context, out io.Writer, s *stats.Aggregator) error {
	c, err := s.CPU(ctx)
	if err != nil {
		return err
	}
	writeCPU(out, c)
	return nil
}

func renderMemory(ctx context.Context, out io.Writer, s *stats.Aggregator) error {
	m, err := s.Memory(ctx)
	if err != nil {
		return err
	}
	writeMemory(out, m)
	return nil
}

func renderDisk(ctx context.Context, out io.Writer, s *stats.Aggregator) error {
	d, err := s.Disk(ctx)
	if err != nil {
		return err
	}
	writeDisk(out, d)
	return nil
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func writeGeneral(out io.Writer, g status.GeneralStats) {
	table := newTable(out, "Hostname", "OS", "Release", "Arch", "Last Boot", "Uptime")
	lastBoot := g.LastBoot
	if !g.BootTime.IsZero() {
		lastBoot = fmt.Sprintf("%s (%s)", g.LastBoot, humanize.Time(g.BootTime))
	}
	table.Append([]string{
		g.Hostname,
		fmt.Sprintf("%s %s", g.OSType, g.OSName),
		g.OSVersion,
		g.Arch,
		lastBoot,
		humanDuration(g.Uptime),
	})
	table.Render()
	if g.KernelVersion != "" {
		_, _ = fmt.Fprintf(out, "kernel: %s\n", g.KernelVersion)
	}
}

func writeCPU(out io.Writer, c status.CPUStats) {
	temp := "n/a"
	if c.Temp != nil {
		temp = fmt.Sprintf("%.1f°C", *c.Temp)
	}
	freq := "n/a"
	if c.Freq > 0 {
		freq = fmt.Sprintf("%.0f MHz", c.Freq)
	}
	table := newTable(out, "CPU", "Temp", "Freq", "Cores")
	table.Append([]string{
		fmt.Sprintf(`%.2f%%`, c.Usage),
		temp,
		freq,
		strconv.Itoa(c.Count),
	})
	table.Render()

	cores := newTable(out, "Core", "Usage")
	for i, v := range c.UsagePerCore {
		cores.Append([]string{status.CoreKey(i), fmt.Sprintf(`%.2f%%`, v)})
	}
	cores.Render()
}

func writeMemory(out io.Writer, m status.MemStats) {
	table := newTable(out, "Memory", "Used", "Available", "Free", "Buffers", "Cached", "Percent")
	table.Append([]string{
		gb(m.Total),
		gb(m.Used),
		gb(m.Available),
		gb(m.Free),
		gb(m.Buffers),
		gb(m.Cached),
		fmt.Sprintf(`%.2f%%`, m.Percent),
	})
	table.Render()
}

func writeDisk(out io.Writer, d status.DiskStats) {
	table := newTable(out, "Disk", "Used", "Free", "Percent")
	table.Append([]string{
		gb(d.Total),
		gb(d.Used),
		gb(d.Free),
		fmt.Sprintf(`%.2f%%`, d.Percent),
	})
	table.Render()
}

func writeServices(out io.Writer, svc status.ServiceStats) {
	table := newTable(out, "Service", "Status", "Process", "Link")
	for _, s := range svc {
		state := "down"
		if s.Status {
			state = "up"
		}
		table.Append([]string{s.Key, state, s.Process, s.Link})
	}
	table.Render()
}

// gb formats decimal gigabytes with SI units.
func gb(v float64) string {
	if v <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(v * bytesPerGB))
}

func humanDuration(u status.Uptime) string {
	switch {
	case u.Days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", u.Days, u.Hours, u.Minutes, u.Seconds)
	case u.Hours > 0:
		return fmt.Sprintf("%dh %dm %ds", u.Hours, u.Minutes, u.Seconds)
	case u.Minutes > 0:
		return fmt.Sprintf("%dm %ds", u.Minutes, u.Seconds)
	}
	return fmt.Sprintf("%ds", u.Seconds)
}
