// Package stats builds the five endpoint responses from the collector and
// the service prober.
package stats

import (
	"context"

	"github.com/DGHeroin/HostStats/collector"
	"github.com/DGHeroin/HostStats/status"
)

type MetricCollector interface {
	Identity(ctx context.Context) status.Identity
	Uptime(ctx context.Context) (collector.UptimeInfo, error)
	CPU(ctx context.Context) (status.CPUStats, error)
	Memory(ctx context.Context) (status.MemStats, error)
	Disk(ctx context.Context) (status.DiskStats, error)
}

type ServiceProber interface {
	CheckAll(ctx context.Context) status.ServiceStats
}

type Aggregator struct {
	metrics MetricCollector
	prober  ServiceProber
}

func NewAggregator(metrics MetricCollector, prober ServiceProber) *Aggregator {
	return &Aggregator{metrics: metrics, prober: prober}
}

func (a *Aggregator) General(ctx context.Context) (status.GeneralStats, error) {
	up, err := a.metrics.Uptime(ctx)
	if err != nil {
		return status.GeneralStats{}, err
	}
	id := a.metrics.Identity(ctx)
	return status.GeneralStats{
		Hostname:      id.Hostname,
		OSType:        id.OSType,
		OSName:        id.OSName,
		OSVersion:     id.OSVersion,
		KernelVersion: id.KernelVersion,
		Arch:          id.Arch,
		LastBoot:      up.LastBoot,
		Uptime:        up.Uptime,
		BootTime:      up.BootTime,
	}, nil
}

func (a *Aggregator) CPU(ctx context.Context) (status.CPUStats, error) {
	return a.metrics.CPU(ctx)
}

func (a *Aggregator) Memory(ctx context.Context) (status.MemStats, error) {
	return a.metrics.Memory(ctx)
}

func (a *Aggregator) Disk(ctx context.Context) (status.DiskStats, error) {
	return a.metrics.Disk(ctx)
}

func (a *Aggregator) Services(ctx context.Context) status.ServiceStats {
	return a.prober.CheckAll(ctx)
}
