// Package app wires configuration, logging, collection and probing into a
// ready-to-use Aggregator.
package app

import (
	"io"
	"log/slog"
	"os"

	"github.com/DGHeroin/HostStats/collector"
	"github.com/DGHeroin/HostStats/config"
	"github.com/DGHeroin/HostStats/logging"
	"github.com/DGHeroin/HostStats/probe"
	"github.com/DGHeroin/HostStats/stats"
	"github.com/spf13/afero"
)

const Name = "hoststats"

type App struct {
	Config    *config.Config
	Logger    *logging.Logger
	Collector *collector.Collector
	Prober    *probe.Prober
	Stats     *stats.Aggregator

	closers []io.Closer
}

type Params struct {
	Fs     afero.Fs
	Out    io.Writer
	Source collector.Source
	Runner probe.Runner
}

// New builds an App from cfg. Zero Params fields select the real host.
func New(cfg *config.Config, params Params) (*App, error) {
	if params.Fs == nil {
		params.Fs = afero.NewOsFs()
	}
	if params.Out == nil {
		params.Out = os.Stderr
	}
	if params.Source == nil {
		params.Source = collector.PsutilSource{}
	}
	if params.Runner == nil {
		params.Runner = probe.ExecRunner{}
	}

	a := &App{Config: cfg}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	var logFile io.Writer
	if cfg.LogFile != "" {
		f, err := logging.OpenLogFile(params.Fs, cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		logFile = f
	}
	a.Logger = logging.NewLogger(level, params.Out, logFile)

	a.Collector = collector.New(params.Source, collector.Options{
		SampleWindow: cfg.SampleWindow,
		Sensors:      cfg.Sensors,
		DiskPath:     cfg.DiskPath,
		Fs:           afero.NewReadOnlyFs(params.Fs),
		Logger:       a.Logger.With("component", "collector"),
	})

	links := map[string]string{
		probe.Strapi:      cfg.Links.Strapi,
		probe.Cloudflared: cfg.Links.Cloudflared,
		probe.SSH:         cfg.Links.SSH,
	}
	a.Prober = probe.New(
		params.Runner,
		cfg.ProbeTimeout,
		probe.Services(cfg.TunnelContainer, links),
		a.Logger.With("component", "probe"),
	)

	a.Stats = stats.NewAggregator(a.Collector, a.Prober)
	return a, nil
}

func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
