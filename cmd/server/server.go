package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DGHeroin/HostStats/api"
	"github.com/DGHeroin/HostStats/app"
	"github.com/DGHeroin/HostStats/config"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// writeSlack is added to the CPU sample window for the HTTP write timeout.
const writeSlack = 10 * time.Second

var (
	Cmd = &cobra.Command{
		Use:   "server",
		Short: "Serve host statistics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	// Config is set by the root command before RunE.
	Config *config.Config
)

func init() {
	Cmd.Flags().String("addr", ":8080", "http listen address")
}

func runServer(ctx context.Context) error {
	if Config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New(Config, app.Params{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("starting",
		"addr", Config.Addr,
		"sample_window", Config.SampleWindow,
		"probe_timeout", Config.ProbeTimeout,
		"disk_path", Config.DiskPath)

	r := api.NewRouter(a.Stats, a.Logger.With("component", "http"))
	if err := api.Serve(ctx, Config.Addr, r, Config.SampleWindow+writeSlack, a.Logger); err != nil {
		a.Logger.Error(err)
		return err
	}
	return nil
}
