package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/DGHeroin/HostStats/app"
	"github.com/DGHeroin/HostStats/cmd/server"
	"github.com/DGHeroin/HostStats/cmd/show"
	"github.com/DGHeroin/HostStats/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	v       = config.New()
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app.Name,
		Short: "Host telemetry over HTTP",
		Long: `hoststats reports system identity, CPU, memory, root disk usage and the
liveness of the strapi, cloudflared and ssh services of a single host.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: hoststats.yaml in ., ~/.hoststats, /etc/hoststats)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging and gin debug mode")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().Duration("sample-window", 0, "CPU usage sample window (default 1s)")
	rootCmd.PersistentFlags().Duration("probe-timeout", 0, "timeout per service probe (default 1s)")

	bind(config.KeyDebug, rootCmd.PersistentFlags().Lookup("debug"))
	bind(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	bind(config.KeyLogFile, rootCmd.PersistentFlags().Lookup("log-file"))
	bind(config.KeySampleWindow, rootCmd.PersistentFlags().Lookup("sample-window"))
	bind(config.KeyProbeTimeout, rootCmd.PersistentFlags().Lookup("probe-timeout"))
	bind(config.KeyAddr, server.Cmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(server.Cmd, show.Cmd)
}

func bind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := config.ReadFile(v, cfgFile); err != nil {
		return err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	server.Config = cfg
	show.Config = cfg
	return nil
}

func Run() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
