package show

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DGHeroin/HostStats/app"
	"github.com/DGHeroin/HostStats/config"
	"github.com/DGHeroin/HostStats/stats"
	"github.com/spf13/cobra"
)

var (
	Cmd = &cobra.Command{
		Use:       "show [gen|cpu|mem|disk|svc]...",
		Short:     "Print host statistics as tables",
		ValidArgs: Sections,
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	// Config is set by the root command before RunE.
	Config *config.Config

	watch time.Duration
)

var Sections = []string{"gen", "cpu", "mem", "disk", "svc"}

func init() {
	Cmd.Flags().DurationVar(&watch, "watch", 0, "refresh at this interval until interrupted")
}

func runShow(ctx context.Context, out io.Writer, sections []string) error {
	a, err := app.New(Config, app.Params{})
	if err != nil {
		return err
	}
	defer a.Close()

	if len(sections) == 0 {
		sections = Sections
	}
	if watch <= 0 {
		return Render(ctx, out, a.Stats, sections)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ticker := time.NewTicker(watch)
	defer ticker.Stop()
	for {
		_, _ = fmt.Fprintf(out, "\n%s\n", time.Now().Format(time.DateTime))
		if err := Render(ctx, out, a.Stats, sections); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

// Render collects and prints each section in order.
func Render(ctx context.Context, out io.Writer, s *stats.Aggregator, sections []string) error {
	for _, section := range sections {
		var err error
		switch section {
		case "gen":
			err = renderGeneral(ctx, out, s)
		case "cpu":
			err = renderCPU(ctx, out, s)
		case "mem":
			err = renderMemory(ctx, out, s)
		case "disk":
			err = renderDisk(ctx, out, s)
		case "svc":
			writeServices(out, s.Services(ctx))
		default:
			err = fmt.Errorf("unknown section %q", section)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
