package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/trainops/internal/callboard"
	"github.com/zulandar/trainops/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the read-only operations dashboard",
		Long: `Serves session, train, order, car, and fleet-statistics views over HTTP,
plus a server-sent-events stream. Runs until interrupted. If a callboard
digest schedule is configured, the crew digest is posted on that schedule
while the dashboard is up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Dashboard.Port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()

			if cfg.Callboard.DigestSchedule != "" {
				notifier, err := callboard.New(cfg.Callboard)
				if err != nil {
					return err
				}
				if notifier != nil {
					if err := notifier.Connect(ctx); err != nil {
						return err
					}
					defer notifier.Close()

					errs := make(chan error, 1)
					if _, err := callboard.ScheduleDigest(ctx, gormDB, notifier, cfg.Callboard.DigestSchedule, errs); err != nil {
						return err
					}
					go func() {
						for err := range errs {
							fmt.Fprintf(out, "warning: digest: %v\n", err)
						}
					}()
					fmt.Fprintf(out, "Crew digest scheduled: %s\n", cfg.Callboard.DigestSchedule)
				}
			}

			return dashboard.Start(ctx, dashboard.StartOpts{
				DB:              gormDB,
				Port:            port,
				StatsRefreshSec: cfg.Dashboard.StatsRefreshSec,
				Out:             out,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default: config value)")
	return cmd
}
