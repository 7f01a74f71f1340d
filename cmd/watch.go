package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"crmdash/internal/config"
	"crmdash/internal/dashboard"
	"crmdash/internal/metrics"
	"crmdash/internal/refresh"
	"crmdash/internal/source"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh every table on an interval and log the results",
		Long: `Watch runs the auto refresh scheduler without the TUI. Each refresh is
logged per table, and load metrics are served when --metrics-addr is set.
Edits to the config file change the interval unless --interval was given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			logger := stderrLogger(cfg)
			ctx := cmd.Context()

			src, err := source.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer src.Close()
			_ = checkSource(ctx, src, logger)

			rec := metrics.New()
			dash := dashboard.New(src, dashboard.Options{
				PageSizes: cfg.UI.PageSizes,
				Logger:    logger,
				Observer:  rec,
			})

			refreshAll := func() {
				dash.RefreshAll(ctx)
				dash.SyncAll()
				logSnapshot(logger, dash)
			}
			// Run the trigger on the ticking goroutine so refreshes never overlap.
			sched := refresh.New(func() {
				rec.RefreshTriggered()
				refreshAll()
			}, refresh.WithDispatcher(func(f func()) { f() }), refresh.WithLogger(logger))

			intervalMs := cfg.UI.RefreshIntervalMs
			pinned := cmd.Flags().Changed("interval")
			if pinned {
				intervalMs = int(interval.Milliseconds())
			}
			if intervalMs <= 0 {
				logger.Warn().Msg("auto refresh is disabled; set --interval or ui.refresh_interval_ms")
			}
			sched.Configure(intervalMs)

			refreshAll()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return sched.Run(ctx) })
			if cfg.Metrics.Addr != "" {
				g.Go(func() error { return rec.Serve(ctx, cfg.Metrics.Addr, logger) })
			}
			flags := cmd.Root().PersistentFlags()
			g.Go(func() error {
				return config.Watch(ctx, cfg, flags, logger, func(next *config.Config) {
					dash.SetPageSizes(next.UI.PageSizes)
					if pinned {
						return
					}
					sched.Configure(next.UI.RefreshIntervalMs)
					logger.Info().
						Str("interval", refresh.FormatIntervalLabel(next.UI.RefreshIntervalMs)).
						Msg("auto refresh interval changed")
				})
			})

			logger.Info().
				Str("source", cfg.Source).
				Str("interval", refresh.FormatIntervalLabel(intervalMs)).
				Msg("watching")
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval, e.g. 30s (default: ui.refresh_interval_ms)")
	return cmd
}

// checkSource runs the source health check when there is one. A failure is
// only logged; the first refresh reports it per table as well.
func checkSource(ctx context.Context, src source.Source, logger zerolog.Logger) error {
	hc, ok := src.(source.Checker)
	if !ok {
		return nil
	}
	if err := hc.Health(ctx); err != nil {
		logger.Warn().Err(err).Msg("source health check failed")
		return err
	}
	logger.Debug().Msg("source is reachable")
	return nil
}

func logSnapshot(logger zerolog.Logger, dash *dashboard.Dashboard) {
	for _, g := range dash.Grids() {
		ev := logger.Info()
		if err := g.Err(); err != nil {
			ev = logger.Warn().Err(err).Bool("stale", g.Stale())
		}
		ev.Str("resource", string(g.Resource())).
			Int("rows", g.Len()).
			Str("status", g.Status().String()).
			Msg("refreshed")
	}
	if stats, ok := dash.QuickStats(); ok {
		logger.Info().
			Int("open_escalations", dashboard.OpenEscalations(dash.Escalations.All())).
			Interface("stats", stats).
			Msg("quick stats")
	} else if err := dash.StatsErr(); err != nil {
		logger.Warn().Err(err).Msg("quick stats unavailable")
	}
}
