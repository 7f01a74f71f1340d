package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"crmdash/internal/config"
	"crmdash/internal/dashboard"
	"crmdash/internal/export"
	"crmdash/internal/logging"
	"crmdash/internal/metrics"
	"crmdash/internal/source"
	"crmdash/internal/ui"
)

func runTUI(cmd *cobra.Command) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}

	if cfg.File == "" && shouldRunOnboarding() {
		written, err := runOnboarding(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to run onboarding: %w", err)
		}
		if written != "" {
			cfgFile = written
			if err := loadConfig(cmd); err != nil {
				return err
			}
			if cfg, err = configFrom(cmd); err != nil {
				return err
			}
		}
	}

	// The TUI owns the terminal.
	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.New(cfg.Log, logFile)

	ctx := cmd.Context()
	src, err := source.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()
	_ = checkSource(ctx, src, logger)

	rec := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := rec.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	dash := dashboard.New(src, dashboard.Options{
		PageSizes: cfg.UI.PageSizes,
		Logger:    logger,
		Observer:  rec,
	})

	sink, err := export.New(ctx, cfg.Export, cfg.Export.S3.Bucket != "")
	if err != nil {
		return err
	}

	prefsPath, err := ui.DefaultPrefsPath()
	if err != nil {
		logger.Warn().Err(err).Msg("ui preferences disabled")
		prefsPath = ""
	}

	flags := cmd.Root().PersistentFlags()
	watch := func(ctx context.Context, onChange func(*config.Config)) error {
		return config.Watch(ctx, cfg, flags, logger, onChange)
	}

	logger.Info().Str("source", cfg.Source).Msg("starting dashboard")
	return ui.Run(ctx, ui.Options{
		Dashboard:         dash,
		Sink:              sink,
		Logger:            logger,
		Metrics:           rec,
		RefreshIntervalMs: cfg.UI.RefreshIntervalMs,
		PrefsPath:         prefsPath,
	}, watch)
}
