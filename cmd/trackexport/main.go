// Package main is the entry point for the track exporter.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/e-rk/speedtools/internal/config"
	"github.com/e-rk/speedtools/internal/export"
	"github.com/e-rk/speedtools/internal/logger"
	"github.com/e-rk/speedtools/pkg/track"
	"github.com/e-rk/speedtools/pkg/types"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if config.SaveRequested() {
		if err := cfg.Save(config.ConfigPath()); err != nil {
			logger.Error("failed to save config", zap.Error(err))
			os.Exit(1)
		}
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: trackexport [options] <track_dir>")
		os.Exit(1)
	}
	directory := flag.Arg(0)

	options := track.Options{
		Mirrored: cfg.Track.Mirrored,
		Night:    cfg.Track.Night,
		Weather:  cfg.Track.Weather,
	}
	logger.Sugar.Debugf("Config: %+v", cfg)

	t, err := track.Open(directory, cfg.Game.Root, options)
	if err != nil {
		logger.Error("failed to open track", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("track loaded",
		zap.String("directory", directory),
		zap.Int("segments", len(t.TrackSegments())),
		zap.Int("objects", len(t.Objects())),
		zap.Int("lights", len(t.Lights())),
		zap.Int("cameras", len(t.Cameras())),
	)

	outDir := filepath.Join(cfg.Export.OutputDir, filepath.Base(directory))
	if err := export.SaveResources(filepath.Join(outDir, "textures"), t.TrackResources()); err != nil {
		logger.Error("failed to export track textures", zap.Error(err))
		os.Exit(1)
	}
	if sky := t.SkyResources(); len(sky) > 0 {
		if err := export.SaveResources(filepath.Join(outDir, "sky"), sky); err != nil {
			logger.Error("failed to export sky textures", zap.Error(err))
			os.Exit(1)
		}
	}
	if sun, ok := t.SunResource(); ok {
		if err := export.SaveResources(filepath.Join(outDir, "sky"), []types.Resource{sun}); err != nil {
			logger.Error("failed to export sun texture", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("export finished", zap.String("output", outDir))
}
