package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagGameRoot = flag.String("game-root", "", "Game installation directory")
	flagOut      = flag.String("out", "", "Output directory")
	flagMirrored = flag.Bool("mirrored", false, "Load the mirrored track variant")
	flagNight    = flag.Bool("night", false, "Load the night track variant")
	flagWeather  = flag.Bool("weather", false, "Load the bad weather track variant")
	flagSaveCfg  = flag.Bool("save-config", false, "Write the effective config back to the config file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether the effective config should be written
// back after flags are applied.
func SaveRequested() bool {
	return *flagSaveCfg
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagGameRoot != "" {
		cfg.Game.Root = *flagGameRoot
	}
	if *flagOut != "" {
		cfg.Export.OutputDir = *flagOut
	}
	if *flagMirrored {
		cfg.Track.Mirrored = true
	}
	if *flagNight {
		cfg.Track.Night = true
	}
	if *flagWeather {
		cfg.Track.Weather = true
	}
}
