// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Track   TrackConfig   `yaml:"track"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// GameConfig holds paths into the game installation.
type GameConfig struct {
	Root string `yaml:"root"` // Game installation directory
}

// TrackConfig selects which track variant to load.
type TrackConfig struct {
	Mirrored bool `yaml:"mirrored"`
	Night    bool `yaml:"night"`
	Weather  bool `yaml:"weather"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Overwrite bool   `yaml:"overwrite"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Root: ".",
		},
		Track: TrackConfig{
			Mirrored: false,
			Night:    false,
			Weather:  false,
		},
		Export: ExportConfig{
			OutputDir: "out",
			Overwrite: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
