// Package config loads replay configuration from a yaml file and
// environment variables. Values from the file and the environment are
// merged, with the file taking precedence for keys present in both.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type ctxKey string

// LoggerCtxKey carries a per-run logger through a context.
const LoggerCtxKey ctxKey = "logger"

// DebugLoggingEnabled switches the default log level to debug.
var DebugLoggingEnabled = false

func GetLogLevel() slog.Level {
	if DebugLoggingEnabled {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// BrowserConfig selects and configures the browser for a run.
type BrowserConfig struct {
	Kind     string `yaml:"kind" env:"REPLAY_BROWSER" env-default:"chromium"`
	Headless bool   `yaml:"headless" env:"REPLAY_HEADLESS" env-default:"true"`
}

// TimingConfig controls recorded-pacing reproduction.
type TimingConfig struct {
	Enabled              bool    `yaml:"enabled" env:"REPLAY_TIMING"`
	Mode                 string  `yaml:"mode" env:"REPLAY_TIMING_MODE" env-default:"fast"`
	SpeedMultiplier      float64 `yaml:"speed_multiplier" env:"REPLAY_SPEED_MULTIPLIER"`
	MaxActionDelayMillis int     `yaml:"max_action_delay_ms" env:"REPLAY_MAX_ACTION_DELAY_MS" env-default:"5000"`
}

// VideoConfig enables capture of the run as a video file.
type VideoConfig struct {
	Enabled bool   `yaml:"enabled" env:"REPLAY_VIDEO"`
	Dir     string `yaml:"dir" env:"REPLAY_VIDEO_DIR" env-default:"videos"`
}

// Config is the overall replay configuration. Values are taken from a
// config yml file or environment variables or both.
type Config struct {
	Browser       BrowserConfig `yaml:"browser"`
	Timing        TimingConfig  `yaml:"timing"`
	Video         VideoConfig   `yaml:"video"`
	TimeoutMillis int           `yaml:"timeout_ms" env:"REPLAY_TIMEOUT_MS" env-default:"10000"`
	Debug         bool          `yaml:"debug" env:"DEBUG"`
}

// NewConfig reads configPath and the environment. An empty path reads
// the environment only.
func NewConfig(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
		return &config, nil
	}

	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	d := yaml.NewDecoder(file)
	if err := d.Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
