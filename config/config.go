// Package config loads the tunable constants of the collaborative canvas
// engine through Viper, the same layered TOML+env-var approach the rest of
// the stack uses for its own config.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rotoshake/imagecanvas-sub005/errors"
)

// Config holds every tunable constant the engine reads at runtime. Callers
// embed this in a larger app config or load it standalone via Load().
type Config struct {
	Alignment AlignmentConfig `mapstructure:"alignment"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Undo      UndoConfig      `mapstructure:"undo"`
	Transport TransportConfig `mapstructure:"transport"`
}

// AlignmentConfig tunes the spring-physics alignment engine.
type AlignmentConfig struct {
	SpringK               float64 `mapstructure:"spring_k"`
	SpringD               float64 `mapstructure:"spring_d"`
	DefaultMargin         float64 `mapstructure:"default_margin"`
	Tolerance             float64 `mapstructure:"tolerance"`
	AnimationThreshold    float64 `mapstructure:"animation_threshold"`
	LargeScaleThreshold   int     `mapstructure:"large_scale_threshold"`
	LargeScaleSpringK     float64 `mapstructure:"large_scale_spring_k"`
	LargeScaleSpringD     float64 `mapstructure:"large_scale_spring_d"`
	LargeScaleThresholdX  float64 `mapstructure:"large_scale_animation_threshold"`
	MaxAnimationBatchSize int     `mapstructure:"max_animation_batch_size"`
	FrameBudgetMS         float64 `mapstructure:"frame_budget_ms"`
	TimeScale             float64 `mapstructure:"time_scale"`
	TitleBarHeight        float64 `mapstructure:"title_bar_height"`
	GroupPadding          float64 `mapstructure:"group_padding"`
}

// SyncConfig tunes the state-sync reconciliation loop.
type SyncConfig struct {
	FullSyncCooldown time.Duration `mapstructure:"full_sync_cooldown"`
}

// UploadConfig tunes the upload coordinator's retry/staleness behavior.
type UploadConfig struct {
	RetryBackoff          []time.Duration `mapstructure:"-"`
	RetryBackoffSeconds   []int           `mapstructure:"retry_backoff_seconds"`
	MaxRetries            int             `mapstructure:"max_retries"`
	PostUploadSyncDelay   time.Duration   `mapstructure:"post_upload_sync_delay"`
	StalePendingThreshold time.Duration   `mapstructure:"stale_pending_threshold"`
	APIBase               string         `mapstructure:"api_base"`
}

// UndoConfig tunes the undo stack and media optimization thresholds.
type UndoConfig struct {
	StackLimit             int `mapstructure:"stack_limit"`
	LargePayloadThreshold  int `mapstructure:"large_payload_threshold_bytes"`
}

// TransportConfig configures the WebSocket transport to the server.
type TransportConfig struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads engine configuration layered env vars over defaults over an
// optional canvas.toml in the working directory.
// Subsequent calls return the cached config; use Reset in tests.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal canvas engine config")
	}
	cfg.Upload.RetryBackoff = secondsToDurations(cfg.Upload.RetryBackoffSeconds)

	globalConfig = &cfg
	return globalConfig, nil
}

// Reset clears the cached configuration. Tests call this between cases that
// mutate environment variables or config files.
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix("CANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	v.SetConfigName("canvas")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // absence of a config file is not an error; defaults stand

	viperInstance = v
	return v
}

func secondsToDurations(seconds []int) []time.Duration {
	out := make([]time.Duration, len(seconds))
	for i, s := range seconds {
		out[i] = time.Duration(s) * time.Second
	}
	return out
}

// Default returns a Config populated entirely from defaults, bypassing
// Viper and the environment. Useful for tests and embedding callers that
// want the engine's baseline constants without a config file.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.Upload.RetryBackoff = secondsToDurations(cfg.Upload.RetryBackoffSeconds)
	return &cfg
}
