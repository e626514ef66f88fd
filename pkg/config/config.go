// Package config loads the engine's tunables from the environment,
// adapted from the host application's own viper/godotenv loader: same
// Load/setDefaults shape, trimmed to what a scheduling engine needs
// (no database, JWT, CORS, or reporting blocks).
package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the engine's process-wide configuration.
type Config struct {
	Env string
	Log LogConfig

	Redis     RedisConfig
	Scheduler SchedulerConfig
}

// LogConfig controls zap construction (pkg/logger).
type LogConfig struct {
	Level  string
	Format string
}

// RedisConfig is only consulted when the host wants a RedisProgressSink
// (pkg/progress); the engine itself never dials Redis on its own.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SchedulerConfig holds the tunables that differ between the three
// named presets plus process-wide values read by Load. The engine
// resolves a task's settings from the request's Preset and Config only;
// values read by Load are not applied to tasks automatically.
type SchedulerConfig struct {
	MaxIterations               int
	TimeLimitSeconds            int
	EnableLocalOptimization     bool
	LocalOptimizationIterations int
	MaxBackjumpsPerSession      int
	LookaheadAlpha              float64

	TaskRetentionHours int
	ProgressBuffer     int
}

// Load reads configuration from a .env file (if present) and the
// process environment, applying defaults for anything unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Env: v.GetString("ENV"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Scheduler: SchedulerConfig{
			MaxIterations:               v.GetInt("SCHEDULER_MAX_ITERATIONS"),
			TimeLimitSeconds:            v.GetInt("SCHEDULER_TIME_LIMIT_SECONDS"),
			EnableLocalOptimization:     v.GetBool("SCHEDULER_ENABLE_LOCAL_OPTIMIZATION"),
			LocalOptimizationIterations: v.GetInt("SCHEDULER_LOCAL_OPTIMIZATION_ITERATIONS"),
			MaxBackjumpsPerSession:      v.GetInt("SCHEDULER_MAX_BACKJUMPS_PER_SESSION"),
			LookaheadAlpha:              v.GetFloat64("SCHEDULER_LOOKAHEAD_ALPHA"),
			TaskRetentionHours:          v.GetInt("SCHEDULER_TASK_RETENTION_HOURS"),
			ProgressBuffer:              v.GetInt("SCHEDULER_PROGRESS_BUFFER"),
		},
	}

	return cfg, nil
}

// Preset names the three fixed configuration profiles exposed through
// the control surface.
type Preset string

const (
	PresetFast     Preset = "fast"
	PresetBalanced Preset = "balanced"
	PresetThorough Preset = "thorough"
)

// Presets returns the three named SchedulerConfig profiles (fast,
// balanced, thorough), keyed by Preset.
func Presets() map[Preset]SchedulerConfig {
	return map[Preset]SchedulerConfig{
		PresetFast: {
			MaxIterations:               5000,
			TimeLimitSeconds:            120,
			EnableLocalOptimization:     false,
			LocalOptimizationIterations: 0,
			MaxBackjumpsPerSession:      3,
			LookaheadAlpha:              0.5,
		},
		PresetBalanced: {
			MaxIterations:               10000,
			TimeLimitSeconds:            300,
			EnableLocalOptimization:     true,
			LocalOptimizationIterations: 50,
			MaxBackjumpsPerSession:      3,
			LookaheadAlpha:              0.5,
		},
		PresetThorough: {
			MaxIterations:               20000,
			TimeLimitSeconds:            600,
			EnableLocalOptimization:     true,
			LocalOptimizationIterations: 200,
			MaxBackjumpsPerSession:      5,
			LookaheadAlpha:              0.5,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SCHEDULER_MAX_ITERATIONS", 10000)
	v.SetDefault("SCHEDULER_TIME_LIMIT_SECONDS", 300)
	v.SetDefault("SCHEDULER_ENABLE_LOCAL_OPTIMIZATION", true)
	v.SetDefault("SCHEDULER_LOCAL_OPTIMIZATION_ITERATIONS", 50)
	v.SetDefault("SCHEDULER_MAX_BACKJUMPS_PER_SESSION", 3)
	v.SetDefault("SCHEDULER_LOOKAHEAD_ALPHA", 0.5)
	v.SetDefault("SCHEDULER_TASK_RETENTION_HOURS", 24)
	v.SetDefault("SCHEDULER_PROGRESS_BUFFER", 16)
}
