package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken string           `yaml:"discord_token"`
	DatabasePath string           `yaml:"database_path"`
	LogLevel     string           `yaml:"log_level"`
	Health       HealthConfig     `yaml:"health"`
	Moderation   ModerationConfig `yaml:"moderation"`
	Giveaways    GiveawayConfig   `yaml:"giveaways"`
	EmbedColors  EmbedColors      `yaml:"embed_colors"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type ModerationConfig struct {
	WarnTTLDays   int    `yaml:"warn_ttl_days"`
	MutedRoleName string `yaml:"muted_role_name"`
}

type GiveawayConfig struct {
	SweepSeconds int `yaml:"sweep_seconds"`
	// OverrideWinnerID, when non-zero and entered, always wins one slot.
	OverrideWinnerID int64 `yaml:"override_winner_id"`
}

type EmbedColors struct {
	Action  int `yaml:"action"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath: "/data/warden.db",
		LogLevel:     "info",
		Health:       HealthConfig{Enabled: false, Addr: ":8080"},
		Moderation: ModerationConfig{
			WarnTTLDays:   60,
			MutedRoleName: "Muted",
		},
		Giveaways: GiveawayConfig{
			SweepSeconds: 30,
		},
		EmbedColors: EmbedColors{
			Action:  0x5865F2,
			Warning: 0xF59E0B,
			Error:   0xEF4444,
		},
	}
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.Moderation.WarnTTLDays <= 0 {
		cfg.Moderation.WarnTTLDays = 60
	}
	if cfg.Moderation.MutedRoleName == "" {
		cfg.Moderation.MutedRoleName = "Muted"
	}
	if cfg.Giveaways.SweepSeconds <= 0 {
		cfg.Giveaways.SweepSeconds = 30
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Moderation.WarnTTLDays = envInt("WARN_TTL_DAYS", cfg.Moderation.WarnTTLDays)
	cfg.Moderation.MutedRoleName = envString("MUTED_ROLE_NAME", cfg.Moderation.MutedRoleName)
	cfg.Giveaways.SweepSeconds = envInt("GIVEAWAY_SWEEP_SECONDS", cfg.Giveaways.SweepSeconds)
	cfg.Giveaways.OverrideWinnerID = envInt64("GIVEAWAY_OVERRIDE_WINNER_ID", cfg.Giveaways.OverrideWinnerID)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
