package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Dosada05/pingpong-league/storage"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL      string
	ServerPort       int
	LogLevel         zerolog.Level
	LogPretty        bool
	DBConnectTimeout time.Duration
	ShutdownTimeout  time.Duration
	CORSOrigins      []string

	// ShuffleSeed fixes the entrant shuffle; 0 seeds it randomly.
	ShuffleSeed              uint64
	AllowSimulation          bool
	DefaultGroupSize         int
	DefaultAdvancingPerGroup int

	ArchiveCron string
	R2          storage.R2Config
}

// ArchiveEnabled reports whether the periodic archive job should run.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveCron != "" && c.R2.Complete()
}

// Load загружает конфигурацию из переменных окружения и необязательного
// config.yaml. Файл .env подгружается, если он есть.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("DB_CONNECT_TIMEOUT", 5*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SHUFFLE_SEED", 0)
	v.SetDefault("ALLOW_SIMULATION", false)
	v.SetDefault("DEFAULT_GROUP_SIZE", 4)
	v.SetDefault("DEFAULT_ADVANCING_PER_GROUP", 2)
	v.SetDefault("ARCHIVE_CRON", "*/5 * * * *")
	for _, key := range []string{"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL"} {
		v.SetDefault(key, "")
	}
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:              v.GetString("DATABASE_URL"),
		ServerPort:               v.GetInt("SERVER_PORT"),
		LogPretty:                v.GetBool("LOG_PRETTY"),
		DBConnectTimeout:         v.GetDuration("DB_CONNECT_TIMEOUT"),
		ShutdownTimeout:          v.GetDuration("SHUTDOWN_TIMEOUT"),
		CORSOrigins:              splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		ShuffleSeed:              v.GetUint64("SHUFFLE_SEED"),
		AllowSimulation:          v.GetBool("ALLOW_SIMULATION"),
		DefaultGroupSize:         v.GetInt("DEFAULT_GROUP_SIZE"),
		DefaultAdvancingPerGroup: v.GetInt("DEFAULT_ADVANCING_PER_GROUP"),
		ArchiveCron:              strings.TrimSpace(v.GetString("ARCHIVE_CRON")),
		R2: storage.R2Config{
			AccountID:       v.GetString("R2_ACCOUNT_ID"),
			AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("R2_BUCKET_NAME"),
			PublicBaseURL:   v.GetString("R2_PUBLIC_BASE_URL"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("LOG_LEVEL")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.DBConnectTimeout <= 0 {
		return nil, fmt.Errorf("DB_CONNECT_TIMEOUT must be positive, got %s", cfg.DBConnectTimeout)
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", cfg.ShutdownTimeout)
	}
	if cfg.DefaultGroupSize < 2 {
		return nil, fmt.Errorf("DEFAULT_GROUP_SIZE must be at least 2, got %d", cfg.DefaultGroupSize)
	}
	if cfg.DefaultAdvancingPerGroup < 1 {
		return nil, fmt.Errorf("DEFAULT_ADVANCING_PER_GROUP must be at least 1, got %d", cfg.DefaultAdvancingPerGroup)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
