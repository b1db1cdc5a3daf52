package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fan-insights/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ExcelPath       string
	UsersCSVPath    string
	DBPath          string
	ServerPort      string
	LogLevel        string
	CacheTTL        time.Duration
	SessionTTL      time.Duration
	ExcludedSheets  []string
	HomeNationality string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ExcelPath:       getEnv("EXCEL_PATH", "BID.BaseDeDatos.xlsx"),
		UsersCSVPath:    getEnv("USERS_CSV_PATH", "users.csv"),
		DBPath:          getEnv("DB_PATH", "faninsights.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CacheTTL:        getEnvDuration("CACHE_TTL", constants.TableCacheTTL, logger),
		SessionTTL:      getEnvDuration("SESSION_TTL", constants.SessionTTL, logger),
		ExcludedSheets:  splitList(getEnv("EXCLUDED_SHEETS", "LUF")),
		HomeNationality: getEnv("HOME_NATIONALITY", "AR"),
	}

	if cfg.ExcelPath == "" {
		return nil, fmt.Errorf("EXCEL_PATH is required")
	}
	if cfg.UsersCSVPath == "" {
		return nil, fmt.Errorf("USERS_CSV_PATH is required")
	}

	logger.Info().
		Str("excel_path", cfg.ExcelPath).
		Str("users_csv_path", cfg.UsersCSVPath).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Dur("session_ttl", cfg.SessionTTL).
		Strs("excluded_sheets", cfg.ExcludedSheets).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration, logger zerolog.Logger) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
