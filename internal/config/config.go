package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath          string
	ScreenshotsPath string
	CatalogPath     string
	ServerPort      string
	LogLevel        string
	AllowedOrigins  []string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "data/pb_tracker.db"),
		ScreenshotsPath: getEnv("SCREENSHOTS_PATH", "data/screenshots"),
		CatalogPath:     getEnv("CATALOG_PATH", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("screenshots_path", cfg.ScreenshotsPath).
		Str("catalog_path", cfg.CatalogPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
