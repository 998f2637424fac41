package logger

import (
	"fmt"
	"os"
	"pb-tracker/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// New builds the process logger. Its level is left open and gated globally
// by ApplyLevel once the configuration, including .env, has been read.
func New() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ApplyLevel sets the global level from LOG_LEVEL.
func ApplyLevel(cfg *config.Config, logger zerolog.Logger) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger.Info().Str("level", level.String()).Msg("log level applied")
	return nil
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(ApplyLevel),
)
