package logger

import (
	"bytes"
	"testing"

	"pb-tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	require.NoError(t, ApplyLevel(&config.Config{LogLevel: "warn"}, zerolog.Nop()))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	require.NoError(t, ApplyLevel(&config.Config{LogLevel: ""}, zerolog.Nop()))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	require.Error(t, ApplyLevel(&config.Config{LogLevel: "loud"}, zerolog.Nop()))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
