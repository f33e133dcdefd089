package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARNING "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestSetupFiltersByLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	Setup("WARN", false, &buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	Setup("WARN", true, &buf)
	log.Debug().Msg("verbose debug")
	assert.Contains(t, buf.String(), "verbose debug")
}
