//nolint:testpackage // requires internal access to unexported types and functions
package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, New(false).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, New(true).GetLevel())
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf)

	logger.Info().Str("task", "demo").Msg("started")

	output := buf.String()
	assert.Contains(t, output, "started")
	assert.Contains(t, output, "demo")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), logger)
	ctxLogger := FromContext(ctx)
	ctxLogger.Info().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}

func TestFromContextDefault(t *testing.T) {
	logger := FromContext(context.Background())
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
