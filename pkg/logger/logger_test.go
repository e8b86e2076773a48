package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestInitReplacesNopLogger(t *testing.T) {
	Init("error")
	defer Sync()

	assert.NotNil(t, Log)
	assert.NotNil(t, Sugar)
	assert.True(t, Log.Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, Log.Core().Enabled(zapcore.InfoLevel))
}
