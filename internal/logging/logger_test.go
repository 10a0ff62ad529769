package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	require.NoError(t, InitializeFromEnv())
	assert.False(t, GetLogger().Core().Enabled(zapcore.ErrorLevel))
}

func TestInitialize_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
		{"bogus", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			require.NoError(t, Initialize(tt.level))
			defer SetLogger(nil)

			assert.True(t, GetLogger().Core().Enabled(tt.enabled))
			assert.False(t, GetLogger().Core().Enabled(tt.muted))
		})
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	require.NoError(t, InitializeFromEnv())
	defer SetLogger(nil)

	assert.True(t, GetLogger().Core().Enabled(zapcore.WarnLevel))
	assert.False(t, GetLogger().Core().Enabled(zapcore.InfoLevel))
}

func TestLogRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	LogRawBytes(l, "Dropped datagram", []byte{0x00, 'a', 'b', 0xff})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "006162ff", fields["hex"])
	assert.Equal(t, ".ab.", fields["ascii"])
	assert.Equal(t, int64(4), fields["length"])
}

func TestHexDump_Truncates(t *testing.T) {
	data := make([]byte, maxDumpBytes+10)
	dump := hexDump(data)
	assert.True(t, strings.HasSuffix(dump, "..."))
	assert.Len(t, dump, maxDumpBytes*2+3)
	assert.Equal(t, "", hexDump(nil))
}
