package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLoggerIsNoop(t *testing.T) {
	require.NotNil(t, Logger)
	Logger.Infow("discarded", "key", 1)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbose    bool
		wantDebug  bool
	}{
		{name: "console", jsonOutput: false, verbose: false, wantDebug: false},
		{name: "console verbose", jsonOutput: false, verbose: true, wantDebug: true},
		{name: "json", jsonOutput: true, verbose: false, wantDebug: false},
		{name: "json verbose", jsonOutput: true, verbose: true, wantDebug: true},
	}

	saved, savedJSON := Logger, JSONOutput
	t.Cleanup(func() { Logger, JSONOutput = saved, savedJSON })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Initialize(tt.jsonOutput, tt.verbose))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.Equal(t, tt.wantDebug, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
			assert.True(t, Logger.Desugar().Core().Enabled(zapcore.InfoLevel))
		})
	}
}
