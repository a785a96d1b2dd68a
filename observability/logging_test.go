package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  DefaultLogConfig(),
		},
		{
			name: "console format to stderr",
			cfg:  LogConfig{Level: "debug", Format: "console", Output: "stderr"},
		},
		{
			name:    "invalid level",
			cfg:     LogConfig{Level: "loud", Format: "json", Output: "stdout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestCorrelationIDContext(t *testing.T) {
	t.Parallel()

	ctx := ContextWithCorrelationID(context.Background(), "cid-42")
	assert.Equal(t, "cid-42", CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NopLogger()
	assert.NotPanics(t, func() {
		logger.Debug("a")
		logger.Info("b", String("k", "v"))
		logger.Warn("c", Int("n", 1))
		logger.Error("d", Error(nil))
		logger.With(Bool("x", true)).Info("e")
		logger.WithContext(ContextWithCorrelationID(context.Background(), "cid")).Info("f")
		_ = logger.Sync()
	})
}
