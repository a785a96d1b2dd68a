package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, sampleConfig)
	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	cfg := w.LastConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "https://api.example.com", cfg.Base)
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, sampleConfig)

	reloaded := make(chan *ForwarderConfig, 1)
	w, err := NewWatcher(path, func(cfg *ForwarderConfig) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, WithDebounceDelay(20*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("base: https://changed.example.com\n"), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "https://changed.example.com", cfg.Base)
		assert.Equal(t, "https://changed.example.com", w.LastConfig().Base)
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback was not invoked")
	}
}

func TestWatcher_InvalidReloadKeepsLastConfig(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, sampleConfig)

	failed := make(chan error, 1)
	w, err := NewWatcher(path, nil,
		WithDebounceDelay(20*time.Millisecond),
		WithErrorCallback(func(err error) {
			select {
			case failed <- err:
			default:
			}
		}),
	)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("base: ftp://invalid\n"), 0o600))

	select {
	case <-failed:
		assert.Equal(t, "https://api.example.com", w.LastConfig().Base)
	case <-time.After(5 * time.Second):
		t.Fatal("error callback was not invoked")
	}
}

func TestWatcher_StartWithMissingFile(t *testing.T) {
	t.Parallel()

	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, sampleConfig)
	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
}
