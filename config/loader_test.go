package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
base: https://api.example.com
timeout: 15s
cacheCapacity: 128
followRedirects: true
headers:
  X-Service: relay
circuitBreaker:
  enabled: true
  failureThreshold: 3
  timeout: 5s
  resetTimeout: 45s
logging:
  level: debug
  format: console
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfigFile(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Base)
	assert.Equal(t, 15*time.Second, cfg.Timeout.Duration())
	assert.Equal(t, 128, cfg.CacheCapacity)
	assert.True(t, cfg.FollowRedirects)
	assert.Equal(t, "relay", cfg.Headers["X-Service"])
	require.NotNil(t, cfg.CircuitBreaker.Enabled)
	assert.True(t, *cfg.CircuitBreaker.Enabled)
	assert.Equal(t, 3, cfg.CircuitBreaker.FailureThreshold)
	assert.Equal(t, 45*time.Second, cfg.CircuitBreaker.ResetTimeout.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Base)
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("base: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("RELAY_TEST_BASE", "https://env.example.com")

	cfg, err := LoadFromReader(strings.NewReader(`
base: ${RELAY_TEST_BASE}
headers:
  X-Token: ${RELAY_TEST_TOKEN:-fallback}
`))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Base)
	assert.Equal(t, "fallback", cfg.Headers["X-Token"])
}

func TestSubstituteEnvVars_EscapedDollar(t *testing.T) {
	t.Parallel()

	got := substituteEnvVars("price: $${NOT_A_VAR}")
	assert.Equal(t, "price: ${NOT_A_VAR}", got)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*ForwarderConfig)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *ForwarderConfig) {},
		},
		{
			name:    "invalid base scheme",
			mutate:  func(c *ForwarderConfig) { c.Base = "ftp://host" },
			wantErr: "base",
		},
		{
			name:    "negative cache capacity",
			mutate:  func(c *ForwarderConfig) { c.CacheCapacity = -1 },
			wantErr: "cacheCapacity",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *ForwarderConfig) { c.Timeout = Duration(-time.Second) },
			wantErr: "timeout",
		},
		{
			name: "header with CRLF",
			mutate: func(c *ForwarderConfig) {
				c.Headers = map[string]string{"X-Bad": "a\r\nb"}
			},
			wantErr: "headers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &ForwarderConfig{Base: "https://api.example.com"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToForwarderConfig(t *testing.T) {
	t.Parallel()

	disabled := false
	cfg := &ForwarderConfig{
		Base:          "https://api.example.com",
		Timeout:       Duration(10 * time.Second),
		CacheCapacity: 64,
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          &disabled,
			FailureThreshold: 7,
		},
	}

	fc := cfg.ToForwarderConfig()
	assert.Equal(t, "https://api.example.com", fc.Base)
	assert.Equal(t, 10*time.Second, fc.Timeout)
	assert.Equal(t, 64, fc.CacheCapacity)
	require.NotNil(t, fc.CircuitBreaker)
	assert.False(t, fc.CircuitBreaker.Enabled)
	assert.Equal(t, 7, fc.CircuitBreaker.FailureThreshold)
	// Unset breaker durations keep their defaults.
	assert.Equal(t, 10*time.Second, fc.CircuitBreaker.Timeout)
	assert.Equal(t, 30*time.Second, fc.CircuitBreaker.ResetTimeout)
}

func TestLogConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := &ForwarderConfig{Logging: LoggingConfig{Level: "warn"}}
	lc := cfg.LogConfig()
	assert.Equal(t, "warn", lc.Level)
	assert.NotEmpty(t, lc.Format)
	assert.NotEmpty(t, lc.Output)
}

func TestDuration_YAMLRoundTrip(t *testing.T) {
	t.Parallel()

	var d Duration
	err := d.UnmarshalYAML(func(v interface{}) error {
		*(v.(*string)) = "1h30m"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d.Duration())

	out, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", out)
}
