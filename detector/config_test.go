package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 1.3090, cfg.FOV, 1e-4)
	assert.True(t, cfg.FilterRatios)
	assert.True(t, cfg.FilterAngles)
	assert.False(t, cfg.FilterEnclosed)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero fov", func(c *Config) { c.FOV = 0 }},
		{"straight fov", func(c *Config) { c.FOV = math32.Pi }},
		{"nan fov", func(c *Config) { c.FOV = math32.NaN() }},
		{"negative k", func(c *Config) { c.HarrisK = -0.01 }},
		{"infinite k", func(c *Config) { c.HarrisK = math32.Inf(1) }},
		{"threshold above one", func(c *Config) { c.HarrisThreshold = 1.5 }},
		{"negative low", func(c *Config) { c.HysteresisLow = -0.1 }},
		{"high above one", func(c *Config) { c.HysteresisHigh = 2 }},
		{"low above high", func(c *Config) { c.HysteresisLow, c.HysteresisHigh = 0.2, 0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}

	cfg := DefaultConfig()
	cfg.HarrisK, cfg.HarrisThreshold = 0, 0
	cfg.HysteresisLow, cfg.HysteresisHigh = 0.3, 0.3
	assert.NoError(t, cfg.Validate(), "boundaries are inclusive")
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeConfig(t, "detector.json", `{"harris_thresh": 0.1, "filter_enclosed": true}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	want := DefaultConfig()
	want.HarrisThreshold = 0.1
	want.FilterEnclosed = true
	assert.Equal(t, want, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("extension", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "detector.yaml", "{}"))
		assert.ErrorContains(t, err, ".json extension")
	})
	t.Run("missing", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorContains(t, err, "stat config file")
	})
	t.Run("malformed", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "detector.json", `{"fov": `))
		assert.ErrorContains(t, err, "parse config file")
	})
	t.Run("out of range", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "detector.json", `{"hyst_low": 0.9, "hyst_high": 0.1}`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}
