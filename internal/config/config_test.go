package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "quick", cfg.Wipe.DefaultMethod)
	assert.True(t, cfg.Wipe.Verify)
	assert.True(t, cfg.Security.RequireConfirmation)
	assert.Equal(t, 60*time.Second, cfg.EscalationTimeout())
	assert.Equal(t, 30*time.Second, cfg.HealthTimeout())
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Wipe.DefaultMethod = "gutmann"
	cfg.Wipe.MaxSpeedMBps = 150
	cfg.Security.ExcludedDevices = []string{"/dev/sda"}
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gutmann", loaded.Wipe.DefaultMethod)
	assert.Equal(t, float64(150), loaded.Wipe.MaxSpeedMBps)
	assert.Equal(t, []string{"/dev/sda"}, loaded.Security.ExcludedDevices)
}

func TestLoadInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wipe:\n  default_method: shred\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown method", func(c *Config) { c.Wipe.DefaultMethod = "shred" }},
		{"negative block size", func(c *Config) { c.Wipe.BlockSize = -1 }},
		{"huge block size", func(c *Config) { c.Wipe.BlockSize = 256 * 1024 * 1024 }},
		{"negative speed", func(c *Config) { c.Wipe.MaxSpeedMBps = -5 }},
		{"zero segments", func(c *Config) { c.Wipe.Segments = 0 }},
		{"bad scratch dir", func(c *Config) { c.Wipe.ScratchDirName = "/" }},
		{"zero verify samples", func(c *Config) { c.Verify.Samples = 0 }},
		{"zero health parallel", func(c *Config) { c.Health.MaxParallel = 0 }},
		{"escalation timeout too long", func(c *Config) { c.Escalation.TimeoutSec = 601 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "TRACE" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestApplyProfiles(t *testing.T) {
	cfg := Default()
	require.NoError(t, ApplyProfile(cfg, "safe"))
	assert.Equal(t, float64(50), cfg.Wipe.MaxSpeedMBps)

	require.NoError(t, ApplyProfile(cfg, "aggressive"))
	assert.Equal(t, float64(0), cfg.Wipe.MaxSpeedMBps)

	assert.Error(t, ApplyProfile(cfg, "turbo"))
}
