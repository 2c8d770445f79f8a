package watermark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 30, cfg.MinPatternLength)
	assert.Equal(t, 300, cfg.SearchWindow)
	assert.Equal(t, 8, cfg.MaxPageWorkers)
	assert.Equal(t, 1, cfg.ImageScanDepth)
	assert.Equal(t, BracketMode, cfg.ScanMode)
	assert.Equal(t, []string{"Version"}, cfg.ProducerTriggers)
	assert.Equal(t, []Signature{
		{Width: 2360, Height: 1640},
		{Width: 1640, Height: 2360},
	}, cfg.Signatures)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		shouldErr bool
	}{
		{
			name:      "valid config",
			mutate:    func(cfg *Config) {},
			shouldErr: false,
		},
		{
			name:      "zero min pattern length",
			mutate:    func(cfg *Config) { cfg.MinPatternLength = 0 },
			shouldErr: true,
		},
		{
			name:      "zero search window",
			mutate:    func(cfg *Config) { cfg.SearchWindow = 0 },
			shouldErr: true,
		},
		{
			name:      "zero page workers",
			mutate:    func(cfg *Config) { cfg.MaxPageWorkers = 0 },
			shouldErr: true,
		},
		{
			name:      "image scan depth beyond cap",
			mutate:    func(cfg *Config) { cfg.ImageScanDepth = 7 },
			shouldErr: true,
		},
		{
			name:      "zero-width signature",
			mutate:    func(cfg *Config) { cfg.Signatures = []Signature{{Width: 0, Height: 100}} },
			shouldErr: true,
		},
		{
			name:      "unknown scan mode",
			mutate:    func(cfg *Config) { cfg.ScanMode = "regex" },
			shouldErr: true,
		},
		{
			name:      "zero concurrent docs",
			mutate:    func(cfg *Config) { cfg.MaxConcurrentDocs = 0 },
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
min_pattern_length: 20
pattern_search_window: 500
scan_mode: anchor
max_page_workers: 4
producer_triggers: ["Version", "SomeTool"]
watermark_signatures:
  - width: 1000
    height: 500
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.MinPatternLength)
	assert.Equal(t, 500, cfg.SearchWindow)
	assert.Equal(t, AnchorMode, cfg.ScanMode)
	assert.Equal(t, 4, cfg.MaxPageWorkers)
	assert.Equal(t, []string{"Version", "SomeTool"}, cfg.ProducerTriggers)
	assert.Equal(t, []Signature{{Width: 1000, Height: 500}}, cfg.Signatures)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1, cfg.ImageScanDepth)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(envMaxPageWorkers, "3")
	t.Setenv(envMinPatternLength, "12")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxPageWorkers)
	assert.Equal(t, 12, cfg.MinPatternLength)
}

func TestLoadConfig_InvalidEnvIgnored(t *testing.T) {
	t.Setenv(envSearchWindow, "not-a-number")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.SearchWindow)
}
