package art

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300, cfg.Size)
	assert.Equal(t, 271, cfg.Anchors)
	assert.Equal(t, ShapeCircle, cfg.Shape)
	assert.Equal(t, ModeFast, cfg.Mode)
	assert.Equal(t, 0.5, cfg.Tolerance)
	assert.Equal(t, 0, cfg.StartAnchor)
}

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(c *Config) {}, false},
		{"size too small", func(c *Config) { c.Size = 1 }, true},
		{"too few anchors", func(c *Config) { c.Anchors = 1 }, true},
		{"square shape valid multiple of 4", func(c *Config) { c.Shape = ShapeSquare; c.Anchors = 272 }, false},
		{"square shape rejects 271 anchors", func(c *Config) { c.Shape = ShapeSquare }, true},
		{"unknown shape", func(c *Config) { c.Shape = "triangle" }, true},
		{"unknown mode", func(c *Config) { c.Mode = "turbo" }, true},
		{"negative tolerance", func(c *Config) { c.Tolerance = -0.1 }, true},
		{"zero tolerance allowed", func(c *Config) { c.Tolerance = 0 }, false},
		{"start anchor negative", func(c *Config) { c.StartAnchor = -1 }, true},
		{"start anchor out of range", func(c *Config) { c.StartAnchor = 271 }, true},
		{"start anchor last valid", func(c *Config) { c.StartAnchor = 270 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMinSep(t *testing.T) {
	assert.Equal(t, 18, Config{Anchors: 271}.MinSep())
	assert.Equal(t, 1, Config{Anchors: 15}.MinSep())
	assert.Equal(t, 0, Config{Anchors: 14}.MinSep())
}

func TestAdmissible(t *testing.T) {
	cfg := DefaultConfig() // 271 anchors, MinSep 18

	assert.False(t, cfg.Admissible(5, 5), "self chord")
	assert.False(t, cfg.Admissible(0, 18), "exactly MinSep apart")
	assert.True(t, cfg.Admissible(0, 19), "just past MinSep")
	assert.True(t, cfg.Admissible(19, 0), "order does not matter")

	// Separation is circular: index 0 and index 270 are neighbours.
	assert.False(t, cfg.Admissible(0, 270))
	assert.False(t, cfg.Admissible(0, 253), "wrap distance 18")
	assert.True(t, cfg.Admissible(0, 252), "wrap distance 19")
}

func TestAdmissibleNoSeparation(t *testing.T) {
	// Fewer than 15 anchors gives MinSep 0: everything but self chords is allowed.
	cfg := Config{Anchors: 8}

	assert.True(t, cfg.Admissible(0, 1))
	assert.True(t, cfg.Admissible(0, 7))
	assert.False(t, cfg.Admissible(3, 3))
}
