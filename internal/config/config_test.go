package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Terrain.ZoneRadius)
	assert.Equal(t, 148, cfg.Generation.WaterLevel)
	assert.Equal(t, [3]float64{52, 150, 42}, cfg.Player.Spawn)
	assert.True(t, cfg.Player.FlyMode)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxel.yaml")
	data := []byte(`
terrain:
  zone_radius: 1
generation:
  seed: 42
  water_level: 150
loop:
  max_delta_time: 50ms
eventbus:
  url: nats://localhost:4222
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("VOXEL_CONFIG", path)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Terrain.ZoneRadius)
	assert.Equal(t, int64(42), cfg.Generation.Seed)
	assert.Equal(t, 150, cfg.Generation.WaterLevel)
	assert.Equal(t, 220, cfg.Generation.SnowLevel, "незаданные поля остаются по умолчанию")
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.MaxDeltaTime)
	assert.Equal(t, "nats://localhost:4222", cfg.EventBus.URL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bedrock":        "generation:\n  bedrock_level: 500\n",
		"fractal levels": "generation:\n  fractal_levels: 1\n",
		"water above":    "generation:\n  water_level: 300\n",
		"water below":    "generation:\n  water_level: 100\n",
		"snow above":     "generation:\n  snow_level: 256\n",
		"cave frequency": "generation:\n  cave_frequency: 0\n",
		"grass freq":     "generation:\n  grass_frequency: -1\n",
		"worley freq":    "generation:\n  worley_frequency: 0\n",
		"blend":          "generation:\n  blend_low: 0.5\n  blend_high: 0.5\n",
		"pitch 90":       "player:\n  max_pitch: 90\n",
		"pitch zero":     "player:\n  max_pitch: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAPIPortFallback(t *testing.T) {
	api := APIConfig{}
	t.Setenv("VOXEL_API_PORT", "")
	assert.Equal(t, 8088, api.GetPort())

	t.Setenv("VOXEL_API_PORT", "9000")
	assert.Equal(t, 9000, api.GetPort())

	api.Port = 7000
	assert.Equal(t, 7000, api.GetPort())
}
