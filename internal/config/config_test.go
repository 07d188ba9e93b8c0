package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", map[string]interface{}{"map.file": "city.osm"})
	require.NoError(t, err)

	assert.Equal(t, "city.osm", cfg.Map.File)
	assert.True(t, cfg.Map.Strict)
	assert.Equal(t, 4, cfg.Map.PBFProcs)
	assert.Equal(t, 50.0, cfg.Routing.StandardSpeed)
	assert.Equal(t, "bestfirst", cfg.Routing.Strategy)
	assert.Equal(t, time.Duration(0), cfg.Routing.Timeout)
	assert.Equal(t, 10000, cfg.Cache.Size)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingMapFile(t *testing.T) {
	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File")
}

func TestLoadFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "monad.yaml")
	data := `
map:
  file: bilbao.osm.pbf
  strict: false
routing:
  standard_speed: 40
  max_expansions: 100000
  timeout: 2s
  strategy: Contraction
cache:
  size: 0
server:
  port: 9090
  allowed_origins:
    - http://localhost:5173
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(fname, []byte(data), 0644))

	cfg, err := Load(fname, nil)
	require.NoError(t, err)

	assert.Equal(t, "bilbao.osm.pbf", cfg.Map.File)
	assert.False(t, cfg.Map.Strict)
	assert.Equal(t, 40.0, cfg.Routing.StandardSpeed)
	assert.Equal(t, 100000, cfg.Routing.MaxExpansions)
	assert.Equal(t, 2*time.Second, cfg.Routing.Timeout)
	assert.Equal(t, "contraction", cfg.Routing.Strategy)
	assert.Equal(t, 0, cfg.Cache.Size)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("MONAD_MAP_FILE", "env.osm")
	t.Setenv("MONAD_ROUTING_STANDARD_SPEED", "30")
	t.Setenv("MONAD_SERVER_PORT", "7070")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "env.osm", cfg.Map.File)
	assert.Equal(t, 30.0, cfg.Routing.StandardSpeed)
	assert.Equal(t, 7070, cfg.Server.Port)

	cfg, err = Load("", map[string]interface{}{"map.file": "flag.osm"})
	require.NoError(t, err)
	assert.Equal(t, "flag.osm", cfg.Map.File, "Overrides should take precedence over environment")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]interface{}
	}{
		{"strategy", map[string]interface{}{"routing.strategy": "dijkstra"}},
		{"speed", map[string]interface{}{"routing.standard_speed": -5.0}},
		{"port", map[string]interface{}{"server.port": 70000}},
		{"log level", map[string]interface{}{"log.level": "verbose"}},
		{"log format", map[string]interface{}{"log.format": "xml"}},
		{"cache size", map[string]interface{}{"cache.size": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.overrides["map.file"] = "city.osm"
			_, err := Load("", tt.overrides)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
