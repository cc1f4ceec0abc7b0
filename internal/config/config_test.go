package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend:5000/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://backend:5000", cfg.BackendURL)
	assert.Equal(t, time.Duration(0), cfg.BackendTimeout)
	assert.Equal(t, 3, cfg.FactCount)
	assert.Equal(t, 6*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.TemplatesDir)
	assert.Equal(t, filepath.Join("data", "journeys"), cfg.ArchiveDir())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://gen.example.com")
	t.Setenv("BACKEND_TIMEOUT", "90s")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("FACT_COUNT", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.BackendTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.FactCount)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad backend":      {"BACKEND_URL": "localhost"},
		"negative timeout": {"BACKEND_TIMEOUT": "-1s"},
		"negative facts":   {"FACT_COUNT": "-2"},
		"zero ttl":         {"SESSION_TTL": "0s"},
		"not a duration":   {"SESSION_TTL": "soon"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for key, value := range vars {
				t.Setenv(key, value)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{DataDir: filepath.Join(dir, "data"), LogDir: filepath.Join(dir, "logs")}

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.ArchiveDir())
	assert.DirExists(t, cfg.LogDir)
	assert.Equal(t, filepath.Join(dir, "logs", "lifejourney.log"), cfg.LogFile())
}

func TestCurrentConfigIsCopied(t *testing.T) {
	SetCurrentConfig(&Config{Port: "9000"})
	t.Cleanup(func() { SetCurrentConfig(nil) })

	copy1 := GetCurrentConfig()
	copy1.Port = "1"
	assert.Equal(t, "9000", GetCurrentConfig().Port)
}
