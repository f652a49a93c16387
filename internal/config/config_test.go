package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
[server]
port = 8080

[station]
default_region_code = "31.71.01.1001"
latitude = -6.1754
longitude = 106.8272
`

func TestLoadAndValidateDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api.bmkg.go.id/publik/prakiraan-cuaca", cfg.BMKG.BaseURL)
	assert.Equal(t, "adm4", cfg.BMKG.AdmLevel)
	assert.Equal(t, 15, cfg.BMKG.RequestTimeoutSeconds)
	assert.Equal(t, 10, cfg.BMKG.CacheTTLMinutes)
	assert.Equal(t, "Mozilla/5.0 (TacWX/1.0)", cfg.BMKG.UserAgent)

	assert.Equal(t, 5.0, cfg.Derived.VFRMinVisSM)
	assert.Equal(t, 3000.0, cfg.Derived.VFRMinCeilingFt)
	assert.Equal(t, 3.0, cfg.Derived.IFRMaxVisSM)
	assert.Equal(t, 1000.0, cfg.Derived.IFRMaxCeilingFt)
	assert.Equal(t, 30.0, cfg.Derived.WindNoGoKt)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "www", cfg.Server.StaticFilesDir)
	assert.Equal(t, 500, cfg.Storage.MaxRecordsInAPI)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[server]
port = 70000
`))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadAdmLevel(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[bmkg]
adm_level = "adm3"
`))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "adm_level")
}

func TestValidateRejectsInconsistentThresholds(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[derived]
vfr_min_vis_sm = 2.0
ifr_max_vis_sm = 4.0
`))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "ifr_max_vis_sm")
}

func TestValidateRejectsDuplicateRunways(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[[station.runways]]
id = "24"
heading_mag = 240

[[station.runways]]
id = "24"
heading_mag = 60
`))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "duplicate runway")
}

func TestValidateArchiveRequiresPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[storage]
archive_enabled = true
`))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "sqlite_path")
}

func TestBriefingAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	cfg, err := Load(writeConfig(t, minimalConfig+`
[briefing]
enabled = true
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "test-key", cfg.Briefing.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Briefing.Model)
}

func TestLoadWithFallbackMissingEverywhere(t *testing.T) {
	_, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
