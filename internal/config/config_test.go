package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"WORKSHOPD_DB", "STEAMCMD_PATH", "STEAMCMD_INSTALL_DIR",
	"WORKSHOPD_DOWNLOAD_TIMEOUT", "WORKSHOPD_FETCHER", "CHROME_PATH", "WORKSHOPD_ADDR",
}

// unsetAll clears the config variables for the duration of the test.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetAll(t)

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "workshopd.db", cfg.DBPath)
	assert.Equal(t, "", cfg.InstallDir)
	assert.Equal(t, 10*time.Minute, cfg.DownloadTimeout)
	assert.Equal(t, FetcherHTTP, cfg.Fetcher)
	assert.Equal(t, "localhost:8080", cfg.Addr)
	assert.NotEmpty(t, cfg.SteamCMDPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	unsetAll(t)
	t.Setenv("WORKSHOPD_DB", "/var/lib/workshopd.db")
	t.Setenv("STEAMCMD_PATH", "/opt/steamcmd/steamcmd.sh")
	t.Setenv("WORKSHOPD_DOWNLOAD_TIMEOUT", "90s")
	t.Setenv("WORKSHOPD_FETCHER", FetcherChrome)

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "/var/lib/workshopd.db", cfg.DBPath)
	assert.Equal(t, "/opt/steamcmd/steamcmd.sh", cfg.SteamCMDPath)
	assert.Equal(t, 90*time.Second, cfg.DownloadTimeout)
	assert.Equal(t, FetcherChrome, cfg.Fetcher)
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	unsetAll(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WORKSHOPD_ADDR=0.0.0.0:9000\nCHROME_PATH=/usr/bin/chromium\n"), 0o644))
	t.Setenv("CHROME_PATH", "/opt/chrome")

	cfg := Load(envFile)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "/opt/chrome", cfg.ChromePath)
}

func TestInvalidTimeoutFallsBack(t *testing.T) {
	unsetAll(t)
	t.Setenv("WORKSHOPD_DOWNLOAD_TIMEOUT", "soon")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, 10*time.Minute, cfg.DownloadTimeout)
}
