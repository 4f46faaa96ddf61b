// Package config loads workshopd settings from the environment and an
// optional .env file. The values are used as command-line flag defaults.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	FetcherHTTP   = "http"
	FetcherChrome = "chrome"
)

type Config struct {
	DBPath          string
	SteamCMDPath    string
	InstallDir      string
	DownloadTimeout time.Duration
	Fetcher         string
	ChromePath      string
	Addr            string
}

// Load reads the given .env files (".env" when none are given) and then the
// process environment. Missing .env files are not an error.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...) // Ignore error if .env not found

	return &Config{
		DBPath:          getEnv("WORKSHOPD_DB", "workshopd.db"),
		SteamCMDPath:    getEnv("STEAMCMD_PATH", defaultSteamCMD()),
		InstallDir:      getEnv("STEAMCMD_INSTALL_DIR", ""),
		DownloadTimeout: getDuration("WORKSHOPD_DOWNLOAD_TIMEOUT", 10*time.Minute),
		Fetcher:         getEnv("WORKSHOPD_FETCHER", FetcherHTTP),
		ChromePath:      getEnv("CHROME_PATH", ""),
		Addr:            getEnv("WORKSHOPD_ADDR", "localhost:8080"),
	}
}

func defaultSteamCMD() string {
	if os.PathSeparator == '\\' {
		return "steamcmd.exe"
	}
	return "steamcmd.sh"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %v", key, value, fallback)
		return fallback
	}
	return d
}
