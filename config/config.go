package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment keys read at startup. The API key is the only secret; a blank
// key aborts the run before any network call.
const (
	EnvAPIKey   = "SCRAPERAPI_API_KEY"
	EnvFolderID = "FOLDER_ID"
)

// Config holds collector configuration.
type Config struct {
	APIKey    string
	TargetURL string
	ProxyBase string

	ContainerName string
	TableName     string
	OutputRoot    string
	Backend       string // workbook, sqlite, or dual
	SQLitePath    string
	PostgresDSN   string

	ArchiveDir string
	FolderID   string

	Timeout     time.Duration
	UserAgent   string
	Interval    time.Duration
	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns defaults for everything except the secret API key.
func DefaultConfig() *Config {
	return &Config{
		APIKey:        os.Getenv(EnvAPIKey),
		TargetURL:     "https://lib.sen.go.kr/lib/?congestionMap",
		ProxyBase:     "http://api.scraperapi.com/",
		ContainerName: "library-congestion",
		TableName:     "readings",
		OutputRoot:    "output",
		Backend:       "workbook",
		SQLitePath:    "output/readings.db",
		PostgresDSN:   "",
		ArchiveDir:    "",
		FolderID:      os.Getenv(EnvFolderID),
		Timeout:       10 * time.Second,
		UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Interval:      0,
		MetricsAddr:   "",
		Verbose:       false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("api key cannot be empty (set %s)", EnvAPIKey)
	}
	if strings.TrimSpace(c.TargetURL) == "" {
		return fmt.Errorf("target URL cannot be empty")
	}

	parsed, err := url.Parse(c.TargetURL)
	if err != nil {
		return fmt.Errorf("invalid target URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("target URL must include a host")
	}

	if strings.TrimSpace(c.ProxyBase) == "" {
		return fmt.Errorf("proxy base cannot be empty")
	}
	if c.ContainerName == "" {
		return fmt.Errorf("container name cannot be empty")
	}
	if c.TableName == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if c.Backend != "workbook" && c.Backend != "sqlite" && c.Backend != "dual" {
		return fmt.Errorf("backend must be workbook, sqlite, or dual")
	}
	if c.Backend != "sqlite" && c.OutputRoot == "" {
		return fmt.Errorf("output root cannot be empty")
	}
	if c.Backend != "workbook" && c.SQLitePath == "" {
		return fmt.Errorf("sqlite path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration reads a duration environment override.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}
