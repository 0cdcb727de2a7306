// Package config reads CLUBHIRE_* settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the binaries read.
type Config struct {
	BackendURL  string
	HTTPTimeout time.Duration
	LogLevel    string

	PortalAddr string
	RedisAddr  string
	PGDSN      string
	RateBurst  int
	RatePerSec int

	TokenFile string

	DevAddr   string
	DevSecret string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		BackendURL:  "http://localhost:8000",
		HTTPTimeout: 10 * time.Second,
		LogLevel:    "info",
		PortalAddr:  ":8080",
		RateBurst:   50,
		RatePerSec:  20,
		DevAddr:     ":8000",
	}
}

// LoadDotenv loads files into the environment without overriding variables
// that are already set. Missing files are ignored.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv overlays CLUBHIRE_* variables on Defaults.
func FromEnv() (Config, error) {
	return parse(os.Getenv)
}

// Load is LoadDotenv followed by FromEnv.
func Load(files ...string) (Config, error) {
	if err := LoadDotenv(files...); err != nil {
		return Config{}, err
	}
	return FromEnv()
}

func parse(getenv func(string) string) (Config, error) {
	c := Defaults()
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("CLUBHIRE_BACKEND_URL", &c.BackendURL)
	str("CLUBHIRE_LOG_LEVEL", &c.LogLevel)
	str("CLUBHIRE_PORTAL_ADDR", &c.PortalAddr)
	str("CLUBHIRE_REDIS_ADDR", &c.RedisAddr)
	str("CLUBHIRE_PG_DSN", &c.PGDSN)
	str("CLUBHIRE_TOKEN_FILE", &c.TokenFile)
	str("CLUBHIRE_DEV_ADDR", &c.DevAddr)
	str("CLUBHIRE_DEV_SECRET", &c.DevSecret)

	if v := strings.TrimSpace(getenv("CLUBHIRE_HTTP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: CLUBHIRE_HTTP_TIMEOUT: invalid duration %q", v)
		}
		c.HTTPTimeout = d
	}
	for key, dst := range map[string]*int{
		"CLUBHIRE_RATE_BURST":   &c.RateBurst,
		"CLUBHIRE_RATE_PER_SEC": &c.RatePerSec,
	} {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: %s: invalid positive integer %q", key, v)
		}
		*dst = n
	}
	return c, nil
}
