package main

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server settings resolved from flags, the environment and
// an optional .env file. Environment variables win over flags.
type Config struct {
	Addr       string
	WebformDir string
	Preset     string
	DBDriver   string
	DBDSN      string
	CacheSize  int
	Sanitize   bool
	Quiet      bool
}

func loadConfig() *Config {
	_ = godotenv.Load()

	addr := flag.String("addr", ":8080", "listen address")
	dir := flag.String("dir", "webforms", "directory of webform definitions")
	preset := flag.String("preset", "", "YAML/JSON preset applied to every form")
	driver := flag.String("db-driver", "", "draft and vocabulary store driver: pgx or sqlite")
	dsn := flag.String("db-dsn", "", "draft and vocabulary store DSN")
	cacheSize := flag.Int("cache-size", 256, "vocabularies kept in the LRU cache")
	sanitize := flag.Bool("sanitize", false, "sanitize raw HTML markup")
	quiet := flag.Bool("quiet", false, "disable request logging")
	flag.Parse()

	cfg := &Config{
		Addr:       *addr,
		WebformDir: *dir,
		Preset:     *preset,
		DBDriver:   *driver,
		DBDSN:      *dsn,
		CacheSize:  *cacheSize,
		Sanitize:   *sanitize,
		Quiet:      *quiet,
	}

	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			cfg.Addr = envPort
		} else {
			cfg.Addr = ":" + envPort
		}
	}
	cfg.Addr = firstNonEmpty(strings.TrimSpace(os.Getenv("ADDR")), cfg.Addr)
	cfg.WebformDir = firstNonEmpty(strings.TrimSpace(os.Getenv("WEBFORM_DIR")), cfg.WebformDir)
	cfg.Preset = firstNonEmpty(strings.TrimSpace(os.Getenv("WEBFORM_PRESET")), cfg.Preset)
	cfg.DBDriver = firstNonEmpty(strings.TrimSpace(os.Getenv("DB_DRIVER")), cfg.DBDriver)
	cfg.DBDSN = firstNonEmpty(strings.TrimSpace(os.Getenv("DB_DSN")), cfg.DBDSN)
	if cfg.DBDSN != "" && cfg.DBDriver == "" {
		cfg.DBDriver = "pgx"
	}
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CACHE_SIZE"))); err == nil && v > 0 {
		cfg.CacheSize = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("WEBFORM_SANITIZE"))); err == nil {
		cfg.Sanitize = v
	}
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
