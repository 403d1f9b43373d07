package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Upstream APIs
	WikiAPIURL     string
	WikidataAPIURL string
	UserAgent      string
	HTTPTimeout    time.Duration

	// Auth
	APIKey string

	// Coordinate resolution
	CoordBatchSize       int
	MaxConcurrentLookups int
	CoordCacheSize       int
	CoordCacheTTL        time.Duration

	// Article cache
	ArticleCacheTTL time.Duration

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Job state
	JobTTL time.Duration

	// Table location
	SectionHeading string
	SectionAnchor  string
	TableClass     string

	// HTTP
	CORSOrigins []string

	// Logging
	LogFile string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		WikiAPIURL:     envOr("WIKI_API_URL", "https://en.wikipedia.org/w/api.php"),
		WikidataAPIURL: envOr("WIKIDATA_API_URL", "https://www.wikidata.org/w/api.php"),
		UserAgent:      envOr("USER_AGENT", "wikiroutes/1.0 (https://github.com/dgallion1/wikiroutes)"),
		HTTPTimeout:    envDuration("HTTP_TIMEOUT", 20*time.Second),

		APIKey: os.Getenv("API_KEY"),

		CoordBatchSize:       envInt("COORD_BATCH_SIZE", 50),
		MaxConcurrentLookups: envInt("MAX_CONCURRENT_LOOKUPS", 4),
		CoordCacheSize:       envInt("COORD_CACHE_SIZE", 4096),
		CoordCacheTTL:        envDuration("COORD_CACHE_TTL", 6*time.Hour),

		ArticleCacheTTL: envDuration("ARTICLE_CACHE_TTL", 15*time.Minute),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		JobTTL: envDuration("JOB_TTL", 30*time.Minute),

		SectionHeading: envOr("SECTION_HEADING", "Airlines and destinations"),
		SectionAnchor:  envOr("SECTION_ANCHOR", "Airlines_and_destinations"),
		TableClass:     envOr("TABLE_CLASS", "wikitable"),

		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),

		LogFile: os.Getenv("LOG_FILE"),
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 20 * time.Second
	}
	if cfg.CoordBatchSize <= 0 || cfg.CoordBatchSize > 50 {
		cfg.CoordBatchSize = 50
	}
	if cfg.MaxConcurrentLookups <= 0 {
		cfg.MaxConcurrentLookups = 4
	}
	if cfg.CoordCacheSize < 0 {
		cfg.CoordCacheSize = 0
	}
	if cfg.CoordCacheTTL <= 0 {
		cfg.CoordCacheTTL = 6 * time.Hour
	}
	if cfg.ArticleCacheTTL < 0 {
		cfg.ArticleCacheTTL = 0
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 30 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.WikiAPIURL == "" {
		return fmt.Errorf("WIKI_API_URL is required")
	}
	if c.WikidataAPIURL == "" {
		return fmt.Errorf("WIKIDATA_API_URL is required")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("USER_AGENT is required")
	}
	if c.SectionHeading == "" && c.SectionAnchor == "" {
		return fmt.Errorf("one of SECTION_HEADING or SECTION_ANCHOR is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
