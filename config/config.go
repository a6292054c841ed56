package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultProxyEndpoint = "http://api.proxyscrape.com/v3/accounts/freebies/scraperapi/request"

type Config struct {
	Proxy     ProxyConfig
	Fetch     FetchConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
	DBPath    string
	DBURL     string
	LogLevel  string
	LogPath   string
	SiteID    string
	SitesDir  string
	Sites     map[string]*SiteConfig
}

type ProxyConfig struct {
	APIKey   string
	Enabled  bool
	Endpoint string
	Timeout  time.Duration
}

// Active reports whether fetches should try the proxy first.
func (p ProxyConfig) Active() bool {
	return p.Enabled && p.APIKey != ""
}

type FetchConfig struct {
	Timeout time.Duration
}

type CacheConfig struct {
	TTL     time.Duration
	MaxSize int64
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type SiteConfig struct {
	ID               string        `yaml:"id"`
	Name             string        `yaml:"name"`
	BaseURL          string        `yaml:"base_url"`
	FallbackCurrency string        `yaml:"fallback_currency"`
	RateLimitMS      int           `yaml:"rate_limit_ms"`
	SavedSearches    []SavedSearch `yaml:"saved_searches"`
}

// SavedSearch is a free-text query the watcher re-runs on schedule.
type SavedSearch struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

// DefaultSite is used when no site file is present.
func DefaultSite() *SiteConfig {
	return &SiteConfig{
		ID:               "infocasas",
		Name:             "InfoCasas Paraguay",
		BaseURL:          "https://www.infocasas.com.py",
		FallbackCurrency: "Gs.",
		RateLimitMS:      1000,
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	apiKey := os.Getenv("PROXYSCRAPE_API_KEY")

	cfg := &Config{
		Proxy: ProxyConfig{
			APIKey:   apiKey,
			Enabled:  getEnvBool("PROXY_ENABLED", apiKey != ""),
			Endpoint: getEnv("PROXY_ENDPOINT", defaultProxyEndpoint),
			Timeout:  getEnvDuration("PROXY_TIMEOUT", 20*time.Second),
		},
		Fetch: FetchConfig{
			Timeout: getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		},
		Cache: CacheConfig{
			TTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
			MaxSize: int64(getEnvInt("CACHE_MAX_SIZE", 500)),
		},
		Scheduler: SchedulerConfig{
			Cron:     os.Getenv("SEARCH_CRON"),
			Interval: getEnvDuration("SEARCH_INTERVAL", 0),
		},
		DBPath:   getEnv("DB_PATH", "searches.db"),
		DBURL:    os.Getenv("DATABASE_URL"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", "search.log"),
		SiteID:   getEnv("SITE_ID", "infocasas"),
		SitesDir: getEnv("SITES_DIR", "config/sites"),
		Sites:    make(map[string]*SiteConfig),
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Site returns the configured site, falling back to the built-in default.
func (c *Config) Site() *SiteConfig {
	if site, ok := c.Sites[c.SiteID]; ok {
		return site
	}
	return DefaultSite()
}

func (c *Config) loadSiteConfigs() error {
	entries, err := os.ReadDir(c.SitesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(c.SitesDir, entry.Name())
		site, err := LoadSiteConfig(path)
		if err != nil {
			return err
		}

		c.Sites[site.ID] = site
	}

	return nil
}

// LoadSiteConfig reads one site file, filling unset fields from DefaultSite.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	site := DefaultSite()
	site.SavedSearches = nil
	if err := yaml.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if site.ID == "" {
		return nil, fmt.Errorf("parse %s: missing id", path)
	}

	return site, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
