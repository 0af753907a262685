// Package config loads runtime settings from defaults, an optional YAML
// file, a .env file and STOCKBOOK_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "STOCKBOOK"

// Keys.
const (
	KeyHTTPTimeout        = "http.timeout"
	KeyHTTPUserAgent      = "http.user_agent"
	KeyHTTPRateLimit      = "http.rate_limit"
	KeyCacheTTL           = "cache.ttl"
	KeyCacheSize          = "cache.size"
	KeyCompareConcurrency = "compare.concurrency"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
	KeyWorkbookPath       = "workbook.path"
	KeyOutputFormat       = "output.format"
	KeyProviderDirect     = "provider.direct"
	KeyNewsRSSURL         = "news.rss_url"
	KeyChartDir           = "chart.dir"
)

type Config struct {
	HTTP     HTTP
	Cache    Cache
	Compare  Compare
	Log      Log
	Workbook string
	Output   string
	// Direct fetches quoteSummary with the built-in HTTP client instead of yf-go.
	Direct   bool
	// NewsRSS is the RSS search URL format; empty uses the Google News feed.
	NewsRSS  string
	ChartDir string
}

type HTTP struct {
	Timeout   time.Duration
	UserAgent string
	RateLimit int
}

type Cache struct {
	TTL  time.Duration
	Size int
}

type Compare struct {
	Concurrency int
}

type Log struct {
	Level  string
	Format string
}

// New returns a viper instance with defaults and env binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyHTTPTimeout, 10*time.Second)
	v.SetDefault(KeyHTTPUserAgent, "Mozilla/5.0 (compatible; stockbook/1.0)")
	v.SetDefault(KeyHTTPRateLimit, 5)
	v.SetDefault(KeyCacheTTL, 5*time.Minute)
	v.SetDefault(KeyCacheSize, 64)
	v.SetDefault(KeyCompareConcurrency, 1)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyWorkbookPath, "stockbook.xlsx")
	v.SetDefault(KeyOutputFormat, "table")
	v.SetDefault(KeyProviderDirect, false)
	v.SetDefault(KeyNewsRSSURL, "")
	v.SetDefault(KeyChartDir, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads envFile (if present) into the process environment, then the
// optional config file, and decodes the result.
func Load(v *viper.Viper, configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return Decode(v)
}

// Decode builds a Config from v and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	c := &Config{
		HTTP: HTTP{
			Timeout:   v.GetDuration(KeyHTTPTimeout),
			UserAgent: v.GetString(KeyHTTPUserAgent),
			RateLimit: v.GetInt(KeyHTTPRateLimit),
		},
		Cache:    Cache{TTL: v.GetDuration(KeyCacheTTL), Size: v.GetInt(KeyCacheSize)},
		Compare:  Compare{Concurrency: v.GetInt(KeyCompareConcurrency)},
		Log:      Log{Level: v.GetString(KeyLogLevel), Format: v.GetString(KeyLogFormat)},
		Workbook: v.GetString(KeyWorkbookPath),
		Output:   strings.ToLower(v.GetString(KeyOutputFormat)),
		Direct:   v.GetBool(KeyProviderDirect),
		NewsRSS:  v.GetString(KeyNewsRSSURL),
		ChartDir: v.GetString(KeyChartDir),
	}
	if c.HTTP.Timeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyHTTPTimeout, c.HTTP.Timeout)
	}
	if c.Compare.Concurrency < 1 {
		c.Compare.Concurrency = 1
	}
	if c.Cache.Size < 0 {
		return nil, fmt.Errorf("%s must not be negative", KeyCacheSize)
	}
	if c.NewsRSS != "" && !strings.Contains(c.NewsRSS, "%s") {
		return nil, fmt.Errorf("%s must contain %%s for the query", KeyNewsRSSURL)
	}
	return c, nil
}
