package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Claude  ClaudeConfig  `yaml:"claude" mapstructure:"claude"`
	Index   IndexConfig   `yaml:"index" mapstructure:"index"`
	Website WebsiteConfig `yaml:"website" mapstructure:"website"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Chat    ChatConfig    `yaml:"chat" mapstructure:"chat"`
	CRM     CRMConfig     `yaml:"crm" mapstructure:"crm"`
	Contact ContactConfig `yaml:"contact" mapstructure:"contact"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ClaudeConfig holds Anthropic API settings for answer generation.
type ClaudeConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// IndexConfig configures the local document index.
type IndexConfig struct {
	Path           string `yaml:"path" mapstructure:"path"`
	TopK           int    `yaml:"top_k" mapstructure:"top_k"`
	PassageCap     int    `yaml:"passage_cap" mapstructure:"passage_cap"`
	ChunkChars     int    `yaml:"chunk_chars" mapstructure:"chunk_chars"`
	ChunkOverlap   int    `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
}

// WebsiteConfig configures the website context fetcher.
type WebsiteConfig struct {
	URL              string  `yaml:"url" mapstructure:"url"`
	MaxPages         int     `yaml:"max_pages" mapstructure:"max_pages"`
	FetchTimeoutSecs int     `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	ContentTTLSecs   int     `yaml:"content_ttl_secs" mapstructure:"content_ttl_secs"`
	SearchTTLSecs    int     `yaml:"search_ttl_secs" mapstructure:"search_ttl_secs"`
	RequestsPerSec   float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// SearchConfig configures the external web search fetcher.
type SearchConfig struct {
	PrimaryBaseURL    string   `yaml:"primary_base_url" mapstructure:"primary_base_url"`
	FallbackBaseURL   string   `yaml:"fallback_base_url" mapstructure:"fallback_base_url"`
	MaxResults        int      `yaml:"max_results" mapstructure:"max_results"`
	TTLSecs           int      `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	RelevanceKeywords []string `yaml:"relevance_keywords" mapstructure:"relevance_keywords"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries           int      `yaml:"retries" mapstructure:"retries"`
}

// ChatConfig configures the chat pipeline. The marker lists are hand-tuned
// heuristics and deliberately configurable rather than compiled in.
type ChatConfig struct {
	RequestTimeoutSecs  int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	AnswerCacheSize     int      `yaml:"answer_cache_size" mapstructure:"answer_cache_size"`
	LowConfidenceMarks  []string `yaml:"low_confidence_marks" mapstructure:"low_confidence_marks"`
	ExternalMarks       []string `yaml:"external_marks" mapstructure:"external_marks"`
	FallbackAgencyNames []string `yaml:"fallback_agency_names" mapstructure:"fallback_agency_names"`
	FoundingYear        string   `yaml:"founding_year" mapstructure:"founding_year"`
}

// CRMConfig configures the lead forwarding endpoint.
type CRMConfig struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ContactConfig holds contact details baked into fallback texts.
type ContactConfig struct {
	Phone string `yaml:"phone" mapstructure:"phone"`
	Email string `yaml:"email" mapstructure:"email"`
}

// RequestTimeout returns the per-request hard deadline.
func (c ChatConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// ContentTTL returns the full-site content cache TTL.
func (c WebsiteConfig) ContentTTL() time.Duration {
	return time.Duration(c.ContentTTLSecs) * time.Second
}

// SearchTTL returns the on-demand site search cache TTL.
func (c WebsiteConfig) SearchTTL() time.Duration {
	return time.Duration(c.SearchTTLSecs) * time.Second
}

// TTL returns the external search cache TTL.
func (c SearchConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")
	v.SetDefault("claude.max_tokens", 1024)
	v.SetDefault("claude.temperature", 0.4)
	v.SetDefault("index.path", "data/docs.bleve")
	v.SetDefault("index.top_k", 3)
	v.SetDefault("index.passage_cap", 1500)
	v.SetDefault("index.chunk_chars", 1200)
	v.SetDefault("index.chunk_overlap", 150)
	v.SetDefault("website.url", "https://ritzmediaworld.com")
	v.SetDefault("website.max_pages", 5)
	v.SetDefault("website.fetch_timeout_secs", 12)
	v.SetDefault("website.content_ttl_secs", 900)
	v.SetDefault("website.search_ttl_secs", 300)
	v.SetDefault("website.requests_per_sec", 4)
	v.SetDefault("search.primary_base_url", "https://duckduckgo.com/html/")
	v.SetDefault("search.fallback_base_url", "https://www.bing.com/search")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.ttl_secs", 300)
	v.SetDefault("search.timeout_secs", 12)
	v.SetDefault("search.retries", 1)
	v.SetDefault("search.relevance_keywords", []string{
		"agency", "agencies", "advertising", "media", "marketing",
		"digital", "companies", "india", "indian",
	})
	v.SetDefault("chat.request_timeout_secs", 12)
	v.SetDefault("chat.answer_cache_size", 50)
	v.SetDefault("chat.low_confidence_marks", []string{
		"not listed",
		"cannot provide a specific list",
		"i couldn't find",
		"i could not find",
		"i don't have specific",
		"unable to provide",
		"no information available",
	})
	v.SetDefault("chat.external_marks", []string{
		"in india", "in delhi", "in noida", "in mumbai", "in bangalore",
		"list of", "top 10", "top ten", "best agencies", "agencies in",
		"companies in", "other than", "apart from", "competitors",
	})
	v.SetDefault("chat.fallback_agency_names", []string{
		"Madison World", "GroupM", "Dentsu India", "Ogilvy India",
		"McCann Worldgroup India", "Havas Media India", "Lodestar UM",
		"Wavemaker India",
	})
	v.SetDefault("chat.founding_year", "2008")
	v.SetDefault("crm.endpoint", "https://ritzmediaworld.com/api/system-settings/contact-enquiry")
	v.SetDefault("crm.timeout_secs", 30)
	v.SetDefault("contact.phone", "+91-7290002168")
	v.SetDefault("contact.email", "info@ritzmediaworld.com")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
