package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Analysis  AnalysisConfig
	LLM       LLMConfig
	Breaker   BreakerConfig
	Redis     RedisConfig
	Runs      RunsConfig
	Query     QueryConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type AnalysisConfig struct {
	// Provider selects the remote verdict source: "http" or "openai".
	Provider    string
	Endpoint    string
	TimeoutSec  int
	MaxAttempts int
	BaseDelayMs int
	Concurrency int
}

type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	TimeoutSec       int
}

type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Password   string
	DB         int
	TTLMinutes int
}

type RunsConfig struct {
	MaxRuns    int
	TTLMinutes int
}

type QueryConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

func (c AnalysisConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

func (c AnalysisConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c RunsConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Load reads config.yaml from the standard search paths, applying
// COMMENT_INSIGHT_* environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	return load(func(v *viper.Viper) {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/comment-insight")
	})
}

// LoadFile reads the configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	return load(func(v *viper.Viper) {
		v.SetConfigFile(path)
	})
}

func load(locate func(v *viper.Viper)) (*Config, error) {
	v := viper.New()
	locate(v)

	v.SetEnvPrefix("COMMENT_INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Analysis.Provider {
	case ProviderHTTP:
		if c.Analysis.Endpoint == "" {
			return fmt.Errorf("analysis.endpoint is required for provider %q", ProviderHTTP)
		}
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.apiKey is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("unknown analysis provider %q", c.Analysis.Provider)
	}
	if c.Analysis.MaxAttempts < 1 {
		return fmt.Errorf("analysis.maxAttempts must be at least 1")
	}
	if c.Query.DefaultPageSize < 1 || c.Query.MaxPageSize < c.Query.DefaultPageSize {
		return fmt.Errorf("query page sizes are inconsistent: default %d, max %d",
			c.Query.DefaultPageSize, c.Query.MaxPageSize)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 25*1024*1024)

	v.SetDefault("analysis.provider", ProviderHTTP)
	v.SetDefault("analysis.endpoint", "http://127.0.0.1:5000/analyze")
	v.SetDefault("analysis.timeoutSec", 60)
	v.SetDefault("analysis.maxAttempts", 3)
	v.SetDefault("analysis.baseDelayMs", 1000)
	v.SetDefault("analysis.concurrency", 8)

	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.baseURL", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.maxTokens", 512)

	v.SetDefault("breaker.enabled", false)
	v.SetDefault("breaker.failureThreshold", 5)
	v.SetDefault("breaker.timeoutSec", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlMinutes", 1440)

	v.SetDefault("runs.maxRuns", 32)
	v.SetDefault("runs.ttlMinutes", 120)

	v.SetDefault("query.defaultPageSize", 10)
	v.SetDefault("query.maxPageSize", 100)

	v.SetDefault("ratelimit.requestsPerMinute", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
