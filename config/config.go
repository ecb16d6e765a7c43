package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIEndpoint is the production address of the link API.
const DefaultAPIEndpoint = "https://shortin-api.yehezgun.com"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	App      AppConfig      `mapstructure:"app"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port" validate:"required,numeric"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
}

// UpstreamConfig points at the external API that owns all link data.
type UpstreamConfig struct {
	APIEndpoint string        `mapstructure:"api_endpoint" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type AppConfig struct {
	// PublicURL is the origin used to build short URLs. Empty means derive it from the request.
	PublicURL       string        `mapstructure:"public_url" validate:"omitempty,url"`
	ShortCodeLength int           `mapstructure:"short_code_length" validate:"min=1,max=64"`
	// RedirectDelay is how long the redirect page waits before navigating, within 2s..3s.
	RedirectDelay   time.Duration `mapstructure:"redirect_delay" validate:"min=2s,max=3s"`
	CopyResetDelay  time.Duration `mapstructure:"copy_reset_delay" validate:"gt=0"`
}

type CacheConfig struct {
	Type  string        `mapstructure:"type" validate:"oneof=none memory redis"` // none, memory, redis
	TTL   time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Redis RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Path           string `mapstructure:"path" validate:"omitempty,startswith=/"`
	Namespace      string `mapstructure:"namespace"`
	Subsystem      string `mapstructure:"subsystem"`
	CollectRuntime bool   `mapstructure:"collect_runtime"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

var validate = validator.New()

// Load reads configuration from an optional .env file, an optional config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shortin/")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// API_ENDPOINT is the binding name the deployment platform uses.
	if err := v.BindEnv("upstream.api_endpoint", "UPSTREAM_API_ENDPOINT", "API_ENDPOINT"); err != nil {
		return nil, fmt.Errorf("error binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("upstream.api_endpoint", DefaultAPIEndpoint)
	v.SetDefault("upstream.timeout", "10s")

	v.SetDefault("app.public_url", "")
	v.SetDefault("app.short_code_length", 6)
	v.SetDefault("app.redirect_delay", "2s")
	v.SetDefault("app.copy_reset_delay", "2s")

	v.SetDefault("cache.type", "none")
	v.SetDefault("cache.ttl", "1m")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "shortin")
	v.SetDefault("metrics.subsystem", "web")
	v.SetDefault("metrics.collect_runtime", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the struct tags and the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Cache.Type == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("invalid configuration: cache.redis.addr is required when cache.type is redis")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
