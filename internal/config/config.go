package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"emojimaker/api/internal/apperr"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type ReplicateConfig struct {
	BaseURL      string
	Token        string
	ModelVersion string
	PollInterval time.Duration
	MaxAttempts  int
}

type AuthConfig struct {
	// Shared secret for verifying tokens minted by the external identity
	// provider. The provider owns signup and sessions; we only read the
	// subject claim.
	JWTSecret string
	Issuer    string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Replicate        ReplicateConfig
	Auth             AuthConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("EMOJIMAKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports missing required credentials up front so the process
// refuses to start half-configured instead of failing on the first request.
func (c *AppConfig) Validate() error {
	const op = "config.Validate"

	if c.Replicate.Token == "" {
		return apperr.New(apperr.KindConfiguration, op, "replicate token is not set")
	}
	if c.Postgres.DSN == "" {
		return apperr.New(apperr.KindConfiguration, op, "postgres dsn is not set")
	}
	if c.Storage.Endpoint == "" || c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return apperr.New(apperr.KindConfiguration, op, "object storage credentials are not set")
	}
	if c.Auth.JWTSecret == "" {
		return apperr.New(apperr.KindConfiguration, op, "auth jwt secret is not set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "120s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucket", "emojis")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	// Secrets default to empty so env overrides are visible to Unmarshal;
	// Validate rejects them when still unset.
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("replicate.token", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("replicate.baseurl", "https://api.replicate.com")
	v.SetDefault("replicate.modelversion", "dee76b5afde21b0f01ed7925f0665b7e879c50ee718c5f78a9d38e04d523cc5e")
	v.SetDefault("replicate.pollinterval", "2s")
	v.SetDefault("replicate.maxattempts", 30)
}
