package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Email     EmailConfig     `mapstructure:"email"`
	Business  BusinessConfig  `mapstructure:"business"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	StaticDir      string   `mapstructure:"static_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TrustedProxies []string `mapstructure:"trusted_proxies"` // empty: client ip is the socket peer
	WorkerID       int64    `mapstructure:"worker_id"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres or sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	Path         string `mapstructure:"path"` // sqlite only
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	BalanceChanged string `mapstructure:"balance_changed"`
}

type IdentityConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	ClientEmail     string `mapstructure:"client_email"`
	PrivateKey      string `mapstructure:"private_key"`
	CredentialsFile string `mapstructure:"credentials_file"`
	APIKey          string `mapstructure:"api_key"`
	SignInURL       string `mapstructure:"sign_in_url"`
}

type PaymentConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
	ProductName   string `mapstructure:"product_name"`
	FrontendURL   string `mapstructure:"frontend_url"`
}

type EmailConfig struct {
	APIKey  string `mapstructure:"api_key"`
	From    string `mapstructure:"from"`
	BaseURL string `mapstructure:"base_url"`
}

type BusinessConfig struct {
	MaxRetryCount     int `mapstructure:"max_retry_count"`
	MinCheckoutAmount int `mapstructure:"min_checkout_amount"`
	OutboxBatchSize   int `mapstructure:"outbox_batch_size"`
}

type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.worker_id", 1)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("kafka.topic.balance_changed", "funds.balance_changed")
	v.SetDefault("identity.sign_in_url", "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword")
	v.SetDefault("payment.currency", "usd")
	v.SetDefault("payment.product_name", "Cloud Gaming Credits")
	v.SetDefault("business.max_retry_count", 3)
	v.SetDefault("business.min_checkout_amount", 5)
	v.SetDefault("business.outbox_batch_size", 100)
	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.window_minutes", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads configPath (optional when empty) and overlays FUNDS_*
// environment variables, e.g. FUNDS_PAYMENT_SECRET_KEY.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("funds")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"identity.project_id", "identity.client_email", "identity.private_key",
		"identity.credentials_file", "identity.api_key",
		"payment.secret_key", "payment.webhook_secret", "payment.frontend_url",
		"email.api_key", "email.from",
		"database.host", "database.user", "database.password", "database.database", "database.path",
		"redis.host", "redis.password",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Keys pasted into env vars usually carry literal \n sequences.
	cfg.Identity.PrivateKey = strings.ReplaceAll(cfg.Identity.PrivateKey, `\n`, "\n")
	return cfg, nil
}

// Validate reports the secrets the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Payment.SecretKey == "" || c.Payment.WebhookSecret == "" {
		errs = append(errs, errors.New("missing payment secret_key or webhook_secret"))
	}
	if c.Email.APIKey == "" || c.Email.From == "" {
		errs = append(errs, errors.New("missing email api_key or from"))
	}
	if c.Identity.CredentialsFile == "" && (c.Identity.ProjectID == "" || c.Identity.ClientEmail == "" || c.Identity.PrivateKey == "") {
		errs = append(errs, errors.New("missing identity credentials"))
	}
	if c.Redis.Host == "" {
		errs = append(errs, errors.New("missing redis host"))
	}
	return errors.Join(errs...)
}
