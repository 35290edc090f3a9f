package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string `env:"PORT,            default=8080"`
	Env            string `env:"ENV,             default=development"`
	JWTSecret      string `env:"JWT_SECRET"`
	LogLevel       string `env:"LOG_LEVEL,       default=info"`
	AnonymousActor string `env:"ANONYMOUS_ACTOR, default=anonymous"`

	Store    StoreConfig
	Mongo    MongoConfig
	SQL      SQLConfig
	Redis    RedisConfig
	Mail     MailConfig
	Accounts AccountsConfig
}

type StoreConfig struct {
	// Driver is one of mongo, sqlite or postgres.
	Driver string `env:"STORE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=securedoc"`
}

type SQLConfig struct {
	DSN string `env:"SQL_DSN, default=file:securedoc.db?cache=shared"`
}

type RedisConfig struct {
	// Addr may be empty to run without notification deduplication.
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MailConfig struct {
	// Driver is smtp, or log to print messages instead of sending them.
	Driver   string        `env:"MAIL_DRIVER,   default=log"`
	Host     string        `env:"SMTP_HOST,     default=localhost"`
	Port     int           `env:"SMTP_PORT,     default=587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"MAIL_FROM,     default=no-reply@securedoc.local"`
	Timeout  time.Duration `env:"MAIL_TIMEOUT,  default=10s"`
}

type AccountsConfig struct {
	// AppHost prefixes the links sent by email.
	AppHost         string        `env:"APP_HOST,         default=http://localhost:8080"`
	ConfirmationTTL time.Duration `env:"CONFIRMATION_TTL, default=24h"`
	Workers         int           `env:"DISPATCH_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through l and validates the result.
func LoadWith(l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "mongo", "sqlite", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER %q must be mongo, sqlite or postgres", c.Store.Driver)
	}
	switch c.Mail.Driver {
	case "smtp", "log":
	default:
		return fmt.Errorf("MAIL_DRIVER %q must be smtp or log", c.Mail.Driver)
	}
	if c.AnonymousActor == "" {
		return fmt.Errorf("ANONYMOUS_ACTOR must not be empty")
	}
	if c.Accounts.ConfirmationTTL < 0 {
		return fmt.Errorf("CONFIRMATION_TTL must not be negative")
	}
	return nil
}

// IsDevelopment enables pretty logs and verbose errors.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
