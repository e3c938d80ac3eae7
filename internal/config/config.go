package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/keelworks/account-service/pkg/config"
)

const defaultSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the account service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"accounts"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"accounts_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"accounts_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (rate limiting)
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"1h"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Credentials
	BcryptCost          int           `env:"BCRYPT_COST" envDefault:"10"`
	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"24h"`

	// S3 / MinIO avatar storage
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET" envDefault:"avatars"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID" envDefault:""`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" envDefault:""`
	S3BaseEndpoint    string `env:"S3_BASE_ENDPOINT" envDefault:""`
	S3PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL" envDefault:"http://localhost:9000/avatars"`

	// Mailtrap email delivery
	MailtrapAPIURL    string `env:"MAILTRAP_API_URL" envDefault:"https://send.api.mailtrap.io/api/send"`
	MailtrapAPIToken  string `env:"MAILTRAP_API_TOKEN" envDefault:""`
	MailtrapFromEmail string `env:"MAILTRAP_FROM_EMAIL" envDefault:"no-reply@example.com"`
	MailtrapFromName  string `env:"MAILTRAP_FROM_NAME" envDefault:"Account Service"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load account config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// In non-development environments, require explicitly set, strong secrets.
	if cfg.Environment != "development" {
		for name, secret := range map[string]string{
			"JWT_ACCESS_SECRET":  cfg.JWTAccessSecret,
			"JWT_REFRESH_SECRET": cfg.JWTRefreshSecret,
		} {
			if secret == defaultSecret {
				return nil, fmt.Errorf("%s must be explicitly set via environment variable in %q mode", name, cfg.Environment)
			}
			if len(secret) < 32 {
				return nil, fmt.Errorf("%s must be at least 32 characters long, got %d", name, len(secret))
			}
		}
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
