package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultSendTimeout         = 30 * time.Second
	defaultBatchTimeout        = 4 * time.Minute
	defaultPromotionSampleSize = 3
)

type Config struct {
	HTTPHost string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	GRPCHost string `env:"GRPC_HOST" envDefault:"0.0.0.0"`
	GRPCPort string `env:"GRPC_PORT" envDefault:"9090"`

	MySQLDSN     string        `env:"MYSQL_DSN"      envDefault:"root:root@tcp(localhost:3306)/storefront?parseTime=true"`
	MySQLMaxOpen int           `env:"MYSQL_MAX_OPEN" envDefault:"10"`
	MySQLMaxIdle int           `env:"MYSQL_MAX_IDLE" envDefault:"5"`
	MySQLMaxLife time.Duration `env:"MYSQL_MAX_LIFE" envDefault:"30m"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`

	EmailProvider  string `env:"EMAIL_PROVIDER"   envDefault:"ses"`
	AWSRegion      string `env:"AWS_REGION"       envDefault:"eu-central-1"`
	SESSourceEmail string `env:"SES_SOURCE_EMAIL"`
	SenderName     string `env:"SENDER_NAME"      envDefault:"Storefront"`
	StorefrontURL  string `env:"STOREFRONT_URL"   envDefault:"http://localhost:3000"`

	LockBackend string `env:"LOCK_BACKEND" envDefault:"redis"`

	Schedules Schedules

	SendTimeout         time.Duration `env:"SEND_TIMEOUT"          envDefault:"30s"`
	BatchTimeout        time.Duration `env:"BATCH_TIMEOUT"         envDefault:"4m"`
	DispatchWorkers     int           `env:"DISPATCH_WORKERS"      envDefault:"1"`
	PromotionSampleSize int           `env:"PROMOTION_SAMPLE_SIZE" envDefault:"3"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Schedules maps each job type to its recurrence expression.
type Schedules struct {
	Welcome        string `env:"SCHEDULE_WELCOME"         envDefault:"@every 5m"`
	PendingOrder   string `env:"SCHEDULE_PENDING_ORDER"   envDefault:"@every 5m"`
	DeliveredOrder string `env:"SCHEDULE_DELIVERED_ORDER" envDefault:"@every 5m"`
	Promotion      string `env:"SCHEDULE_PROMOTION"       envDefault:"0 9 1 * *"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Sanitize()

	return &cfg, nil
}

// Sanitize replaces out-of-range values with defaults.
func (c *Config) Sanitize() {
	if c.SendTimeout <= 0 {
		c.SendTimeout = defaultSendTimeout
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = defaultBatchTimeout
	}
	if c.DispatchWorkers < 1 {
		c.DispatchWorkers = 1
	}
	if c.PromotionSampleSize < 1 {
		c.PromotionSampleSize = defaultPromotionSampleSize
	}
	if c.MySQLMaxOpen < 1 {
		c.MySQLMaxOpen = 1
	}
	if c.MySQLMaxIdle < 0 {
		c.MySQLMaxIdle = 0
	}
}
