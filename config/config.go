package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SequencerPostgres = "postgres"
	SequencerRedis    = "redis"
	SequencerMemory   = "memory"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	DB       DBConfig
	HTTP     HTTPConfig
	Session  SessionConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Telegram TelegramConfig
	Email    EmailConfig
	Shop     ShopConfig
	Store    string
	LogLevel string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type HTTPConfig struct {
	Addr       string
	Production bool
	// RateLimit is the per-client request rate for public write endpoints.
	RateLimit float64
	RateBurst int
}

type SessionConfig struct {
	Secret string
}

type RedisConfig struct {
	Addr string // empty disables redis
}

type RabbitMQConfig struct {
	URL      string // empty disables event publishing
	Exchange string
}

type TelegramConfig struct {
	Token       string
	AdminChatID int64
}

type EmailConfig struct {
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SenderEmail        string // empty disables customer emails
}

type ShopConfig struct {
	Name           string         // used when the stored settings carry no shop name
	Location       *time.Location // calendar used for order-number days
	Sequencer      string
	TotalTolerance float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	adminChatID, _ := strconv.ParseInt(getEnv("TELEGRAM_ADMIN_CHAT_ID", "0"), 10, 64)
	tolerance, err := strconv.ParseFloat(getEnv("TOTAL_TOLERANCE", "0.01"), 64)
	if err != nil {
		return nil, fmt.Errorf("TOTAL_TOLERANCE: %w", err)
	}
	rateLimit, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "2"), 64)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	rateBurst, _ := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	loc, err := time.LoadLocation(getEnv("SHOP_TIMEZONE", "Africa/Mbabane"))
	if err != nil {
		return nil, fmt.Errorf("SHOP_TIMEZONE: %w", err)
	}

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "storefront"),
		},
		HTTP: HTTPConfig{
			Addr:       getEnv("HTTP_ADDR", ":8080"),
			Production: strings.EqualFold(getEnv("APP_ENV", "development"), "production"),
			RateLimit:  rateLimit,
			RateBurst:  rateBurst,
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "orders_topic"),
		},
		Telegram: TelegramConfig{
			Token:       getEnv("TELEGRAM_TOKEN", ""),
			AdminChatID: adminChatID,
		},
		Email: EmailConfig{
			AWSRegion:          getEnv("AWS_REGION", "eu-west-1"),
			AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			SenderEmail:        getEnv("SENDER_EMAIL", ""),
		},
		Shop: ShopConfig{
			Name:           getEnv("SHOP_NAME", ""),
			Location:       loc,
			Sequencer:      strings.ToLower(getEnv("SEQUENCER", SequencerPostgres)),
			TotalTolerance: tolerance,
		},
		Store:    strings.ToLower(getEnv("STORE", StorePostgres)),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Validate reports settings that would make the server unsafe or unusable.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
	case StoreMemory:
		if c.Shop.Sequencer == SequencerPostgres {
			c.Shop.Sequencer = SequencerMemory
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	switch c.Shop.Sequencer {
	case SequencerPostgres, SequencerMemory:
	case SequencerRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("SEQUENCER=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown SEQUENCER %q", c.Shop.Sequencer)
	}
	if c.Session.Secret == "" {
		if c.HTTP.Production {
			return fmt.Errorf("SESSION_SECRET must be set in production")
		}
		c.Session.Secret = "dev-session-secret-change-me"
	}
	if c.Shop.TotalTolerance < 0 {
		return fmt.Errorf("TOTAL_TOLERANCE must be >= 0")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
