package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr   string        `env:"WEB_ADDR"      envDefault:":8080"`
	APIURL       string        `env:"QUOTA_API_URL" envDefault:"http://localhost:5000/api"`
	APITimeout   time.Duration `env:"API_TIMEOUT"   envDefault:"15s"`
	SessionDSN   string        `env:"SESSION_DSN"   envDefault:"file:sessions.db"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
	LogLevel     string        `env:"LOG_LEVEL"     envDefault:"info"`
	KafkaBrokers []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string        `env:"KAFKA_TOPIC"   envDefault:"quota_events"`
}

// LoadConfig reads envFile (when it exists) into the process environment
// and parses Config from it.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("Notice: %s file not found: %v. Using system environment variables", envFile, err)
		}
	}
	return Parse()
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("parse config: QUOTA_API_URL is empty")
	}
	return cfg, nil
}
