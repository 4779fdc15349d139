package util

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime settings, loaded from the environment with flag
// overrides applied in main.
type Config struct {
	DSN           string `envconfig:"DATABASE_URL"`
	APIBaseURL    string `envconfig:"STORYLOOM_API_URL" default:"http://localhost:8080/api"`
	APIToken      string `envconfig:"STORYLOOM_API_TOKEN"`
	CacheBackend  string `envconfig:"CACHE_BACKEND" default:"postgres"` // postgres|redis
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile       string `envconfig:"LOG_FILE"`
	QuestionCount int    `envconfig:"QUESTION_COUNT" default:"5"`

	// SeedText keys the deterministic question draws for a session. Set per
	// run; random when empty.
	SeedText string
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
