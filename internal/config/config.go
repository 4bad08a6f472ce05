package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken     string `envconfig:"BOT_TOKEN" required:"true"`
	WeatherToken string `envconfig:"OPENWEATHER_TOKEN" required:"true"`

	DBPath    string `envconfig:"DB_PATH" default:"./data/subscriptions.db"`
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"Europe/Madrid"` // trigger schedule and timestamp rendering
	Lang      string `envconfig:"FORECAST_LANG" default:"en"`         // OpenWeatherMap description language

	// ForecastEntries caps how many 3-hour slots a message shows.
	ForecastEntries int `envconfig:"FORECAST_ENTRIES" default:"6"`
	// RetryDelay separates a failed fetch from its single retry.
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"5m"`

	HTTPAddr    string        `envconfig:"HTTP_ADDR" default:":8080"` // healthz
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
}

// Load reads an optional .env file and then the environment into Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.DefaultTZ)
}
