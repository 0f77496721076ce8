package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	// BaseURL is the remote weather service root.
	BaseURL string `validate:"required,url"`

	// HTTPTimeout bounds every single request against the remote.
	HTTPTimeout time.Duration

	// WatchStations are the station ids the scheduler polls.
	WatchStations []string

	// FetchInterval controls how often watched stations are polled.
	FetchInterval time.Duration

	// In-memory store retention.
	StoreMaxHistory int           `validate:"gte=0"` // max number of reports per station (0 = unlimited)
	StoreMaxAge     time.Duration // max age of reports (0 = unlimited)

	// CredentialsDB is the sqlite file holding the remembered sign-in.
	CredentialsDB string `validate:"required"`

	// MQTT fan-out; an empty broker disables it.
	MQTTBroker      string
	MQTTPort        int `validate:"gt=0,lte=65535"`
	MQTTClientID    string
	MQTTTopicPrefix string `validate:"required"`

	// GeocoderAPIKey enables city-name lookups for the nearest search.
	GeocoderAPIKey string

	Port     string     `validate:"required"`
	AppEnv   string     `validate:"required,oneof=dev prod"`
	LogLevel slog.Level `validate:"-"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.BaseURL = getenvDefault("WEATHERCLOUD_BASE_URL", "https://app.weathercloud.net")

	timeout, err := getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.WatchStations = splitList(os.Getenv("WATCH_STATIONS"))

	cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 16h at 10-minute intervals
	cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}

	cfg.CredentialsDB = getenvDefault("CREDENTIALS_DB", "weathercloud-hub.db")

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTPort = getenvInt("MQTT_PORT", 1883)
	cfg.MQTTClientID = os.Getenv("MQTT_CLIENT_ID")
	cfg.MQTTTopicPrefix = getenvDefault("MQTT_TOPIC_PREFIX", "weathercloud")

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	cfg.LogLevel = parseLogLevel(getenvDefault("LOG_LEVEL", "info"))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
