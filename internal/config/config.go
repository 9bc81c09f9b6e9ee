package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	CORSAllowedOrigins     string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	JWTTTL                 time.Duration
	ProgressCacheTTL       time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int
	NATSURL                string
	NATSSubject            string
	LoginRateLimit         int
	OTelServiceName        string
	OTelEndpoint           string
	OTelInsecure           bool
	OTelSampleRatio        float64
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UploadsEnabled reports whether document storage credentials are configured.
func (c Config) UploadsEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("HORAS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Horas Complementares API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "sqlite://horas.db")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("progress.cache_ttl", "10m")
	v.SetDefault("cloudinary.folder", "horas/documents")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("nats.subject", "horas.progress")
	v.SetDefault("login.rate_limit", 5)
	v.SetDefault("otel.service_name", "horas-api")
	v.SetDefault("otel.sample_ratio", 1.0)

	jwtTTL, err := parseDuration(v.GetString("jwt.ttl"), 12*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	cacheTTL, err := parseDuration(v.GetString("progress.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSAllowedOrigins:     v.GetString("cors.allowed_origins"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTTL:                 jwtTTL,
		ProgressCacheTTL:       cacheTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		LoginRateLimit:         v.GetInt("login.rate_limit"),
		OTelServiceName:        v.GetString("otel.service_name"),
		OTelEndpoint:           v.GetString("otel.endpoint"),
		OTelInsecure:           v.GetBool("otel.insecure"),
		OTelSampleRatio:        v.GetFloat64("otel.sample_ratio"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 5
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
