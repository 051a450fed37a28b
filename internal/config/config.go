package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the gateway service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	RedisURL            string
	JWTSecret           string
	SessionTTL          time.Duration
	GradingAPIBaseURL   string
	GradingAPITimeout   time.Duration
	IdentityBaseURL     string
	IdentityAPIKey      string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	DraftTTL            time.Duration
	EvaluationMarkerTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EDUASSIGN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EduAssign Gateway")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("grading.timeout", "30s")
	v.SetDefault("draft.ttl", "24h")
	v.SetDefault("evaluation.marker_ttl", "30m")

	sessionTTL, err := parseDuration(v, "session.ttl")
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	gradingTimeout, err := parseDuration(v, "grading.timeout")
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading timeout: %w", err)
	}

	draftTTL, err := parseDuration(v, "draft.ttl")
	if err != nil {
		return Config{}, fmt.Errorf("invalid draft ttl: %w", err)
	}

	markerTTL, err := parseDuration(v, "evaluation.marker_ttl")
	if err != nil {
		return Config{}, fmt.Errorf("invalid evaluation marker ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		RedisURL:            v.GetString("redis.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		SessionTTL:          sessionTTL,
		GradingAPIBaseURL:   v.GetString("grading.base_url"),
		GradingAPITimeout:   gradingTimeout,
		IdentityBaseURL:     v.GetString("identity.base_url"),
		IdentityAPIKey:      v.GetString("identity.api_key"),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		DraftTTL:            draftTTL,
		EvaluationMarkerTTL: markerTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.GradingAPIBaseURL == "" {
		return Config{}, fmt.Errorf("grading backend base url must be provided")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	return time.ParseDuration(raw)
}
