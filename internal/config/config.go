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
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	JWTSecret           string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CertificateFolder   string
	SendGridAPIKey      string
	MailFromName        string
	MailFromEmail       string
	TriggerDedupeTTL    time.Duration
	SchedulerBatchSize  int
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
	v.SetEnvPrefix("LUMORA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Lumora Academy API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("certificate.folder", "lumora/certificates")
	v.SetDefault("mail.from_name", "Lumora Academy")
	v.SetDefault("trigger.dedupe_ttl", "2m")
	v.SetDefault("scheduler.batch_size", 50)

	ttlString := v.GetString("trigger.dedupe_ttl")
	if ttlString == "" {
		ttlString = "2m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid trigger dedupe ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		CertificateFolder:   v.GetString("certificate.folder"),
		SendGridAPIKey:      v.GetString("sendgrid.api_key"),
		MailFromName:        v.GetString("mail.from_name"),
		MailFromEmail:       v.GetString("mail.from_email"),
		TriggerDedupeTTL:    ttl,
		SchedulerBatchSize:  v.GetInt("scheduler.batch_size"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.SchedulerBatchSize <= 0 {
		cfg.SchedulerBatchSize = 50
	}

	return cfg, nil
}
