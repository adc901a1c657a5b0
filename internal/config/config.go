// Package config assembles runtime configuration from the environment,
// with an optional .env file for development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Delivery selects how magic links reach the user.
type Delivery string

const (
	// DeliveryEmail sends the link through Postmark.
	DeliveryEmail Delivery = "email"
	// DeliveryInline returns the token in the API response. Development
	// only: anyone who can call the endpoint can sign in as anyone.
	DeliveryInline Delivery = "inline"
)

type Postmark struct {
	ServerToken string
	FromEmail   string
}

type VAPID struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

type Backup struct {
	S3Endpoint    string
	S3Bucket      string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	Passphrase    string
	ScheduleHour  int
	RetentionDays int
}

type Config struct {
	Port         string
	DBPath       string
	BaseURL      string
	LogLevel     string
	AuthDelivery Delivery
	Postmark     Postmark
	VAPID        VAPID
	Backup       Backup
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() Config {
	godotenv.Load()

	cfg := Config{
		Port:     getenv("KEEPSAKE_PORT", "8080"),
		DBPath:   getenv("KEEPSAKE_DB_PATH", "keepsake.db"),
		BaseURL:  getenv("KEEPSAKE_BASE_URL", "http://localhost:8080"),
		LogLevel: getenv("KEEPSAKE_LOG_LEVEL", "info"),
		Postmark: Postmark{
			ServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
			FromEmail:   os.Getenv("POSTMARK_FROM_EMAIL"),
		},
		VAPID: VAPID{
			PublicKey:  os.Getenv("KEEPSAKE_VAPID_PUBLIC_KEY"),
			PrivateKey: os.Getenv("KEEPSAKE_VAPID_PRIVATE_KEY"),
			Subscriber: getenv("KEEPSAKE_VAPID_SUBSCRIBER", "mailto:noreply@keepsake.app"),
		},
		Backup: Backup{
			S3Endpoint:    os.Getenv("KEEPSAKE_BACKUP_S3_ENDPOINT"),
			S3Bucket:      os.Getenv("KEEPSAKE_BACKUP_S3_BUCKET"),
			S3Region:      getenv("KEEPSAKE_BACKUP_S3_REGION", "auto"),
			S3AccessKey:   os.Getenv("KEEPSAKE_BACKUP_S3_ACCESS_KEY"),
			S3SecretKey:   os.Getenv("KEEPSAKE_BACKUP_S3_SECRET_KEY"),
			Passphrase:    os.Getenv("KEEPSAKE_BACKUP_PASSPHRASE"),
			ScheduleHour:  getenvInt("KEEPSAKE_BACKUP_HOUR", 3),
			RetentionDays: getenvInt("KEEPSAKE_BACKUP_RETENTION_DAYS", 30),
		},
	}

	if Delivery(os.Getenv("AUTH_DELIVERY")) == DeliveryInline {
		cfg.AuthDelivery = DeliveryInline
	} else {
		cfg.AuthDelivery = DeliveryEmail
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
