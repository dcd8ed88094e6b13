package config

import (
	"log"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/data"
)

type Config struct {
	Port           string
	MySQLDSN       string
	RedisURL       string
	JWTSecret      []byte
	AllowedOrigins []string
}

// Load reads configuration from the settings table with env fallbacks.
// REDIS_URL may be empty; the API then runs without the fan-out stream.
func Load(db *gorm.DB) Config {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	secret := data.GetSetting("jwt_secret")
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		log.Fatalf("JWT_SECRET is not set")
	}

	origins := data.GetSetting("allowed_origins")
	if origins == "" {
		origins = getenv("ALLOWED_ORIGINS", "http://localhost:3000")
	}

	return Config{
		Port:           getenv("PORT", "8080"),
		MySQLDSN:       getenv("MYSQL_DSN", "agora:agora@tcp(127.0.0.1:3306)/agora"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      []byte(secret),
		AllowedOrigins: strings.Split(origins, ","),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
