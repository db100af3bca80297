package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	SiteURL    string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	// OAuth provider the sign-in flow delegates to.
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthUserInfoURL  string
	OAuthRedirectURL  string
}

func LoadConfig() *Config {
	godotenv.Load()
	cfg := &Config{
		ServerAddr:        getEnv("PORT", ":8080"),
		SiteURL:           getEnv("SITE_URL", "http://localhost:3000"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        os.Getenv("DB_PASS"),
		DBName:            getEnv("DB_NAME", "smartmark"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASS"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		OAuthClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
		OAuthAuthURL:      getEnv("OAUTH_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
		OAuthTokenURL:     getEnv("OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		OAuthUserInfoURL:  getEnv("OAUTH_USERINFO_URL", "https://openidconnect.googleapis.com/v1/userinfo"),
		OAuthRedirectURL:  os.Getenv("OAUTH_REDIRECT_URL"),
	}
	if cfg.OAuthRedirectURL == "" {
		cfg.OAuthRedirectURL = cfg.SiteURL + "/auth/callback"
	}
	return cfg
}

// DSN assembles the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
