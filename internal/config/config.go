package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "P2P"

// Config holds every runtime setting. Keys mirror configs/config.yml.
type Config struct {
	Port          string
	DBPath        string
	LogLevel      string
	SigningKey    string
	TokenTTL      time.Duration
	AuditInterval time.Duration
	// AllowFunding exposes POST /api/v1/account/fund. Development only.
	AllowFunding bool
}

// Load reads <dir>/config.yml when present, then lets P2P_* env vars override it
// (e.g. P2P_DB_PATH). A .env file in the working directory is loaded first.
func Load(dir string) (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("audit.interval", time.Minute)
	v.SetDefault("accounts.allow_funding", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Port:          v.GetString("port"),
		DBPath:        v.GetString("db.path"),
		LogLevel:      v.GetString("log.level"),
		SigningKey:    v.GetString("auth.signing_key"),
		TokenTTL:      v.GetDuration("auth.token_ttl"),
		AuditInterval: v.GetDuration("audit.interval"),
		AllowFunding:  v.GetBool("accounts.allow_funding"),
	}
	if cfg.SigningKey == "" {
		return Config{}, errors.New("auth.signing_key is required")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("auth.token_ttl must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}
