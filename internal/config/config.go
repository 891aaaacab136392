package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/utils"
)

const configPathEnv = "ARTOGRAPH_CONFIG_YAML"

// Config is the server-level configuration. Values come from an optional
// YAML file (path in ARTOGRAPH_CONFIG_YAML, default config.yaml when
// present) with environment variables taking precedence. Provider
// credentials are NOT part of this file; they stay env-only and are
// resolved into the explicit provider configs at wiring time.
type Config struct {
	Port            string   `yaml:"port"`
	LogMode         string   `yaml:"log_mode"`
	AllowOrigins    []string `yaml:"allow_origins"`
	JWTSecretKey    string   `yaml:"-"`
	AccessTokenTTL  int      `yaml:"access_token_ttl_seconds"`
	AIModel         string   `yaml:"ai_model"`
	EmailFromAddr   string   `yaml:"email_from_address"`
	EmailFromName   string   `yaml:"email_from_name"`
}

func defaults() Config {
	return Config{
		Port:           "8080",
		LogMode:        "development",
		AllowOrigins:   []string{"http://localhost:3000", "http://localhost:5174"},
		AccessTokenTTL: 3600,
		AIModel:        "gpt-4o-mini",
		EmailFromAddr:  "noreply@therapyassignments.com",
		EmailFromName:  "Artograph",
	}
}

func Load(log *logger.Logger) (Config, error) {
	cfg := defaults()

	path := strings.TrimSpace(os.Getenv(configPathEnv))
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	// Env overrides win over file values.
	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	cfg.LogMode = utils.GetEnv("LOG_MODE", cfg.LogMode, log)
	cfg.JWTSecretKey = utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	cfg.AccessTokenTTL = utils.GetEnvAsInt("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL, log)
	cfg.AIModel = utils.GetEnv("OPENAI_MODEL", cfg.AIModel, log)
	cfg.EmailFromAddr = utils.GetEnv("SENDGRID_FROM_EMAIL", cfg.EmailFromAddr, log)
	cfg.EmailFromName = utils.GetEnv("SENDGRID_FROM_NAME", cfg.EmailFromName, log)
	if origins := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS")); origins != "" {
		parts := strings.Split(origins, ",")
		cfg.AllowOrigins = cfg.AllowOrigins[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, p)
			}
		}
	}
	return cfg, nil
}
