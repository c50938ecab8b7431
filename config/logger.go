package config

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Log is a no-op until InitLogger runs, so library code (and tests) can log
// unconditionally.
var Log = zap.NewNop().Sugar()

// InitLogger must be called once at startup, before InitDB.
func InitLogger() {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(envOr("APP_ENV", "dev"))) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	Log = zapLogger.Sugar()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
