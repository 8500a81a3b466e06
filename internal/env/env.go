package env

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"go.uber.org/zap"
)

// Env holds process configuration resolved from the environment.
type Env struct {
	ServerPort int
	DebugMode  bool
}

// Value is populated by LoadEnv and read-only afterwards.
var Value Env

// LoadEnv reads .env (if present) and resolves all configuration values.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	Value = Env{
		ServerPort: intFromEnv("SERVER_PORT", 8080),
		DebugMode:  boolFromEnv("DEBUG_MODE", false),
	}
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("Invalid integer in environment, using fallback",
			zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return v
}

func boolFromEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
