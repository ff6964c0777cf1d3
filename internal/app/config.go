package app

import (
	"strings"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/utils"
)

type Config struct {
	Port         string
	JWTSecretKey string
	LogMode      string
	AllowOrigins []string
	Environment  string
	Version      string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	logMode := utils.GetEnv("LOG_MODE", "development", log)
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)
	environment := utils.GetEnv("ENVIRONMENT", "development", log)
	version := utils.GetEnv("SERVICE_VERSION", "dev", log)
	return Config{
		Port:         port,
		JWTSecretKey: jwtSecretKey,
		LogMode:      logMode,
		AllowOrigins: splitOrigins(origins),
		Environment:  environment,
		Version:      version,
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
