package app

import (
	"strings"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/utils"
)

type Config struct {
	ServiceName    string
	Environment    string
	JWTSecretKey   string
	TokenTTL       time.Duration
	AllowedOrigins []string
	SessionMode    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
}

func LoadConfig(log *logger.Logger) Config {
	tokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)
	origins := []string{}
	for _, origin := range strings.Split(utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000", log), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return Config{
		ServiceName:    utils.GetEnv("SERVICE_NAME", "coursecraft-backend", log),
		Environment:    utils.GetEnv("ENVIRONMENT", "development", log),
		JWTSecretKey:   utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		TokenTTL:       time.Duration(tokenTTLSeconds) * time.Second,
		AllowedOrigins: origins,
		SessionMode:    utils.GetEnv("SESSION_STORE_MODE", "memory", log),
		RedisAddr:      utils.GetEnv("REDIS_ADDR", "localhost:6379", log),
		RedisPassword:  utils.GetEnv("REDIS_PASSWORD", "", log),
		RedisDB:        utils.GetEnvAsInt("REDIS_DB", 0, log),
	}
}
