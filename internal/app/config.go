package app

import (
	"strings"

	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/utils"
)

type Config struct {
	Port         string
	AllowOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)

	var allowOrigins []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowOrigins = append(allowOrigins, o)
		}
	}

	return Config{
		Port:         port,
		AllowOrigins: allowOrigins,
	}
}
