package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/intake-backend/internal/handlers"
	"github.com/brightpath-labs/intake-backend/internal/middleware"
)

type RouterConfig struct {
	IntakeHandler *handlers.IntakeHandler
	RequestLogger *middleware.RequestLogger
	AllowOrigins  []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.RequestLogger != nil {
		router.Use(cfg.RequestLogger.Handler())
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/start", cfg.IntakeHandler.StartChat)
		api.POST("/message", cfg.IntakeHandler.SendMessage)
		api.POST("/upload-document", cfg.IntakeHandler.UploadDocument)
	}

	return router
}
