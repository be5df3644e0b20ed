package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brandonolsen/cleo-consolidator/app/config"
	"github.com/brandonolsen/cleo-consolidator/app/controllers"
	"github.com/brandonolsen/cleo-consolidator/app/services"
	"github.com/brandonolsen/cleo-consolidator/internal/pipeline"
	"github.com/brandonolsen/cleo-consolidator/routes"
)

// main is the production entrypoint: same wiring as the root main.go, plus
// graceful shutdown on SIGINT/SIGTERM that flushes every store.
func main() {
	if err := config.Load(getEnv("CLEO_CONFIG", "config/cleo.yaml")); err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Cleo Consolidator API")

	cache := services.NewCacheService(1 * time.Hour)

	p, err := pipeline.New(&config.C, logger, cache)
	if err != nil {
		logger.Fatal("Failed to construct pipeline", zap.Error(err))
	}

	pipelineController := controllers.NewPipelineController(p, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	routes.SetupAllRoutes(router, pipelineController)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", config.C.Server.Addr))
		if err := router.Run(config.C.Server.Addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down, flushing stores...")
	if err := p.Save(); err != nil {
		logger.Error("Failed to flush stores on shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
