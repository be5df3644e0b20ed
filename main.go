package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/brandonolsen/cleo-consolidator/app/config"
	"github.com/brandonolsen/cleo-consolidator/app/controllers"
	"github.com/brandonolsen/cleo-consolidator/app/services"
	"github.com/brandonolsen/cleo-consolidator/internal/pipeline"
	"github.com/brandonolsen/cleo-consolidator/routes"
)

func main() {
	// 1. Load configuration
	if err := config.Load(getEnv("CLEO_CONFIG", "config/cleo.yaml")); err != nil {
		panic(err)
	}

	// 2. Initialize logger
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Cleo Consolidator")

	// 3. Initialize the geocode cache (Redis L1 + MongoDB L2 when configured,
	// falling back to an in-memory TTL cache for local runs).
	cache, closeCache := initCache(logger)
	defer closeCache()

	// 4. Build the pipeline: coordinate store, property registry, parcel
	// index, footprint index, Overpass client, brand alias searcher.
	p, err := pipeline.New(&config.C, logger, cache)
	if err != nil {
		logger.Fatal("Failed to construct pipeline", zap.Error(err))
	}

	// 5. Build controller + router
	pipelineController := controllers.NewPipelineController(p, logger)

	router := gin.Default()
	routes.SetupAllRoutes(router, pipelineController)

	// 6. Start server
	addr := config.C.Server.Addr
	logger.Info("Cleo Consolidator listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// initLogger builds a structured logger, production-formatted outside dev.
func initLogger() *zap.Logger {
	var cfg zap.Config
	if config.C.Env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// initCache constructs the geocode cache tier implied by config.C.Cache:
// Redis+MongoDB hybrid when both are configured, either alone when only one
// is, and a plain in-memory TTL cache otherwise. The returned close func
// disconnects any backing MongoDB client.
func initCache(logger *zap.Logger) (services.GeocodeCache, func()) {
	noop := func() {}

	if config.C.Cache.RedisURL == "" && config.C.Cache.MongoURI == "" {
		return services.NewCacheService(1 * time.Hour), noop
	}

	var redisCache *services.RedisCacheService
	if config.C.Cache.RedisURL != "" {
		rc, err := services.NewRedisCacheService(config.C.Cache.RedisURL, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis cache, continuing without it", zap.Error(err))
		} else {
			redisCache = rc
		}
	}

	var mongoCache *services.MongoCacheService
	var mongoClient *mongo.Client
	if config.C.Cache.MongoURI != "" {
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(config.C.Cache.MongoURI))
		if err != nil {
			logger.Warn("Failed to connect to MongoDB, continuing without L2 cache", zap.Error(err))
		} else {
			dbName := config.C.Cache.MongoDB
			if dbName == "" {
				dbName = "cleo_consolidator"
			}
			mc, err := services.NewMongoCacheService(client.Database(dbName), 10000, logger)
			if err != nil {
				logger.Warn("Failed to initialize MongoDB cache, continuing without it", zap.Error(err))
			} else {
				mongoCache = mc
				mongoClient = client
			}
		}
	}

	closeFn := func() {
		if mongoClient != nil {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}
	}

	switch {
	case redisCache != nil && mongoCache != nil:
		return services.NewHybridCacheService(redisCache, mongoCache, logger), closeFn
	case mongoCache != nil:
		return mongoCache, closeFn
	case redisCache != nil:
		return redisCache, noop
	default:
		return services.NewCacheService(1 * time.Hour), noop
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
