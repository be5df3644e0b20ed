package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/brandonolsen/cleo-consolidator/app/controllers"
)

// SetupAPIRoutes wires one route per pipeline stage under /v1.
func SetupAPIRoutes(router *gin.Engine, pc *controllers.PipelineController) {
	v1 := router.Group("/v1")
	{
		stages := v1.Group("/pipeline")
		{
			stages.POST("/cluster", pc.RunCluster)
			stages.POST("/brand-import", pc.RunBrandImport)
			stages.POST("/geowarehouse-resolve", pc.RunGeoWarehouseResolve)
			stages.POST("/snap", pc.RunSnap)
			stages.POST("/parcel-consolidate", pc.RunParcelConsolidate)
			stages.POST("/save", pc.Save)
		}

		v1.GET("/stats", pc.Stats)
		v1.GET("/health", pc.Health)
	}
}

// SetupHealthRoutes wires the root-level liveness/readiness checks.
func SetupHealthRoutes(router *gin.Engine, pc *controllers.PipelineController) {
	router.GET("/health", pc.Health)
	router.GET("/ready", pc.Health)
	router.GET("/live", pc.Health)
}

// SetupMetricsRoutes reserves the Prometheus scrape path.
func SetupMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "metrics endpoint not yet implemented"})
	})
}

// SetupAllRoutes wires every route group plus middleware and the 404 handler.
func SetupAllRoutes(router *gin.Engine, pc *controllers.PipelineController) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, pc)
	SetupAPIRoutes(router, pc)
	SetupMetricsRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
}
