package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes wires the human-facing index/docs/status endpoints.
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "Cleo Consolidator",
				"version": "1.0.0",
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"api": "Cleo Consolidator Pipeline API v1",
				"endpoints": map[string]string{
					"cluster":              "POST /v1/pipeline/cluster",
					"brand_import":         "POST /v1/pipeline/brand-import",
					"geowarehouse_resolve": "POST /v1/pipeline/geowarehouse-resolve",
					"snap":                 "POST /v1/pipeline/snap",
					"parcel_consolidate":   "POST /v1/pipeline/parcel-consolidate",
					"save":                 "POST /v1/pipeline/save",
					"stats":                "GET /v1/stats",
					"health":               "GET /v1/health",
				},
			})
		})

		web.GET("/status", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "running",
				"service": "cleo-consolidator",
			})
		})
	}
}
