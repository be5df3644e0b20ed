package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brandonolsen/cleo-consolidator/app/config"
	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/brands"
	"github.com/brandonolsen/cleo-consolidator/internal/geowarehouse"
	"github.com/brandonolsen/cleo-consolidator/internal/parcels"
	"github.com/brandonolsen/cleo-consolidator/internal/pipeline"
)

// errorResponse mirrors the teacher's ErrorResponse shape for this domain.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PipelineController exposes one route per consolidator stage plus health
// and stats, so a stage can be triggered over HTTP the same way cmd/worker
// triggers it from the CLI.
type PipelineController struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// NewPipelineController wires p behind HTTP handlers.
func NewPipelineController(p *pipeline.Pipeline, logger *zap.Logger) *PipelineController {
	return &PipelineController{pipeline: p, logger: logger}
}

// Health reports process liveness only, no dependency checks.
func (pc *PipelineController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats reports the number of properties in the in-memory registry, for
// /admin/stats-style inspection without re-reading the JSON files from disk.
// The other stores' sizes are not reported.
func (pc *PipelineController) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"properties": len(pc.pipeline.Registry.All()),
	})
}

// RunCluster triggers the Location Clusterer stage (§4.E).
func (pc *PipelineController) RunCluster(c *gin.Context) {
	var req struct {
		ProximityMeters float64 `json:"proximity_meters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_REQUEST", Message: err.Error()})
		return
	}
	jobID := pipeline.NewJobID()
	clusters := pc.pipeline.RunCluster(req.ProximityMeters)
	pc.logger.Info("cluster stage complete", zap.String("job_id", jobID), zap.Int("clusters", len(clusters)))
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "clusters": len(clusters)})
}

// RunBrandImport triggers the Brand Matcher + Brand Import stage (§4.G).
func (pc *PipelineController) RunBrandImport(c *gin.Context) {
	var req struct {
		Stores []models.BrandStoreRecord `json:"stores"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_REQUEST", Message: err.Error()})
		return
	}

	jobID := pipeline.NewJobID()
	start := time.Now()
	result, err := pc.pipeline.RunBrandImport(req.Stores, brands.DefaultThresholds())
	if err != nil {
		pc.logger.Error("brand import failed", zap.String("job_id", jobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "BRAND_IMPORT_FAILED", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":            jobID,
		"matched":           len(result.Matches),
		"unmatched":         len(result.Unmatched),
		"summary":           result.Summary,
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}

// RunGeoWarehouseResolve triggers the GeoWarehouse Resolver stage (§4.H).
func (pc *PipelineController) RunGeoWarehouseResolve(c *gin.Context) {
	var req struct {
		Records []geowarehouse.Record `json:"records"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_REQUEST", Message: err.Error()})
		return
	}
	jobID := pipeline.NewJobID()
	resolved := pc.pipeline.RunGeoWarehouseResolve(req.Records)
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "resolved": resolved})
}

// RunParcelConsolidate triggers the Parcel Consolidator stage (§4.L).
func (pc *PipelineController) RunParcelConsolidate(c *gin.Context) {
	var req struct {
		BrandPOIs []parcels.BrandPOI `json:"brand_pois"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_REQUEST", Message: err.Error()})
		return
	}
	jobID := pipeline.NewJobID()
	summary := pc.pipeline.RunParcelConsolidate(req.BrandPOIs)
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "summary": summary})
}

// RunSnap triggers the Coordinate Snapper stage (§4.K).
func (pc *PipelineController) RunSnap(c *gin.Context) {
	var req struct {
		BrandSanityGateM  float64 `json:"brand_sanity_gate_m"`
		FootprintNearestM float64 `json:"footprint_nearest_m"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_REQUEST", Message: err.Error()})
		return
	}
	jobID := pipeline.NewJobID()
	thresholds := config.MatchingThresholds{
		BrandSanityGateM:  req.BrandSanityGateM,
		FootprintNearestM: req.FootprintNearestM,
	}
	snapped := pc.pipeline.RunSnap(nil, thresholds)
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "snapped": snapped})
}

// Save flushes every on-disk store the pipeline owns.
func (pc *PipelineController) Save(c *gin.Context) {
	if err := pc.pipeline.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "SAVE_FAILED", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}
