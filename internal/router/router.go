package router

import (
	"github.com/gin-gonic/gin"

	"worklane/internal/config"
	"worklane/internal/handler"
	"worklane/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	proposalH *handler.ProposalHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// File routes
	files := v1.Group("/files")
	files.POST("/upload", proposalH.UploadFile)

	// Proposal routes
	proposals := v1.Group("/proposals")
	proposals.POST("", proposalH.Create)
	proposals.GET("", proposalH.List)
	proposals.GET("/:id", proposalH.Get)
	proposals.DELETE("/:id", proposalH.Delete)
	proposals.GET("/:id/file", proposalH.DownloadURL)
	proposals.GET("/:id/tasks", proposalH.LatestTasks)
	proposals.PUT("/:id/tasks", proposalH.Clarify)
	proposals.GET("/:id/snapshots", proposalH.ListSnapshots)
	proposals.GET("/:id/history", proposalH.History)
	proposals.POST("/:id/reparse", proposalH.Reparse)
	proposals.GET("/:id/export/csv", proposalH.ExportCSV)
	proposals.GET("/:id/export/xlsx", proposalH.ExportXLSX)

	return r
}
