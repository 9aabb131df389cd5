package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidooo/analysis-service/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "analysis-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	screeningHandler := handler.NewScreeningHandler(deps)
	childHandler := handler.NewChildHandler(deps)

	api := r.Group("/api")
	{
		videos := api.Group("/videos")
		{
			// POST /api/videos/upload - Submit a video for analysis
			videos.POST("/upload", BodySizeLimitMiddleware(deps.MaxVideoBytes), jobHandler.UploadVideo)

			// GET /api/videos - List all analysis jobs
			videos.GET("", jobHandler.ListJobs)

			// GET /api/videos/:id - Poll one job's state and progress log
			videos.GET("/:id", jobHandler.GetJob)
		}

		// POST /api/reports/upload - Submit an evaluation report document
		api.POST("/reports/upload", BodySizeLimitMiddleware(deps.MaxReportBytes), jobHandler.UploadReport)

		scr := api.Group("/screening")
		{
			// POST /api/screening - Save a questionnaire result
			scr.POST("", screeningHandler.SaveScreening)

			// GET /api/screening/:childId - Fetch a child's questionnaire result
			scr.GET("/:childId", screeningHandler.GetScreening)
		}

		children := api.Group("/children")
		{
			// GET /api/children - List child profiles
			children.GET("", childHandler.ListChildren)

			// POST /api/children - Register a child profile
			children.POST("", childHandler.CreateChild)
		}
	}

	return r
}
