package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/smart-sdlc/api/handlers"
	"github.com/feichai0017/smart-sdlc/api/middleware"
	"github.com/feichai0017/smart-sdlc/internal/service/assistant"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

// SetupRoutes registers every route on r.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, corsOrigins []string, log logger.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log.Named("http")))
	r.Use(middleware.CORS(corsOrigins))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Smart SDLC API is running"})
	})

	// Legacy paths still called by the web front end.
	r.POST("/upload-requirements", h.Requirements.Upload)
	for _, task := range assistant.Tasks() {
		r.POST("/"+string(task), h.Assistant.Handle(task))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	reqs := v1.Group("/requirements")
	{
		reqs.POST("/upload", h.Requirements.Upload)
		if h.Jobs != nil {
			reqs.POST("/jobs", h.Jobs.Submit)
			reqs.GET("/jobs/:jobId", h.Jobs.Status)
			reqs.GET("/jobs/:jobId/export", h.Jobs.Export)
			reqs.DELETE("/jobs/:jobId", h.Jobs.Cancel)
		}
	}

	asst := v1.Group("/assistant")
	for _, task := range assistant.Tasks() {
		asst.POST("/"+string(task), h.Assistant.Handle(task))
	}
}
