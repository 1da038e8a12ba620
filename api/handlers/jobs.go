package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/internal/service/requirements"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

type JobHandler struct {
	jobs           JobManager
	maxUploadBytes int64
	logger         logger.Logger
}

func NewJobHandler(jobs JobManager, maxUploadBytes int64, log logger.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, maxUploadBytes: maxUploadBytes, logger: log.Named("jobs")}
}

// Submit stages the upload and returns the id to poll.
func (h *JobHandler) Submit(c *gin.Context) {
	data, filename, err := readUpload(c, h.maxUploadBytes, h.logger)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}

	job, err := h.jobs.Submit(c.Request.Context(), filename, data)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to submit job", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":     job.ID,
		"status":    job.Status,
		"filename":  job.Filename,
		"fileType":  job.FileType,
		"createdAt": job.CreatedAt.Format(time.RFC3339),
	})
}

func (h *JobHandler) Status(c *gin.Context) {
	jobID := c.Param("jobId")
	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if requirements.IsNotFound(err) {
			handleError(c, h.logger, http.StatusNotFound, "Job not found", err)
			return
		}
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to get job status", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Export returns a completed job's requirements as a workbook.
func (h *JobHandler) Export(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		if requirements.IsNotFound(err) {
			handleError(c, h.logger, http.StatusNotFound, "Job not found", err)
			return
		}
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to get job status", err)
		return
	}
	if job.Status != models.JobCompleted {
		handleError(c, h.logger, http.StatusConflict, "Job has not completed", nil)
		return
	}
	writeXLSX(c, h.logger, job.Filename, job.Requirements)
}

func (h *JobHandler) Cancel(c *gin.Context) {
	jobID := c.Param("jobId")
	if err := h.jobs.Cancel(c.Request.Context(), jobID); err != nil {
		if requirements.IsNotFound(err) {
			handleError(c, h.logger, http.StatusNotFound, "Job not found", err)
			return
		}
		if requirements.IsNotCancellable(err) {
			handleError(c, h.logger, http.StatusConflict, "Job can no longer be cancelled", err)
			return
		}
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to cancel job", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Job cancelled successfully",
		"jobId":   jobID,
	})
}
