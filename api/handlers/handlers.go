package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/internal/service/assistant"
	"github.com/feichai0017/smart-sdlc/internal/service/export"
	"github.com/feichai0017/smart-sdlc/internal/utils/validator"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

// RequirementsClassifier runs the classification pipeline synchronously.
type RequirementsClassifier interface {
	Run(ctx context.Context, doc models.Document) []models.Requirement
}

// AssistantResponder answers free-form developer prompts.
type AssistantResponder interface {
	Respond(ctx context.Context, task assistant.Task, input string) (string, error)
}

// JobManager runs classification asynchronously.
type JobManager interface {
	Submit(ctx context.Context, filename string, data []byte) (*models.Job, error)
	Get(ctx context.Context, jobID string) (*models.Job, error)
	Cancel(ctx context.Context, jobID string) error
}

type Handlers struct {
	Requirements *RequirementsHandler
	Assistant    *AssistantHandler
	// Jobs is nil when asynchronous jobs are disabled.
	Jobs *JobHandler
}

func NewHandlers(
	classifier RequirementsClassifier,
	responder AssistantResponder,
	jobs JobManager,
	maxUploadBytes int64,
	log logger.Logger,
) *Handlers {
	h := &Handlers{
		Requirements: NewRequirementsHandler(classifier, maxUploadBytes, log),
		Assistant:    NewAssistantHandler(responder, log),
	}
	if jobs != nil {
		h.Jobs = NewJobHandler(jobs, maxUploadBytes, log)
	}
	return h
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

func handleError(c *gin.Context, log logger.Logger, status int, message string, err error) {
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), log).Error(message, fields...)
	} else {
		logger.FromContext(c.Request.Context(), log).Warn(message, fields...)
	}

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, response)
}

// readUpload returns the bytes and filename of the multipart "file" field.
func readUpload(c *gin.Context, maxBytes int64, log logger.Logger) ([]byte, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1024*1024)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file: %w", err)
	}
	file.Close()

	data, info, err := validator.NewUploadValidator(maxBytes).Validate(header)
	if err != nil {
		return nil, "", err
	}
	logger.FromContext(c.Request.Context(), log).Info("Upload received",
		logger.String("filename", info.Filename),
		logger.Int64("size", info.Size),
		logger.String("mimeType", info.MimeType),
		logger.String("sha256", info.Hash),
		logger.Strings("warnings", info.Warnings),
	)
	return data, header.Filename, nil
}

// writeXLSX responds with reqs rendered as a workbook attachment.
func writeXLSX(c *gin.Context, log logger.Logger, upload string, reqs []models.Requirement) {
	data, err := export.RequirementsXLSX(reqs)
	if err != nil {
		handleError(c, log, http.StatusInternalServerError, "Failed to render workbook", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(upload)))
	c.Data(http.StatusOK, export.XLSXContentType, data)
}
