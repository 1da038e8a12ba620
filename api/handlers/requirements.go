package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

type RequirementsHandler struct {
	classifier     RequirementsClassifier
	maxUploadBytes int64
	logger         logger.Logger
}

func NewRequirementsHandler(classifier RequirementsClassifier, maxUploadBytes int64, log logger.Logger) *RequirementsHandler {
	return &RequirementsHandler{
		classifier:     classifier,
		maxUploadBytes: maxUploadBytes,
		logger:         log.Named("requirements"),
	}
}

// Upload classifies an uploaded document and responds with the bare list of
// {sentence, phase} records, or a workbook when format=xlsx.
func (h *RequirementsHandler) Upload(c *gin.Context) {
	data, filename, err := readUpload(c, h.maxUploadBytes, h.logger)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}

	reqs := h.classifier.Run(c.Request.Context(), models.NewDocument(data, filename))
	if c.Query("format") == "xlsx" {
		writeXLSX(c, h.logger, filename, reqs)
		return
	}
	c.JSON(http.StatusOK, reqs)
}
