package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/smart-sdlc/internal/service/assistant"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

type AssistantHandler struct {
	responder AssistantResponder
	logger    logger.Logger
}

func NewAssistantHandler(responder AssistantResponder, log logger.Logger) *AssistantHandler {
	return &AssistantHandler{responder: responder, logger: log.Named("assistant")}
}

// Handle returns a handler for task. The input is read from the task's body
// field; a missing or empty field yields "No response".
func (h *AssistantHandler) Handle(task assistant.Task) gin.HandlerFunc {
	return func(c *gin.Context) {
		field, err := assistant.InputField(task)
		if err != nil {
			handleError(c, h.logger, http.StatusNotFound, "Unknown assistant task", err)
			return
		}

		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			handleError(c, h.logger, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		input, _ := body[field].(string)

		reply, err := h.responder.Respond(c.Request.Context(), task, input)
		if err != nil {
			handleError(c, h.logger, http.StatusInternalServerError, "Assistant request failed", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": reply})
	}
}
