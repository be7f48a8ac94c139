package handler

import (
	"errors"
	"net/http"

	"freightchat/internal/model"
	"freightchat/internal/service"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler handles choice click HTTP requests
type FeedbackHandler struct {
	chatService *service.ChatService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(chatService *service.ChatService) *FeedbackHandler {
	return &FeedbackHandler{
		chatService: chatService,
	}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.chatService.LogFeedback(c.Request.Context(), &req); err != nil {
		if errors.Is(err, service.ErrInvalidAction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Must be one of: navigate, continueDialogue, dismiss"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log feedback: " + err.Error()})
		return
	}

	response := model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	}

	c.JSON(http.StatusOK, response)
}
