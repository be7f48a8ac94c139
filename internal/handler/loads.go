package handler

import (
	"errors"
	"net/http"
	"strconv"

	"freightchat/internal/model"
	"freightchat/internal/service"

	"github.com/gin-gonic/gin"
)

// LoadHandler handles load lookup HTTP requests
type LoadHandler struct {
	chatService  *service.ChatService
	defaultLimit int
	maxLimit     int
}

// NewLoadHandler creates a new load handler
func NewLoadHandler(chatService *service.ChatService, defaultLimit, maxLimit int) *LoadHandler {
	return &LoadHandler{
		chatService:  chatService,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Search handles POST /api/v1/loads/search
func (h *LoadHandler) Search(c *gin.Context) {
	var req model.LoadSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Validate and cap limits
	if req.Limit <= 0 {
		req.Limit = h.defaultLimit
	}
	if req.Limit > h.maxLimit {
		req.Limit = h.maxLimit
	}

	response, err := h.chatService.SearchLoads(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetLoad handles GET /api/v1/loads/:id
func (h *LoadHandler) GetLoad(c *gin.Context) {
	loadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || loadID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid load ID"})
		return
	}

	detail, err := h.chatService.GetLoad(c.Request.Context(), loadID)
	if err != nil {
		if errors.Is(err, service.ErrLoadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Load not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get load: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, detail)
}
