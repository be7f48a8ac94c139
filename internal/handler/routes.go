package handler

import (
	"freightchat/internal/config"
	"freightchat/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API handlers on an /api/v1 group
func RegisterRoutes(v1 *gin.RouterGroup, chatService *service.ChatService, search config.SearchConfig) {
	chatHandler := NewChatHandler(chatService)
	loadHandler := NewLoadHandler(chatService, search.DefaultLimit, search.MaxLimit)
	feedbackHandler := NewFeedbackHandler(chatService)

	v1.POST("/chat", chatHandler.Chat)
	v1.POST("/chat/:session/reset", chatHandler.Reset)
	v1.DELETE("/chat/:session", chatHandler.End)
	v1.POST("/loads/search", loadHandler.Search)
	v1.GET("/loads/:id", loadHandler.GetLoad)
	v1.POST("/feedback", feedbackHandler.Submit)
}
