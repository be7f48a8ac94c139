package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"freightchat/internal/model"
	"freightchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles conversation HTTP requests
type ChatHandler struct {
	chatService *service.ChatService
	locks       *sessionLocks
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		locks:       newSessionLocks(),
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// assign the id here so the turn runs under its session lock
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	unlock := h.locks.lock(req.SessionID)
	defer unlock()

	response, err := h.chatService.ProcessTurn(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message must not be empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Reset handles POST /api/v1/chat/:session/reset
func (h *ChatHandler) Reset(c *gin.Context) {
	sessionID := c.Param("session")

	unlock := h.locks.lock(sessionID)
	defer unlock()

	if err := h.chatService.ResetTopic(c.Request.Context(), sessionID); err != nil {
		writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "status": "reset"})
}

// End handles DELETE /api/v1/chat/:session
func (h *ChatHandler) End(c *gin.Context) {
	sessionID := c.Param("session")

	unlock := h.locks.lock(sessionID)
	defer unlock()

	if err := h.chatService.EndConversation(c.Request.Context(), sessionID); err != nil {
		writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "status": "ended"})
}

func writeSessionError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrEmptySessionID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Session update failed: " + err.Error()})
}

// sessionLocks serializes turns of the same conversation. Entries are
// reference counted and removed once no request holds or waits on them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (s *sessionLocks) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

func (s *sessionLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
