package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"jobpilot/internal/api/middleware"
	"jobpilot/internal/store"
)

// ChatHandler serves stored chat history for the agent conversations.
type ChatHandler struct {
	store *store.Store
}

// NewChatHandler constructs the handler.
func NewChatHandler(s *store.Store) *ChatHandler {
	return &ChatHandler{store: s}
}

type chatMessageItem struct {
	ID        uint           `json:"id"`
	ThreadID  string         `json:"thread_id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Threads lists the caller's conversation threads.
func (h *ChatHandler) Threads(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	threads, err := h.store.ListThreads(c.Request.Context(), id)
	if err != nil {
		StoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// History returns one thread's messages in order.
func (h *ChatHandler) History(c *gin.Context) {
	threadID := strings.TrimSpace(c.Query("thread_id"))
	if threadID == "" {
		BadRequest(c, "missing thread_id")
		return
	}

	id := middleware.IdentityFromContext(c)
	messages, err := h.store.ListThreadMessages(c.Request.Context(), id, threadID)
	if err != nil {
		StoreError(c, err)
		return
	}

	items := make([]chatMessageItem, 0, len(messages))
	for _, m := range messages {
		items = append(items, chatMessageItem{
			ID:        m.ID,
			ThreadID:  m.ThreadID,
			Role:      m.Role,
			Content:   m.Content,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

type appendMessageRequest struct {
	ThreadID string         `json:"thread_id"`
	Role     string         `json:"role" binding:"required,oneof=user assistant"`
	Content  string         `json:"content" binding:"required"`
	Metadata datatypes.JSON `json:"metadata"`
}

// Append stores one conversation turn. A missing thread id starts a new
// thread.
func (h *ChatHandler) Append(c *gin.Context) {
	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.ThreadID) == "" {
		req.ThreadID = uuid.NewString()
	}

	id := middleware.IdentityFromContext(c)
	msg, err := h.store.AppendChatMessage(c.Request.Context(), id, store.NewChatMessage{
		ThreadID: req.ThreadID,
		Role:     req.Role,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		StoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chatMessageItem{
		ID:        msg.ID,
		ThreadID:  msg.ThreadID,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  msg.Metadata,
		CreatedAt: msg.CreatedAt,
	})
}
