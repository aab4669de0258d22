package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/domain"
	"github.com/Aman3008akn/chitchat/internal/service"
	"github.com/Aman3008akn/chitchat/internal/store"
)

// ChatHandler exposes the conversation store and the streaming coordinator.
type ChatHandler struct {
	logger      *zap.Logger
	store       *store.Store
	coordinator *service.ChatCoordinator
}

func NewChatHandler(logger *zap.Logger, st *store.Store, coordinator *service.ChatCoordinator) *ChatHandler {
	return &ChatHandler{logger: logger, store: st, coordinator: coordinator}
}

// CreateConversation handles POST /conversations.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	// Body is optional; a missing or empty title falls back to the default.
	_ = c.ShouldBindJSON(&req)

	id := h.store.CreateConversation(c.Request.Context(), req.Title)
	conv, _ := h.store.Conversation(id)
	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

// ListConversations handles GET /conversations.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"conversations": h.store.Conversations(),
		"activeChatId":  h.store.ActiveID(),
		"loading":       h.store.Loading(),
		"error":         h.store.LastError(),
	})
}

// GetConversation handles GET /conversations/:id.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conv, ok := h.store.Conversation(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation":       conv,
		"streamingMessageId": h.coordinator.StreamingMessageID(),
	})
}

// DeleteConversation handles DELETE /conversations/:id.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	h.store.DeleteConversation(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"activeChatId": h.store.ActiveID()})
}

// ActivateConversation handles PUT /conversations/:id/activate.
func (h *ChatHandler) ActivateConversation(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Conversation(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	h.store.SetActiveConversation(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"activeChatId": id})
}

// SendMessage handles POST /messages. The response returns as soon as the
// stream has started; clients poll the conversation for incremental content.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		Content       string             `json:"content" binding:"required"`
		Attachment    *domain.Attachment `json:"attachment"`
		ExtractedText string             `json:"extracted_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	handle, err := h.coordinator.SendMessage(c.Request.Context(), req.Content, req.Attachment, req.ExtractedText)
	if err != nil {
		if errors.Is(err, service.ErrStreamInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("send message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"conversation_id":      handle.ConversationID,
		"user_message_id":      handle.UserMessageID,
		"assistant_message_id": handle.AssistantMessageID,
	})
}

// Regenerate handles POST /messages/:id/regenerate.
func (h *ChatHandler) Regenerate(c *gin.Context) {
	handle, err := h.coordinator.Regenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStreamInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoActiveConversation), errors.Is(err, service.ErrCannotRegenerate):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			h.logger.Error("regenerate failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not regenerate"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"conversation_id":      handle.ConversationID,
		"assistant_message_id": handle.AssistantMessageID,
	})
}

// StopStream handles POST /stream/stop.
func (h *ChatHandler) StopStream(c *gin.Context) {
	h.coordinator.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}
