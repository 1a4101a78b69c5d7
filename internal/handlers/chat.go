package handlers

import (
	"context"
	"net/http"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/inference"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Assistant answers heart-health questions.
type Assistant interface {
	Chat(ctx context.Context, message string, history []inference.ChatMessage) (string, error)
	Health(ctx context.Context) error
}

// ChatHandler forwards chat turns to the assistant. The conversation itself
// lives in the client; each request carries its own history.
type ChatHandler struct {
	log       *zap.Logger
	assistant Assistant
}

func NewChatHandler(log *zap.Logger, assistant Assistant) *ChatHandler {
	return &ChatHandler{log: log, assistant: assistant}
}

type chatInput struct {
	Message string                  `json:"message"`
	History []inference.ChatMessage `json:"history"`
}

// Send answers one message.
func (h *ChatHandler) Send(c *gin.Context) {
	var in chatInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Wrap(apperr.ErrInvalidInput, "request body must be a chat message", err), nil)
		return
	}
	reply, err := h.assistant.Chat(c.Request.Context(), in.Message, in.History)
	if err != nil {
		h.log.Warn("Chat request failed", zap.String("code", apperr.Code(err)), zap.Error(err))
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// Health reports whether the assistant is reachable.
func (h *ChatHandler) Health(c *gin.Context) {
	if err := h.assistant.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"online": false, "code": apperr.Code(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": true})
}
