package handlers

import (
	"net/http"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/identity"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler exchanges identity tokens for cookie sessions.
type SessionHandler struct {
	log *zap.Logger
}

func NewSessionHandler(log *zap.Logger) *SessionHandler {
	return &SessionHandler{log: log}
}

// Show reports who the caller is and hands out the CSRF token for cookie requests.
func (h *SessionHandler) Show(c *gin.Context) {
	token, _ := c.Get(identity.CSRFTokenKey)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": identity.UserID(c) != "",
		"user_id":       identity.UserID(c),
		"csrf_token":    token,
	})
}

// Create stores the bearer token's user in the cookie session. The user row
// itself is written by identity.RecordUsers.
func (h *SessionHandler) Create(c *gin.Context) {
	claims, ok := identity.ClaimsOf(c)
	if !ok {
		respondError(c, apperr.New(apperr.ErrUnauthenticated, "a bearer token is required"), nil)
		return
	}

	session := sessions.Default(c)
	session.Set(identity.SessionUserKey, claims.ID())
	session.Delete(identity.SessionGuestKey)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		respondError(c, err, nil)
		return
	}
	h.log.Info("Cookie session started", zap.String("user_id", claims.ID()))

	token, _ := c.Get(identity.CSRFTokenKey)
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user_id": claims.ID(), "csrf_token": token})
}

// Delete clears the cookie session.
func (h *SessionHandler) Delete(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		h.log.Error("Failed to clear session", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}
