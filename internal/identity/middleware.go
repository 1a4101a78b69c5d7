package identity

import (
	"net/http"
	"strings"

	"github.com/AhmedHarera/HeartFailure/internal/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys shared with the cookie session and the gin context.
const (
	SessionUserKey  = "userID"
	SessionGuestKey = "guestID"

	// CSRFTokenKey holds the session's CSRF token in both the session and the context.
	CSRFTokenKey = "csrf_token"

	contextUserKey   = "identity.user"
	contextOwnerKey  = "identity.owner"
	contextSourceKey = "identity.source"
	contextClaimsKey = "identity.claims"
)

// Source is how the caller was identified.
type Source string

const (
	SourceBearer Source = "bearer"
	SourceCookie Source = "cookie"
)

// Middleware resolves the caller. A bearer token, when present, must be valid.
// Without one the cookie session is used; callers with no user id get a guest id
// so their wizard and ECG sessions still have an owner.
func Middleware(v *Verifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			claims, err := v.Verify(token)
			if err != nil {
				log.Debug("Rejected bearer token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "code": "UNAUTHENTICATED"})
				return
			}
			set(c, claims.ID(), "user:"+claims.ID(), SourceBearer)
			c.Set(contextClaimsKey, claims)
			c.Next()
			return
		}

		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(string); ok && userID != "" {
			set(c, userID, "user:"+userID, SourceCookie)
			c.Next()
			return
		}

		guestID, _ := session.Get(SessionGuestKey).(string)
		if guestID == "" {
			id, err := utils.GenerateSecureToken(24)
			if err != nil {
				log.Error("Failed to generate guest id", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "INTERNAL_ERROR"})
				return
			}
			guestID = id
			session.Set(SessionGuestKey, guestID)
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", zap.Error(err))
			}
		}
		set(c, "", "guest:"+guestID, SourceCookie)
		c.Next()
	}
}

// AuthRequired rejects callers without a user id.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required", "code": "UNAUTHENTICATED"})
			return
		}
		c.Next()
	}
}

func set(c *gin.Context, userID, owner string, source Source) {
	c.Set(contextUserKey, userID)
	c.Set(contextOwnerKey, owner)
	c.Set(contextSourceKey, source)
}

// UserID returns the authenticated user id, or "" for guests.
func UserID(c *gin.Context) string {
	return c.GetString(contextUserKey)
}

// Owner returns the key that scopes wizard and ECG sessions to the caller.
func Owner(c *gin.Context) string {
	return c.GetString(contextOwnerKey)
}

// SourceOf returns how the caller was identified.
func SourceOf(c *gin.Context) Source {
	s, _ := c.Get(contextSourceKey)
	src, _ := s.(Source)
	return src
}

// ClaimsOf returns the verified token claims for bearer requests.
func ClaimsOf(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(contextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
