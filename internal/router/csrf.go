package router

import (
	"net/http"

	"github.com/AhmedHarera/HeartFailure/internal/identity"
	"github.com/AhmedHarera/HeartFailure/internal/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const csrfTokenHeaderKey = "X-CSRF-Token"

// CSRFProtection guards cookie-authenticated requests. Each session carries a
// token that unsafe methods must echo in the X-CSRF-Token header. Bearer
// requests carry no ambient credentials and skip the check.
func CSRFProtection(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity.SourceOf(c) == identity.SourceBearer {
			c.Next()
			return
		}

		session := sessions.Default(c)

		token, _ := session.Get(identity.CSRFTokenKey).(string)
		if token == "" {
			newToken, err := utils.GenerateSecureToken(32)
			if err != nil {
				log.Error("Failed to generate CSRF token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "INTERNAL_ERROR"})
				return
			}
			token = newToken
			session.Set(identity.CSRFTokenKey, token)
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "INTERNAL_ERROR"})
				return
			}
		}

		c.Set(identity.CSRFTokenKey, token)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			if submitted := c.GetHeader(csrfTokenHeaderKey); submitted == "" || submitted != token {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token", "code": "CSRF_REJECTED"})
				return
			}
		}

		c.Next()
	}
}
