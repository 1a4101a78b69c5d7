package identity

import (
	"context"
	"sync"

	"github.com/AhmedHarera/HeartFailure/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserRecorder records users seen in verified tokens.
type UserRecorder interface {
	EnsureUser(ctx context.Context, id, email string) error
}

// RecordUsers stores every bearer user the first time this process sees them,
// whether or not they ever open a cookie session. A failed write is retried
// on the user's next request.
func RecordUsers(users UserRecorder, log *zap.Logger) gin.HandlerFunc {
	var seen sync.Map
	return func(c *gin.Context) {
		claims, ok := ClaimsOf(c)
		if !ok || users == nil {
			c.Next()
			return
		}
		id := claims.ID()
		if _, loaded := seen.LoadOrStore(id, struct{}{}); !loaded {
			email := ""
			if utils.IsValidEmail(claims.Email) {
				email = claims.Email
			}
			if err := users.EnsureUser(c.Request.Context(), id, email); err != nil {
				seen.Delete(id)
				// Only affects the dashboard user count.
				log.Warn("Failed to record user", zap.String("user_id", id), zap.Error(err))
			}
		}
		c.Next()
	}
}
