package handlers

import (
	"errors"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError writes err as {"error": message, "code": kind} with the kind's status.
// extra fields are merged into the body.
func respondError(c *gin.Context, err error, extra gin.H) {
	body := gin.H{"error": apperr.Message(err), "code": apperr.Code(err)}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), body)
}

var errBadID = apperr.New(apperr.ErrNotFound, "session not found")

// sessionID parses the :id path parameter.
func sessionID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errBadID
	}
	return id, nil
}

// isWarning reports whether err is the non-blocking persist warning.
func isWarning(err error) bool {
	return errors.Is(err, apperr.ErrPersistFailed)
}
