package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobpilot/internal/session"
	"jobpilot/internal/store"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// StoreError maps a persistence gateway failure onto a response. Store
// messages pass through verbatim; everything else is a generic 500.
func StoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		Unauthorized(c)
	case errors.Is(err, store.ErrResumeNotFound):
		NotFound(c, "resume not found")
	case errors.Is(err, store.ErrProfileNotFound):
		NotFound(c, "profile not found")
	default:
		var perr *store.PersistenceError
		if errors.As(err, &perr) {
			Internal(c, perr.Message)
			return
		}
		Internal(c, "internal error")
	}
}
