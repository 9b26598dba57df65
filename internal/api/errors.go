package api

import (
	"bug_tracker/internal/store" // Store sentinel errors
	"errors"                     // Error matching
	"net/http"                   // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Machine readable error codes carried next to the message
const (
	CodeValidation         = "validation"
	CodeDuplicateUser      = "duplicate_user"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeInternal           = "internal"
)

// respondError writes the error body every handler uses
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

// respondStoreError maps store errors onto HTTP statuses. Anything that is
// not a known sentinel is a 500 carrying the underlying message.
func respondStoreError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, notFoundMsg)
	case errors.Is(err, store.ErrInvalidReference):
		respondError(c, http.StatusBadRequest, CodeValidation, err.Error())
	default:
		// Log the error with request context
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method, // HTTP method
			"path":   c.FullPath(),     // Route pattern
			"error":  err.Error(),      // Error message
		}).Error("Store operation failed")
		respondError(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}
