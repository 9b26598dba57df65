package api

import (
	"bug_tracker/internal/middleware" // Identity helpers
	"bug_tracker/internal/storage"    // Attachment object store
	"errors"                          // Error inspection
	"net/http"                        // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// MaxAttachmentBytes caps a single upload
const MaxAttachmentBytes = 10 << 20

// UploadAttachmentHandler stores the multipart "file" field and returns its
// object name and public URL. The caller then sets the URL on the ticket.
func UploadAttachmentHandler(objects storage.ObjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > MaxAttachmentBytes {
			respondError(c, http.StatusRequestEntityTooLarge, CodeValidation, "File too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAttachmentBytes) // Bound the body
		header, err := c.FormFile("file")                                                  // Uploaded file
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, CodeValidation, "File too large")
			return
		}
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "File required")
			return
		}
		file, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "Unreadable upload")
			return
		}
		defer file.Close()

		name, err := objects.Save(c.Request.Context(), header.Filename, file)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"file":  header.Filename, // Original name
				"error": err.Error(),     // Error message
			}).Error("Attachment upload failed")
			respondError(c, http.StatusInternalServerError, CodeInternal, "Error uploading file")
			return
		}
		userID, _, _ := middleware.CurrentUser(c)
		// Log the upload
		logrus.WithFields(logrus.Fields{
			"user_id": userID,      // Uploader
			"object":  name,        // Stored object name
			"size":    header.Size, // Bytes
		}).Info("Attachment uploaded")
		c.JSON(http.StatusCreated, gin.H{"name": name, "url": objects.URL(name)})
	}
}

// downloadOnly makes browsers save served attachments instead of rendering
// them on the API origin
func downloadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Disposition", "attachment")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}
