package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/sirupsen/logrus"
)

// respondError writes {"message": ...} with the status of a *models.BookingError.
// Anything else is an internal error and its text is not exposed.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var bookingErr *models.BookingError
	if !errors.As(err, &bookingErr) {
		logger.WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	status := bookingErr.HTTPStatus()
	entry := logger.WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"kind":   bookingErr.Kind,
		"status": status,
	})
	if bookingErr.Err != nil {
		entry = entry.WithError(bookingErr.Err)
	}
	if status >= http.StatusInternalServerError {
		entry.Error(bookingErr.Message)
	} else {
		entry.Info(bookingErr.Message)
	}

	c.JSON(status, gin.H{"message": bookingErr.Message})
}
