package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type postedEvent struct {
	MessageID string `json:"messageId" binding:"required"`
	Command   string `json:"command" binding:"required"`
	MediaID   uint   `json:"mediaId" binding:"required"`
	Tag       string `json:"tag"`
}

// EventPosted records which media record a bot reply showed so later
// commands can reference the reply instead of the media itself.
func (a *API) EventPosted(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var ev postedEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid event payload",
			"requestID": requestID,
		})
		return
	}

	err := a.Tagger.TrackPost(c.Request.Context(), ev.MessageID, ev.Command, ev.MediaID, ev.Tag)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to track bot post",
			zap.String("messageID", ev.MessageID), zap.Error(err))
		return
	}

	c.Status(http.StatusOK)
}
