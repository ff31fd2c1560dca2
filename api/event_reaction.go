package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type reactionEvent struct {
	Emoji     string `json:"emoji" binding:"required"`
	MessageID string `json:"messageId" binding:"required"`
	Filename  string `json:"filename"`

	// Remaining is how many reactions with this emoji are still on the
	// message after the change. Only used on remove.
	Remaining int `json:"remaining"`
}

func (a *API) EventReactionAdd(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var ev reactionEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid event payload",
			"requestID": requestID,
		})
		return
	}

	err := a.Tagger.OnReactionAdd(c.Request.Context(), ev.Emoji, ev.MessageID, ev.Filename)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to apply reaction tag",
			zap.String("messageID", ev.MessageID), zap.Error(err))
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) EventReactionRemove(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var ev reactionEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid event payload",
			"requestID": requestID,
		})
		return
	}

	err := a.Tagger.OnReactionRemove(c.Request.Context(), ev.Emoji, ev.MessageID, ev.Filename, ev.Remaining)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to strip reaction tag",
			zap.String("messageID", ev.MessageID), zap.Error(err))
		return
	}

	c.Status(http.StatusOK)
}
