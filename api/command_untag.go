package api

import (
	"errors"
	"net/http"

	"bitwise74/gallery-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type untagRequest struct {
	// MessageID of the bot reply whose media should lose its tag
	MessageID string `json:"messageId" binding:"required"`
}

func (a *API) CommandUntag(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var req untagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Reply target is missing",
			"requestID": requestID,
		})
		return
	}

	tag, err := a.Tagger.Untag(c.Request.Context(), req.MessageID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoProvenance):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "That message is not a tagged bot post",
				"requestID": requestID,
			})
		case errors.Is(err, service.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "The archived media no longer exists",
				"requestID": requestID,
			})
		case errors.Is(err, service.ErrNotTagged):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":     "The media is not tagged anymore",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to untag media",
				zap.String("messageID", req.MessageID), zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": tag})
}
