package api

import (
	"net/http"

	"bitwise74/gallery-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommandCollage renders a 3x3 grid of a user's archived images and
// returns the PNG directly. The target defaults to the caller.
func (a *API) CommandCollage(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	userID := c.Query("user")
	if userID == "" {
		userID = c.MustGet("userID").(string)
	}

	media, err := service.UserImages(c.Request.Context(), a.DB, userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load user images",
			zap.String("userID", userID), zap.Error(err))
		return
	}

	if len(media) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "User has no archived images",
			"requestID": requestID,
		})
		return
	}

	png, err := a.Collage.Build(c.Request.Context(), media)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to render collage",
			"requestID": requestID,
		})

		zap.L().Error("Failed to render collage",
			zap.String("userID", userID), zap.Error(err))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
