package api

import (
	"net/http"

	"bitwise74/gallery-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) CommandCount(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	n, err := service.CountMedia(c.Request.Context(), a.DB)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count media", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": n})
}
