package api

import (
	"errors"
	"net/http"

	"bitwise74/gallery-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) CommandReact(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	m, err := service.RandomReactMedia(c.Request.Context(), a.DB, c.Query("type"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "No tagged media found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to pick tagged media", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, mediaPayload(m))
}
