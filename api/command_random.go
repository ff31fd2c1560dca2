package api

import (
	"errors"
	"net/http"

	"bitwise74/gallery-bot/internal/model"
	"bitwise74/gallery-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// mediaPayload tells the gateway how to post a record back into the
// channel. Tenor shares are sent as plain text so the client embeds
// them itself, everything else is posted as a file.
func mediaPayload(m *model.Media) gin.H {
	if m.Source == model.SourceTenor {
		return gin.H{
			"kind":    "text",
			"content": m.Locator,
			"mediaId": m.ID,
		}
	}

	return gin.H{
		"kind":        "file",
		"filename":    m.Filename,
		"url":         m.Locator,
		"contentType": m.ContentType,
		"remote":      m.Remote(),
		"mediaId":     m.ID,
	}
}

func (a *API) CommandRandom(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	m, err := service.RandomMedia(c.Request.Context(), a.DB, c.Query("type"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Nothing archived yet",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to pick random media", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, mediaPayload(m))
}
