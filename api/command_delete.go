package api

import (
	"errors"
	"net/http"

	"bitwise74/gallery-bot/internal/model"
	"bitwise74/gallery-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type deleteRequest struct {
	// MessageID of the original gallery message the caller replied to
	MessageID string `json:"messageId"`

	// Filename targets the record directly when no reply is available
	Filename string `json:"filename"`
}

// CommandDelete removes archived media. The target resolves through
// the replied-to message first, then the filename. Tenor records can
// match several rows, all of them go.
func (a *API) CommandDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.MessageID == "" && req.Filename == "") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Reply target or filename is missing",
			"requestID": requestID,
		})
		return
	}

	ctx := c.Request.Context()

	filename := req.Filename
	isTenor := false

	if req.MessageID != "" {
		m, err := service.FindByMessageID(ctx, a.DB, req.MessageID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"error":     "No archived media behind that message",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to resolve delete target", zap.Error(err))
			return
		}

		filename = m.Filename
		isTenor = m.Source == model.SourceTenor
	}

	removed, err := a.Ingest.DeleteByFilename(ctx, filename, isTenor)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "File not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete media", zap.String("filename", filename), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":  len(removed),
		"filename": filename,
	})
}
