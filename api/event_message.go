package api

import (
	"errors"
	"net/http"

	"bitwise74/gallery-bot/internal/service"
	"bitwise74/gallery-bot/validators"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type messageAttachment struct {
	URL         string `json:"url" binding:"required"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ContentType string `json:"contentType"`
}

type messageEvent struct {
	MessageID   string `json:"messageId" binding:"required"`
	MessageLink string `json:"messageLink"`
	ChannelID   string `json:"channelId" binding:"required"`
	Content     string `json:"content"`

	Author struct {
		ID          string `json:"id" binding:"required"`
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
		Bot         bool   `json:"bot"`
	} `json:"author"`

	Attachments []messageAttachment `json:"attachments"`
}

type ingestOutcome struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Status   string `json:"status"`
}

// EventMessage archives every attachment and image link in an inbound
// message. Items are independent, one failure never blocks the rest.
func (a *API) EventMessage(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var ev messageEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid event payload",
			"requestID": requestID,
		})
		return
	}

	if ev.Author.Bot || ev.ChannelID != viper.GetString("gallery.channel_id") {
		c.JSON(http.StatusOK, gin.H{"outcomes": []ingestOutcome{}})
		return
	}

	inputs := make([]service.IngestInput, 0, len(ev.Attachments))

	for _, att := range ev.Attachments {
		if err := validators.AttachmentValidator(att.Filename, att.ContentType); err != nil {
			zap.L().Debug("Skipping attachment",
				zap.String("filename", att.Filename), zap.Error(err))
			continue
		}

		inputs = append(inputs, service.IngestInput{
			URL:         att.URL,
			Filename:    att.Filename,
			Size:        att.Size,
			Width:       att.Width,
			Height:      att.Height,
			ContentType: att.ContentType,
			Attachment:  true,
		})
	}

	for _, u := range service.ExtractImageURLs(ev.Content) {
		inputs = append(inputs, service.IngestInput{URL: u})
	}

	outcomes := make([]ingestOutcome, 0, len(inputs))

	for _, in := range inputs {
		in.AuthorID = ev.Author.ID
		in.AuthorUsername = ev.Author.Username
		in.AuthorDisplayName = ev.Author.DisplayName
		in.MessageID = ev.MessageID
		in.MessageLink = ev.MessageLink

		rec, err := a.Ingest.Ingest(c.Request.Context(), in)
		if err != nil {
			if errors.Is(err, service.ErrDuplicate) {
				outcomes = append(outcomes, ingestOutcome{URL: in.URL, Status: "duplicate"})
				continue
			}

			zap.L().Error("Failed to ingest item",
				zap.String("url", in.URL), zap.Error(err))

			outcomes = append(outcomes, ingestOutcome{URL: in.URL, Status: "failed"})
			continue
		}

		outcomes = append(outcomes, ingestOutcome{
			URL:      in.URL,
			Filename: rec.Filename,
			Status:   "saved",
		})
	}

	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}
