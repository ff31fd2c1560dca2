package api

import (
	"net/http"
	"testing"

	"bitwise74/gallery-bot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMessageArchivesAttachment(t *testing.T) {
	a := newTestAPI(t)
	srv := serveFile(t, []byte("png-bytes"), "image/png")

	w := sendMessageEvent(t, a, srv.URL, testChannelID, "cat.png")
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	outcomes := out["outcomes"].([]any)
	require.Len(t, outcomes, 1)

	first := outcomes[0].(map[string]any)
	assert.Equal(t, "saved", first["status"])
	assert.Equal(t, "cat.png", first["filename"])

	s, err := a.Stats.GetUserStats(t.Context(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.UploadCount)
}

func TestEventMessageIgnoresOtherChannels(t *testing.T) {
	a := newTestAPI(t)
	srv := serveFile(t, []byte("png-bytes"), "image/png")

	w := sendMessageEvent(t, a, srv.URL, "some-other-channel", "cat.png")
	require.Equal(t, http.StatusOK, w.Code)

	n, err := service.CountMedia(t.Context(), a.DB)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEventMessageIgnoresBots(t *testing.T) {
	a := newTestAPI(t)
	srv := serveFile(t, []byte("png-bytes"), "image/png")

	w := doJSON(t, a, http.MethodPost, "/api/events/message", gin.H{
		"messageId": "msg1",
		"channelId": testChannelID,
		"author":    gin.H{"id": "bot1", "bot": true},
		"attachments": []gin.H{
			{"url": srv.URL + "/cat.png", "filename": "cat.png", "contentType": "image/png"},
		},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	n, err := service.CountMedia(t.Context(), a.DB)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEventMessageArchivesLinks(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(t, a, http.MethodPost, "/api/events/message", gin.H{
		"messageId": "msg1",
		"channelId": testChannelID,
		"author":    gin.H{"id": "u1"},
		"content":   "check https://tenor.com/view/funny-cat-12345",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	outcomes := out["outcomes"].([]any)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "saved", outcomes[0].(map[string]any)["status"])

	// The same share again is a duplicate
	w = doJSON(t, a, http.MethodPost, "/api/events/message", gin.H{
		"messageId": "msg2",
		"channelId": testChannelID,
		"author":    gin.H{"id": "u1"},
		"content":   "again https://tenor.com/view/funny-cat-12345",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	out = decode(t, w)
	outcomes = out["outcomes"].([]any)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "duplicate", outcomes[0].(map[string]any)["status"])
}

func TestEventMessageSkipsUnsupportedAttachments(t *testing.T) {
	a := newTestAPI(t)
	srv := serveFile(t, []byte("exe-bytes"), "application/x-executable")

	w := doJSON(t, a, http.MethodPost, "/api/events/message", gin.H{
		"messageId": "msg1",
		"channelId": testChannelID,
		"author":    gin.H{"id": "u1"},
		"attachments": []gin.H{
			{"url": srv.URL + "/setup.exe", "filename": "setup.exe", "contentType": "application/x-executable"},
		},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Empty(t, out["outcomes"])
}
