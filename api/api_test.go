package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitwise74/gallery-bot/internal/model"
	"bitwise74/gallery-bot/internal/service"
	"bitwise74/gallery-bot/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testChannelID = "chan1"

// newTestAPI wires the full stack against an in-memory database and a
// throwaway storage directory. Auth middleware is replaced with a stub
// that trusts the X-Test-User and X-Test-Admin headers.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	gin.SetMode(gin.TestMode)

	viper.Set("gallery.channel_id", testChannelID)
	viper.Set("gallery.emoji", "⚡")
	viper.Set("gallery.extensions", []string{"png", "jpg", "jpeg", "gif", "webp"})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Media{},
		&model.UserStats{},
		&model.WeeklyStats{},
		&model.ServerStats{},
		&model.Watermark{},
		&model.CommandPost{},
	)
	require.NoError(t, err)

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	stats := service.NewAggregator(db, time.Hour)
	stats.Recompute = service.NewSyncRecomputer(func() {
		if _, err := stats.RecomputeServerStats(context.Background()); err != nil {
			t.Errorf("recompute failed: %v", err)
		}
	})

	a := &API{
		DB:    db,
		Store: store,
		Stats: stats,
		Ingest: &service.Ingestor{
			DB:         db,
			Store:      store,
			Stats:      stats,
			Downloader: service.NewDownloader(3, time.Millisecond, time.Second),
		},
		Ranker:   &service.Ranker{Stats: stats},
		Tagger:   service.NewTagger(db, "⚡"),
		Migrator: &service.Migrator{DB: db, Stats: stats},
	}
	a.Collage = &service.CollageBuilder{Store: store}

	router := gin.New()
	a.Router = router

	router.Use(func(c *gin.Context) {
		c.Set("requestID", "test")

		user := c.GetHeader("X-Test-User")
		if user == "" {
			user = "u1"
		}
		c.Set("userID", user)

		if c.GetHeader("X-Test-Admin") == "1" {
			c.Set("isAdmin", true)
		}

		c.Next()
	})

	main := router.Group("/api")
	main.HEAD("/heartbeat", a.Heartbeat)

	events := main.Group("/events")
	events.POST("/message", a.EventMessage)
	events.POST("/reaction/add", a.EventReactionAdd)
	events.POST("/reaction/remove", a.EventReactionRemove)
	events.POST("/posted", a.EventPosted)

	commands := main.Group("/commands")
	commands.GET("/count", a.CommandCount)
	commands.GET("/random", a.CommandRandom)
	commands.GET("/react", a.CommandReact)
	commands.GET("/collage", a.CommandCollage)
	commands.GET("/stats", a.CommandStats)
	commands.POST("/delete", a.CommandDelete)
	commands.POST("/untag", a.CommandUntag)

	return a
}

func doJSON(t *testing.T, a *API, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))

	return out
}

// sendMessageEvent posts a message event with a single attachment
// pointing at srvURL
func sendMessageEvent(t *testing.T, a *API, srvURL, channelID, filename string) *httptest.ResponseRecorder {
	t.Helper()

	return doJSON(t, a, http.MethodPost, "/api/events/message", gin.H{
		"messageId": "msg1",
		"channelId": channelID,
		"author":    gin.H{"id": "u1", "username": "alice"},
		"attachments": []gin.H{
			{"url": srvURL + "/" + filename, "filename": filename, "contentType": "image/png"},
		},
	}, nil)
}

func serveFile(t *testing.T, body []byte, contentType string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv
}
