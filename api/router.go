// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"bitwise74/gallery-bot/db"
	"bitwise74/gallery-bot/internal/service"
	"bitwise74/gallery-bot/internal/storage"
	"bitwise74/gallery-bot/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Store    storage.Backend
	Ingest   *service.Ingestor
	Stats    *service.Aggregator
	Ranker   *service.Ranker
	Tagger   *service.Tagger
	Migrator *service.Migrator
	Collage  *service.CollageBuilder
}

func NewRouter() (*API, error) {
	a := &API{}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
	}
	a.DB = db

	makeLogger()

	switch viper.GetString("storage.type") {
	case "s3":
		a.Store, err = storage.NewS3()
	default:
		a.Store, err = storage.NewLocal(viper.GetString("storage.path"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend, %w", err)
	}

	a.Stats = service.NewAggregator(db, time.Duration(viper.GetInt("stats.recompute_delay_ms"))*time.Millisecond)
	a.Ingest = &service.Ingestor{
		DB:    db,
		Store: a.Store,
		Stats: a.Stats,
		Downloader: service.NewDownloader(
			viper.GetInt("download.retries"),
			time.Duration(viper.GetInt("download.backoff_ms"))*time.Millisecond,
			time.Duration(viper.GetInt("download.timeout_s"))*time.Second,
		),
	}
	a.Ranker = &service.Ranker{Stats: a.Stats}
	a.Tagger = service.NewTagger(db, viper.GetString("gallery.emoji"))
	a.Migrator = &service.Migrator{DB: db, Stats: a.Stats}
	a.Collage = &service.CollageBuilder{Store: a.Store}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware()
	rateLimit := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 10,
		Burst:             20,
	})

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	events := main.Group("/events", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/events/message		-> Archives media from a new gallery message
		events.POST("/message", a.EventMessage)

		// POST /api/events/reaction/add	-> Applies tags when the watched emoji lands
		events.POST("/reaction/add", a.EventReactionAdd)

		// POST /api/events/reaction/remove	-> Strips tags when the last watched emoji leaves
		events.POST("/reaction/remove", a.EventReactionRemove)

		// POST /api/events/posted		-> Records which media a bot reply showed
		events.POST("/posted", a.EventPosted)
	}

	commands := main.Group("/commands", jwt, rateLimit)
	{
		// GET /api/commands/count	-> Returns the number of archived items
		commands.GET("/count", cacheFor(30), a.CommandCount)

		// GET /api/commands/random	-> Returns a random archived item
		commands.GET("/random", a.CommandRandom)

		// GET /api/commands/react	-> Returns a random react-tagged item
		commands.GET("/react", a.CommandReact)

		// GET /api/commands/collage	-> Renders a 3x3 collage of a user's images
		commands.GET("/collage", a.CommandCollage)

		// GET /api/commands/stats	-> Serves the stats subcommands
		commands.GET("/stats", a.CommandStats)

		// POST /api/commands/delete	-> Deletes archived media by reply target
		commands.POST("/delete", a.CommandDelete)

		// POST /api/commands/untag	-> Removes the tag behind a bot reply
		commands.POST("/untag", a.CommandUntag)
	}

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
