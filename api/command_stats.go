package api

import (
	"errors"
	"net/http"
	"time"

	"bitwise74/gallery-bot/internal/model"
	"bitwise74/gallery-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const leaderboardSize = 10

// CommandStats serves the stats subcommands through the view query
// parameter: personal, rankings, leaderboard, weekly, server, and the
// admin-only migrate and refresh.
func (a *API) CommandStats(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	switch c.DefaultQuery("view", "personal") {
	case "personal":
		a.statsPersonal(c, requestID)
	case "rankings":
		a.statsRankings(c, requestID)
	case "leaderboard":
		a.statsLeaderboard(c, requestID)
	case "weekly":
		a.statsWeekly(c, requestID)
	case "server":
		a.statsServer(c, requestID)
	case "migrate":
		a.statsMigrate(c, requestID)
	case "refresh":
		a.statsRefresh(c, requestID)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Unknown stats view",
			"requestID": requestID,
		})
	}
}

func (a *API) statsPersonal(c *gin.Context, requestID string) {
	userID := c.Query("user")
	if userID == "" {
		userID = c.MustGet("userID").(string)
	}

	s, err := a.Stats.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "User has no stats yet",
				"requestID": requestID,
			})
			return
		}

		a.statsError(c, requestID, "Failed to load user stats", err)
		return
	}

	server, err := a.Stats.GetServerStats(c.Request.Context())
	if err != nil {
		a.statsError(c, requestID, "Failed to load server stats", err)
		return
	}

	var daysSinceFirst int64
	if s.FirstUpload > 0 {
		daysSinceFirst = (time.Now().UnixMilli() - s.FirstUpload) / (24 * time.Hour.Milliseconds())
	}

	topType := ""
	var topCount int64
	for label, n := range s.ContentTypes {
		if n > topCount {
			topType, topCount = label, n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":          s,
		"frequency":      service.Frequency(s),
		"daysSinceFirst": daysSinceFirst,
		"topContentType": topType,
		"serverAverage":  server.AvgImagesPerUser,
	})
}

func (a *API) statsRankings(c *gin.Context, requestID string) {
	userID := c.Query("user")
	if userID == "" {
		userID = c.MustGet("userID").(string)
	}

	ctx := c.Request.Context()

	uploads, err := a.Ranker.Rank(ctx, userID, "uploadCount")
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "User has no stats yet",
				"requestID": requestID,
			})
			return
		}

		a.statsError(c, requestID, "Failed to compute upload rank", err)
		return
	}

	size, err := a.Ranker.Rank(ctx, userID, "totalSize")
	if err != nil {
		a.statsError(c, requestID, "Failed to compute size rank", err)
		return
	}

	freq, err := a.Ranker.FrequencyRank(ctx, userID)
	if err != nil {
		a.statsError(c, requestID, "Failed to compute frequency rank", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploads":   uploads,
		"totalSize": size,
		"frequency": freq,
	})
}

func (a *API) statsLeaderboard(c *gin.Context, requestID string) {
	field := c.DefaultQuery("field", "uploadCount")

	users, err := a.Ranker.TopUsers(c.Request.Context(), field, leaderboardSize)
	if err != nil {
		a.statsError(c, requestID, "Failed to load leaderboard", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"field": field, "users": users})
}

func (a *API) statsWeekly(c *gin.Context, requestID string) {
	weekID := c.Query("week")
	if weekID == "" {
		weekID = service.WeekID(time.Now().UTC())
	}

	if _, _, err := service.WeekBounds(weekID); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid week ID",
			"requestID": requestID,
		})
		return
	}

	w, err := a.Stats.GetWeeklyStats(c.Request.Context(), weekID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusOK, &model.WeeklyStats{
				WeekID:  weekID,
				PerUser: model.WeeklyUserMap{},
			})
			return
		}

		a.statsError(c, requestID, "Failed to load weekly stats", err)
		return
	}

	c.JSON(http.StatusOK, w)
}

func (a *API) statsServer(c *gin.Context, requestID string) {
	s, err := a.Stats.GetServerStats(c.Request.Context())
	if err != nil {
		a.statsError(c, requestID, "Failed to load server stats", err)
		return
	}

	c.JSON(http.StatusOK, s)
}

func (a *API) statsMigrate(c *gin.Context, requestID string) {
	if !c.GetBool("isAdmin") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "Admin only",
			"requestID": requestID,
		})
		return
	}

	ctx := c.Request.Context()

	before, err := a.Migrator.Status(ctx)
	if err != nil {
		a.statsError(c, requestID, "Failed to check migration status", err)
		return
	}

	if err := a.Migrator.RunSafely(ctx); err != nil {
		a.statsError(c, requestID, "Migration failed", err)
		return
	}

	after, err := a.Migrator.Status(ctx)
	if err != nil {
		a.statsError(c, requestID, "Failed to check migration status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alreadyRun": before.HasRun,
		"status":     after,
	})
}

func (a *API) statsRefresh(c *gin.Context, requestID string) {
	if !c.GetBool("isAdmin") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "Admin only",
			"requestID": requestID,
		})
		return
	}

	s, err := a.Stats.RecomputeServerStats(c.Request.Context())
	if err != nil {
		a.statsError(c, requestID, "Failed to recompute server stats", err)
		return
	}

	c.JSON(http.StatusOK, s)
}

func (a *API) statsError(c *gin.Context, requestID, msg string, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestID": requestID,
	})

	zap.L().Error(msg, zap.Error(err))
}
