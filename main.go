package main

import (
	"context"

	"bitwise74/gallery-bot/api"
	"bitwise74/gallery-bot/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	a, err := api.NewRouter()
	if err != nil {
		panic(err)
	}

	if *config.MigrateStats {
		zap.L().Info("Running one-time stats backfill")

		if err := a.Migrator.RunSafely(context.Background()); err != nil {
			panic(err)
		}

		zap.L().Info("Backfill done")
		return
	}

	zap.L().Info("Server starting")

	err = a.Router.Run(":" + viper.GetString("host.port"))
	if err != nil {
		panic(err)
	}
}
