package main

import (
	"taller-backend/internal/config"
	"taller-backend/internal/database"
	"taller-backend/internal/logger"
	"taller-backend/internal/numbering"
	"taller-backend/internal/server"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg)

	database.Init(cfg)
	database.InitRedis(cfg)
	numbering.SetDefault(numbering.NewAllocator(database.Redis))

	app := server.New(cfg)

	logger.Get().WithField("port", cfg.HTTPPort).Info("Servidor escuchando")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Get().Fatal(err)
	}
}
