package main

import (
	"context"

	"github.com/joho/godotenv"

	"noticeboard/internal/app"
	"noticeboard/pkg/config"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/shutdown"
)

// build metadata, set via ldflags during release builds
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	flags := config.ParseFlags()

	eff, err := config.LoadEffective(flags)
	if err != nil {
		logger.Init("")
		shutdown.Abort("failed to load config", err, flags.DB)
	}

	logger.Init(eff.Config.Logging.Level)

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, eff.DBPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, eff.DBPath)
	}
}
