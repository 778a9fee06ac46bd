package main

import (
	"context"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/binaryblitz/binaryblitz-backend/internal/config"
	"github.com/binaryblitz/binaryblitz-backend/internal/engine"
	"github.com/binaryblitz/binaryblitz-backend/internal/httpapi"
	"github.com/binaryblitz/binaryblitz-backend/internal/session"
	"github.com/binaryblitz/binaryblitz-backend/internal/store"
)

func main() {
	// Hosted deployments set real env vars; locally a .env file fills in.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.FromEnv()

	rules := engine.DefaultRules()
	rules.Capacity = cfg.MaxUsers
	rules.RoundDurationSec = cfg.RoundDurationSec

	// Persistence is optional and dials in the background; gameplay never
	// waits on it.
	var saver session.ScoreSaver
	if cfg.DatabaseURL != "" {
		saver = store.New(cfg.DatabaseURL, logger)
	}

	sess := session.New(context.Background(), session.Params{
		Rules:       rules,
		AdminSecret: cfg.AdminSecret,
		Saver:       saver,
		Logger:      logger,
	})

	handler := httpapi.SetupRoutes(sess, cfg, logger)

	logger.Info("listening",
		zap.String("port", cfg.Port),
		zap.Int("max_users", cfg.MaxUsers),
		zap.Bool("open_admin", cfg.AdminSecret == ""),
		zap.Bool("persistence", saver != nil))

	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
