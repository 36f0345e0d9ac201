package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"NovaTalkAPI/internal/adapter"
	"NovaTalkAPI/internal/bootstrap"
	"NovaTalkAPI/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadAppConfig()

	db := config.InitGorm(cfg)

	s3Client := config.NewS3Client(cfg)
	if s3Client == nil {
		slog.Warn("S3 client unavailable, attachment and avatar uploads will fail")
	}

	redisAdapter, err := adapter.NewRedisAdapter(cfg)
	if err != nil {
		slog.Warn("Redis unavailable, presence cache disabled", "error", err)
		redisAdapter = nil
	}

	validate := config.NewValidator()
	chiMux := config.NewChi(cfg)

	bootstrap.Init(cfg, db, validate, s3Client, redisAdapter, chiMux)

	addr := fmt.Sprintf(":%s", cfg.AppPort)
	slog.Info("Starting NovaTalkAPI", "port", cfg.AppPort)

	if err := http.ListenAndServe(addr, chiMux); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
