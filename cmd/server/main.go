package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/config"
	"github.com/cm-fl-mit/interaction-assess/internal/repository"
	"github.com/cm-fl-mit/interaction-assess/internal/server"
	"github.com/cm-fl-mit/interaction-assess/internal/service"
	"github.com/cm-fl-mit/interaction-assess/internal/sheets"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting annotation backend...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	var db *sqlx.DB
	switch cfg.Database.Type {
	case "postgres":
		db, err = repository.NewPostgresDB(cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		repository.MigrateDB(db, logger)
	default:
		os.MkdirAll("./data", 0755)
		db, err = repository.NewSQLiteDB(cfg.Database.Path, logger)
		if err != nil {
			logger.Fatal("Failed to open database", zap.Error(err))
		}
	}
	defer db.Close()

	// The sheets mirror is optional; the service runs without it
	var mirror service.AnnotationSink
	if cfg.Sheets.Enabled {
		m, err := sheets.NewMirror(context.Background(), sheets.Config{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			WriteRange:      cfg.Sheets.WriteRange,
		}, logger)
		if err != nil {
			logger.Warn("Failed to initialize sheets mirror, continuing without it", zap.Error(err))
		} else {
			mirror = m
		}
	}

	srv := server.NewServer(db, cfg, mirror, logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Annotation backend is running",
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Type),
		zap.Int("batch_size", cfg.Assignment.BatchSize))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
