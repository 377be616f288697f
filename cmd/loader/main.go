package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/config"
	"github.com/cm-fl-mit/interaction-assess/internal/models"
	"github.com/cm-fl-mit/interaction-assess/internal/repository"
)

// The loader replaces the whole slice catalog and clears all assignments and
// annotations. It is a separate binary so the running server can never reach
// this reset path.
func main() {
	var (
		cfgPath  = flag.String("config", "configs/config.yml", "path to config file")
		filePath = flag.String("file", "", "path to the slice catalog JSON file")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *filePath == "" {
		logger.Fatal("A catalog file is required (-file)")
	}

	cfg, err := config.LoadConfig(*cfgPath)
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

	data, err := os.ReadFile(*filePath)
	if err != nil {
		logger.Fatal("Failed to read catalog file", zap.String("file", *filePath), zap.Error(err))
	}

	var slices []models.Slice
	if err := json.Unmarshal(data, &slices); err != nil {
		logger.Fatal("Failed to parse catalog file", zap.Error(err))
	}

	seen := make(map[string]bool, len(slices))
	for _, s := range slices {
		if s.ID == "" {
			logger.Fatal("Catalog contains a slice without an id")
		}
		if seen[s.ID] {
			logger.Fatal("Catalog contains a duplicate slice id", zap.String("id", s.ID))
		}
		seen[s.ID] = true
	}

	repo := repository.NewSliceRepository(db, logger)
	if err := repo.BulkReplace(context.Background(), slices); err != nil {
		logger.Fatal("Failed to replace catalog", zap.Error(err))
	}

	logger.Info("Catalog loaded", zap.Int("slices", len(slices)))
}
