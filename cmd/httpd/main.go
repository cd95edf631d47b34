// Command httpd runs the casenote classifier HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/clindocs/casenote-classifier/internal/api"
	"github.com/clindocs/casenote-classifier/internal/config"
	"github.com/clindocs/casenote-classifier/internal/configload"
	"github.com/clindocs/casenote-classifier/internal/database"
	"github.com/clindocs/casenote-classifier/internal/dictionary"
	"github.com/clindocs/casenote-classifier/internal/logger"
	"github.com/clindocs/casenote-classifier/internal/logging"
	"github.com/clindocs/casenote-classifier/internal/processor"
	"github.com/clindocs/casenote-classifier/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "casenote-classifier: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.Must(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	defer func() { _ = log.Sync() }()

	log.Info("Starting casenote classifier",
		logger.String("service", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	reg, err := dictionary.LoadFrom(cfg.Categorizer.DictionaryDir)
	if err != nil {
		return fmt.Errorf("loading dictionaries: %w", err)
	}
	log.Info("Dictionaries loaded",
		logger.Int("domains", len(reg.Domains())),
		logger.Any("summary", reg.Describe()),
	)

	tel := telemetry.NewProvider()
	adapter := logging.NewAdapter(log)

	pipeline, err := processor.NewPipeline(reg, cfg.Categorizer, tel, adapter)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	batch := processor.NewRateLimitedProcessor(
		processor.NewBatchProcessor(pipeline, cfg.Service.Concurrency, adapter),
		cfg.Service.RatePerSecond,
		cfg.Service.RateBurst,
		tel,
		adapter,
	)

	history, closeDB, err := openHistory(cfg, log)
	if err != nil {
		return err
	}
	if closeDB != nil {
		defer closeDB()
	}

	handler := api.NewHandler(pipeline, batch, reg, history, cfg.History, adapter)

	server := api.NewServer(api.ServerConfig{
		ServiceName:     cfg.Service.Name,
		ServiceVersion:  cfg.Service.Version,
		Port:            cfg.Service.Port,
		Debug:           cfg.Service.Debug,
		ShutdownTimeout: cfg.Service.ShutdownTimeout,
	}, log, func(router *gin.Engine) {
		api.SetupRoutes(router, handler, tel.Handler())
	})

	return server.RunWithGracefulShutdown(context.Background())
}

// loadConfig reads the YAML config named by CONFIG_PATH, falling back to
// built-in defaults when no file is present.
func loadConfig() (*config.Config, error) {
	path := configload.GetConfigPath("config.yml")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openHistory connects the match-history database when history is
// enabled. The returned close func is nil when history is off.
func openHistory(cfg *config.Config, log logger.Logger) (*database.HistoryRepository, func(), error) {
	if !cfg.History.Enabled {
		log.Info("Match history disabled")
		return nil, nil, nil
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting history database: %w", err)
	}

	repo := database.NewHistoryRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("preparing history schema: %w", err)
	}

	log.Info("Match history enabled",
		logger.String("driver", cfg.Database.Driver),
	)
	return repo, func() { _ = db.Close() }, nil
}
