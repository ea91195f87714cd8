package cli

import (
	"database/sql"
	"fmt"
	"math/rand/v2"

	"ubilern/internal/config"
	"ubilern/internal/db"
	"ubilern/internal/logging"
	"ubilern/internal/services"
)

// app holds the services shared by all commands.
type app struct {
	cfg       config.Config
	logger    *logging.Logger
	conn      *sql.DB
	questions *services.QuestionService
	ingestion *services.IngestionService
	ai        *services.AIService
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogDir, cfg.LogLevel, cfg.MaxLogFiles)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	conn, err := db.Open(cfg.Database, logger)
	if err != nil {
		logger.Error("open database failed", "path", cfg.Database, "error", err)
		logger.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("database ready", "path", cfg.Database)

	questions := services.NewQuestionService(conn)
	return &app{
		cfg:       cfg,
		logger:    logger,
		conn:      conn,
		questions: questions,
		ingestion: services.NewIngestionService(services.NewPDFService(), questions, logger),
		ai:        services.NewAIService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIEndpoint),
	}, nil
}

func (a *app) Close() {
	if err := a.conn.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
	a.logger.Close()
}

// newRNG seeds the quiz generator. Seed 0 draws a fresh seed.
func newRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}
