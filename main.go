package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anigil002/trackerupdates/internal/api"
	"github.com/anigil002/trackerupdates/internal/config"
	"github.com/anigil002/trackerupdates/internal/directory"
	"github.com/anigil002/trackerupdates/internal/engine"
	"github.com/anigil002/trackerupdates/internal/llm"
	"github.com/anigil002/trackerupdates/internal/mailbox"
	"github.com/anigil002/trackerupdates/internal/secrets"
	"github.com/anigil002/trackerupdates/internal/tracker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := run(cfg, logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	box, err := secrets.Open(filepath.Join(cfg.DataDir, ".encryption_key"))
	if err != nil {
		return err
	}
	people, err := directory.Open(filepath.Join(cfg.DataDir, "recruitment.db"), box)
	if err != nil {
		return err
	}
	defer people.Close()

	trackers, err := tracker.Open(cfg.DataDir, logger)
	if err != nil {
		return err
	}

	model := llm.NewClient(cfg.ModelName, logger)
	if key, err := people.GetConfig("ai_api_key", true); err != nil {
		logger.Warn("could not load stored API key", "error", err)
	} else if key != "" {
		if err := model.Initialize(ctx, key); err != nil {
			logger.Warn("stored API key rejected", "error", err)
		}
	}

	eng := engine.NewEngine(model, trackers, people, logger)

	// The mailbox source is optional: without Gmail credentials the
	// service still serves the trackers and the command interpreter.
	var source mailbox.Source
	if gmail, err := mailbox.NewGmailSource(ctx, cfg.GmailCredentials, cfg.GmailToken, logger); err != nil {
		logger.Warn("gmail source unavailable", "error", err)
	} else {
		source = gmail
	}
	monitor := mailbox.NewMonitor(source, eng, cfg.PollInterval, logger)
	defer monitor.Stop()

	server := api.NewServer(trackers, people, model, eng, monitor, logger)
	logger.Info("listening", "port", cfg.Port)
	return server.Router().Run(":" + cfg.Port)
}
