package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"worklane/internal/config"
	"worklane/internal/email/noop"
	"worklane/internal/email/ses"
	"worklane/internal/extractor"
	_ "worklane/internal/extractor/claude"
	_ "worklane/internal/extractor/openai"
	"worklane/internal/handler"
	"worklane/internal/port"
	"worklane/internal/repository/postgres"
	"worklane/internal/router"
	"worklane/internal/service"
	s3storage "worklane/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	proposalRepo := postgres.NewProposalRepo(db)
	fileRepo := postgres.NewFileMetaRepo(db)
	snapshotRepo := postgres.NewTaskSnapshotRepo(db)
	historyRepo := postgres.NewRefinementHistoryRepo(db)

	// Initialize storage
	objectStore, err := s3storage.NewObjectStore(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	// Initialize extraction providers
	taskExtractor, err := buildExtractor(&cfg.Extractor)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	// Initialize email sender
	emailSender, err := buildEmailSender(&cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}

	// Initialize services
	proposalSvc := service.NewProposalService(
		proposalRepo, fileRepo, snapshotRepo, historyRepo,
		taskExtractor, objectStore, emailSender,
		cfg.S3, cfg.Merge,
	)

	// Initialize handlers
	proposalH := handler.NewProposalHandler(proposalSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, proposalH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the extraction queue worker alongside the HTTP server.
	worker := service.NewExtractQueueWorker(proposalRepo, proposalSvc, service.ExtractQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		serverErr <- r.Run(cfg.Server.Port)
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Printf("Shutdown signal received")
		<-workerDone
		return nil
	}
}

func buildExtractor(cfg *config.ExtractorConfig) (port.TaskExtractor, error) {
	primary, err := extractor.New(cfg.Primary)
	if err != nil {
		return nil, err
	}

	fallbackCfg := cfg.FallbackConfig()
	if fallbackCfg == nil {
		return primary, nil
	}

	fallback, err := extractor.New(*fallbackCfg)
	if err != nil {
		return nil, err
	}

	return extractor.NewFallbackExtractor(
		map[string]port.TaskExtractor{
			cfg.Primary.Provider: primary,
			fallbackCfg.Provider: fallback,
		},
		[]string{cfg.Primary.Provider, fallbackCfg.Provider},
	)
}

func buildEmailSender(cfg *config.EmailConfig) (port.EmailSender, error) {
	if cfg.Provider == "ses" {
		return ses.NewSESSender(cfg.Region, cfg.FromAddress, cfg.FromName, cfg.FrontendURL)
	}
	return noop.NewNoopSender(cfg.FrontendURL), nil
}
