// main package for the export-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/clipforge/export-service/internal/artifactstore"
	"github.com/clipforge/export-service/internal/config"
	"github.com/clipforge/export-service/internal/fetch"
	"github.com/clipforge/export-service/internal/gateway"
	"github.com/clipforge/export-service/internal/imagegen"
	"github.com/clipforge/export-service/internal/narration"
	"github.com/clipforge/export-service/internal/pipeline"
	"github.com/clipforge/export-service/internal/worker"
)

const (
	defaultProviderTimeout = 120 * time.Second
	defaultFetchTimeout    = 60 * time.Second
	shutdownTimeout        = 10 * time.Second
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "export-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	// 2. Load and validate configuration before touching any provider
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		bootstrapLog.Error("Invalid configuration: %v", err)

		return fmt.Errorf("invalid configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration
	log, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, log)
}

func serve(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := artifactstore.New(
		jetstreamContext,
		cfg.NATS.ExportObjectStoreBucket,
		cfg.Gateway.PublicBaseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	orchestrator := pipeline.New(
		narration.New(
			cfg.Narration.BaseURL,
			cfg.Narration.APIKey,
			timeoutOrDefault(cfg.Narration.TimeoutSeconds, defaultProviderTimeout),
			narration.Options{
				ModelID:    cfg.Narration.ModelID,
				Stability:  cfg.Narration.Stability,
				Similarity: cfg.Narration.Similarity,
			},
		),
		imagegen.New(
			cfg.Image.BaseURL,
			cfg.Image.APIKey,
			timeoutOrDefault(cfg.Image.TimeoutSeconds, defaultProviderTimeout),
			imagegen.Options{
				Size:    cfg.Image.Size,
				Quality: cfg.Image.Quality,
			},
		),
		fetch.New(timeoutOrDefault(cfg.Pipeline.FetchTimeoutSeconds, defaultFetchTimeout)),
		store,
		pipeline.Config{
			MaxConcurrentScenes: cfg.Pipeline.MaxConcurrentScenes,
			MaxAttempts:         cfg.Pipeline.MaxAttempts,
			RetryBaseDelay:      time.Duration(cfg.Pipeline.RetryBaseDelayMS) * time.Millisecond,
		},
		log,
	)

	exportWorker := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.ExportRequestedSubject,
		cfg.NATS.ExportCompletedSubject,
		orchestrator,
		timeoutOrDefault(cfg.Pipeline.JobTimeoutSeconds, 0),
		log,
	)

	gatewayServer := gateway.New(store, cfg.NATS.ExportObjectStoreBucket, log)

	gatewayErrChan := make(chan error, 1)

	go func() {
		gatewayErrChan <- gatewayServer.Start(cfg.Gateway.ListenAddress)
	}()

	log.System("Export service listening for jobs on subject: %s", cfg.NATS.ExportRequestedSubject)
	log.System("Artifact gateway serving bucket %s on %s",
		cfg.NATS.ExportObjectStoreBucket, cfg.Gateway.ListenAddress)

	workerErrChan := make(chan error, 1)

	go func() {
		workerErrChan <- exportWorker.Run(ctx)
	}()

	var runErr error

	select {
	case runErr = <-gatewayErrChan:
	case runErr = <-workerErrChan:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := gatewayServer.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		log.Error("Gateway shutdown failed: %v", shutdownErr)
	}

	if runErr != nil {
		return fmt.Errorf("service stopped: %w", runErr)
	}

	return nil
}

func timeoutOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}

	return time.Duration(seconds) * time.Second
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
