package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/kidooo/analysis-service/internal/analysis/store"
	"github.com/kidooo/analysis-service/internal/api/handler"
	"github.com/kidooo/analysis-service/internal/api/router"
	"github.com/kidooo/analysis-service/internal/child"
	"github.com/kidooo/analysis-service/internal/config"
	"github.com/kidooo/analysis-service/internal/gemini"
	"github.com/kidooo/analysis-service/internal/pipeline"
	"github.com/kidooo/analysis-service/internal/screening"
	"github.com/kidooo/analysis-service/internal/transcode"
	"github.com/kidooo/analysis-service/shared/logger"
	"github.com/kidooo/analysis-service/shared/postgresql"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting analysis service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	if err := os.MkdirAll(cfg.Store.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}

	// Initialize stores
	jobStore, dbClient, err := initJobStore(cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize job store: %w", err)
	}
	if dbClient != nil {
		defer dbClient.Close()
	}

	screenings, err := screening.NewStore(filepath.Join(cfg.Store.DataDir, "screenings.json"))
	if err != nil {
		return fmt.Errorf("failed to initialize screening store: %w", err)
	}
	children, err := child.NewStore(filepath.Join(cfg.Store.DataDir, "children.json"))
	if err != nil {
		return fmt.Errorf("failed to initialize child store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize inference backend. A missing API key degrades to a server
	// that rejects new submissions instead of refusing to start.
	analyzer, inferenceReady := initAnalyzer(ctx, cfg, appLogger.Logger)
	if !inferenceReady {
		appLogger.Warn("GEMINI_API_KEY is not set; uploads will be rejected until it is configured")
	}

	transcoder := transcode.New(transcode.Config{
		FFmpegPath:          cfg.Transcode.FFmpegPath,
		FFprobePath:         cfg.Transcode.FFprobePath,
		MaxSizeMB:           float64(cfg.Transcode.MaxSizeMB),
		TargetSizeMB:        float64(cfg.Transcode.TargetSizeMB),
		AudioBitrateKbps:    cfg.Transcode.AudioBitrateKbps,
		MinVideoBitrateKbps: cfg.Transcode.MinVideoBitrateKbps,
		Preset:              cfg.Transcode.Preset,
	}, appLogger.Logger)

	runner := pipeline.NewRunner(jobStore, transcoder, analyzer, screenings, pipeline.Config{
		Concurrency: cfg.Pipeline.Concurrency,
		QueueSize:   cfg.Pipeline.QueueSize,
		JobTimeout:  cfg.Pipeline.JobTimeout,
	}, appLogger.Logger)
	runner.Start(ctx)

	// Initialize router
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.SetupRouter(&handler.Dependencies{
		Logger:         appLogger.Logger,
		Store:          jobStore,
		Runner:         runner,
		Screenings:     screenings,
		Children:       children,
		UploadsDir:     cfg.Store.UploadsDir,
		InferenceReady: inferenceReady,
		MaxVideoBytes:  cfg.Server.MaxVideoMB * 1024 * 1024,
		MaxReportBytes: cfg.Server.MaxReportMB * 1024 * 1024,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	appLogger.Info("Analysis service is running", slog.String("address", addr))

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
		return err
	}

	// Let in-flight jobs finish writing their terminal state.
	runner.Stop()

	appLogger.Info("Server shutdown complete")
	return nil
}

// initJobStore builds the job store for the configured driver. The returned
// client is non-nil only for the postgres driver.
func initJobStore(cfg *config.Config, log *slog.Logger) (store.Store, *postgresql.Client, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		client, err := postgresql.NewClient(&postgresql.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgresStore(client.GetDB(), log), client, nil

	default:
		s, err := store.NewFileStore(filepath.Join(cfg.Store.DataDir, "jobs.json"), log)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}
}

// initAnalyzer wires the Gemini backend when an API key is present.
func initAnalyzer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gemini.Analyzer, bool) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, false
	}

	backend, err := gemini.NewGenaiBackend(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		log.Error("Failed to initialize inference backend", slog.Any("error", err))
		return nil, false
	}

	return gemini.NewAnalyzer(backend, gemini.Config{
		Model:           cfg.Gemini.Model,
		PollInterval:    cfg.Gemini.PollInterval,
		MaxPollDuration: cfg.Gemini.MaxPollDuration,
		ProgressEvery:   cfg.Gemini.ProgressEvery,
	}, log), true
}
