package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlas-learn/atlasai/internal/api/handlers"
	"github.com/atlas-learn/atlasai/internal/config"
	"github.com/atlas-learn/atlasai/internal/database"
	"github.com/atlas-learn/atlasai/internal/extract"
	"github.com/atlas-learn/atlasai/internal/jobs"
	"github.com/atlas-learn/atlasai/internal/llm"
	"github.com/atlas-learn/atlasai/internal/repository"
	"github.com/atlas-learn/atlasai/internal/server"
	"github.com/atlas-learn/atlasai/internal/service"
	"github.com/atlas-learn/atlasai/internal/storage"
	"github.com/atlas-learn/atlasai/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

const (
	transcriptCacheTTL     = 1 * time.Hour
	transcriptCacheEntries = 512
	cacheSweepInterval     = 5 * time.Minute
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the atlas API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasGroq() {
		return fmt.Errorf("ATLAS_GROQ_API_KEY is required: content generation cannot run without it")
	}
	if !cfg.HasGemini() {
		return fmt.Errorf("ATLAS_GEMINI_API_KEY is required: chunk embedding cannot run without it")
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewDocumentChunkRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	chatRepo := repository.NewChatMessageRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	groqClient := llm.NewGroqClient(llm.GroqConfig{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
	})
	generatorSvc := service.NewGeneratorService(groqClient)

	geminiEmbedder, err := llm.NewGeminiEmbedder(ctx, llm.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		return fmt.Errorf("failed to create gemini embedder: %w", err)
	}
	defer geminiEmbedder.Close()
	embeddingSvc := service.NewEmbeddingService(geminiEmbedder)

	var archiver service.UploadArchiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready, raw uploads will be archived", cfg.S3Bucket)
		archiver = s3Client
	}

	cache := service.NewMemoryCache(transcriptCacheTTL, transcriptCacheEntries)
	sweeper := jobs.NewWorker(jobs.NewCacheSweeper(cache), cacheSweepInterval)
	go sweeper.Start(ctx)

	ingestionSvc := service.NewIngestionService(service.IngestionConfig{
		Generator:   generatorSvc,
		Embedder:    embeddingSvc,
		Documents:   docRepo,
		Chunks:      chunkRepo,
		TxRunner:    txRunner,
		Transcripts: extract.NewTranscriptClient(),
		GitHub:      extract.NewGitHubClient(cfg.GitHubToken),
		Archiver:    archiver,
		Cache:       cache,
	})
	projectSvc := service.NewProjectService(projectRepo)
	quizSvc := service.NewQuizService(docRepo, chunkRepo, generatorSvc)
	chatSvc := service.NewChatService(chatRepo, projectRepo, chunkRepo, embeddingSvc, generatorSvc)
	jwtSvc := service.NewJWTService(cfg.JWTSecret)

	router := server.NewRouter(server.RouterConfig{
		TokenValidator:  jwtSvc,
		AllowedOrigins:  cfg.AllowedOrigins(),
		DocumentHandler: handlers.NewDocumentHandler(ingestionSvc),
		YouTubeHandler:  handlers.NewYouTubeHandler(ingestionSvc),
		GitHubHandler:   handlers.NewGitHubHandler(ingestionSvc),
		QuizHandler:     handlers.NewQuizHandler(quizSvc),
		ChatHandler:     handlers.NewChatHandler(chatSvc),
		ProjectHandler:  handlers.NewProjectHandler(projectSvc),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
