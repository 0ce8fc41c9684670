package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/johnquangdev/atc-shift-analyzer/docs"
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/handler"
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/repository"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/infrastructure/cache"
	"github.com/johnquangdev/atc-shift-analyzer/internal/infrastructure/database"
	"github.com/johnquangdev/atc-shift-analyzer/internal/infrastructure/media"
	"github.com/johnquangdev/atc-shift-analyzer/internal/infrastructure/storage"
	"github.com/johnquangdev/atc-shift-analyzer/internal/usecase/analysis"
	shiftUsecase "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/shift"
	transcriptionUsecase "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/transcription"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/config"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/jwt"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/llm"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/stt"
	pkgvalidator "github.com/johnquangdev/atc-shift-analyzer/pkg/validator"
)

// @title           ATC Shift Analyzer API
// @version         1.0
// @description     Ingests air traffic control shift recordings, transcribes them and scores controller fatigue and safety.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// audioStore is satisfied by both the MinIO and the local filesystem backends
type audioStore interface {
	transcriptionUsecase.AudioStore
	Ping(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxUploadMB+1)))

	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Production deployments apply the schema with cmd/migrate
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE and run cmd/migrate instead.")
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping AutoMigrate; run cmd/migrate to apply the schema")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database object: %v", err)
	}
	checks := map[string]handler.HealthCheck{
		"database": sqlDB.PingContext,
	}

	// Report cache
	var reportCache cache.Store
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		reportCache = cache.NewRedisStore(redisClient, "atc:")
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		log.Println("⚠️  Redis disabled, caching reports in memory")
		memoryStore := cache.NewMemoryStore()
		defer memoryStore.Close()
		reportCache = memoryStore
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	shiftRepo := repository.NewCachedShiftRepository(repository.NewShiftRepository(db), reportCache, cfg.Redis.ReportTTL, logger)
	transcriptionRepo := repository.NewTranscriptionRepository(db)

	// Audio storage
	var audio audioStore
	if cfg.Storage.Enabled {
		log.Printf("🗄️  Connecting to object storage at %s...", cfg.Storage.Endpoint)
		audio, err = storage.NewMinIOClient(&cfg.Storage)
	} else {
		log.Printf("🗄️  Storing audio on disk under %s", cfg.Storage.LocalDir)
		audio, err = storage.NewLocalStore(cfg.Storage.LocalDir)
	}
	if err != nil {
		log.Fatalf("Failed to initialize audio storage: %v", err)
	}
	checks["storage"] = audio.Ping

	// Speech-to-text and language model backends
	log.Printf("🎙️  Initializing %s transcription backend...", cfg.STT.Backend)
	transcriber, err := stt.New(&cfg.STT)
	if err != nil {
		log.Fatalf("Failed to initialize transcriber: %v", err)
	}

	log.Printf("🤖 Initializing %s analysis model %s...", cfg.LLM.Provider, cfg.LLM.Model)
	completer, err := llm.New(&cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize language model: %v", err)
	}

	pipeline := analysis.NewPipeline(
		shiftRepo,
		transcriptionRepo,
		completer,
		analysis.NewMetricsExtractor(cfg.Analysis.DefaultDutyHours, logger),
		analysis.Options{SampleCount: cfg.Analysis.SampleCount, StageTimeout: cfg.LLM.Timeout},
		logger,
	)

	// Use cases
	shiftService := shiftUsecase.NewService(
		shiftRepo,
		transcriptionRepo,
		pipeline,
		audio,
		shiftUsecase.Options{StaleAfter: cfg.Analysis.StaleAfter, SweepInterval: cfg.Analysis.SweepInterval},
		logger,
	)

	transcriptionService := transcriptionUsecase.NewService(
		shiftRepo,
		transcriptionRepo,
		audio,
		media.NewChunker(cfg.STT.FFmpegPath, cfg.STT.ChunkSeconds, cfg.STT.SampleRate),
		transcriber,
		transcriptionUsecase.Options{
			Language:       cfg.STT.Language,
			DefaultSpeaker: entities.Speaker(cfg.STT.DefaultSpeaker),
			Workers:        cfg.STT.Workers,
			JobTimeout:     cfg.STT.Timeout,
		},
		logger,
	)
	if cfg.Analysis.AutoRun {
		log.Println("🔁 Analysis runs automatically after transcription")
		transcriptionService.OnCompleted(shiftService.AnalyzeAsync)
	}

	if err := shiftService.StartSweeper(context.Background()); err != nil {
		log.Fatalf("Failed to start stale run sweeper: %v", err)
	}

	// JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)
	if !cfg.Server.AuthEnabled {
		log.Println("⚠️  Authentication disabled, mutating routes are open")
	}

	// Handlers
	log.Println("🛣️  Setting up routes...")
	healthHandler := handler.NewHealthHandler(cfg.Server.Environment, checks)
	shiftHandler := handler.NewShiftHandler(shiftService, shiftUsecase.NewExporter(shiftRepo, logger), logger)
	transcriptionHandler := handler.NewTranscriptionHandler(transcriptionService, cfg.Server.MaxUploadMB<<20, logger)

	router := handler.NewRouter(cfg, jwtManager, healthHandler, shiftHandler, transcriptionHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}
	if err := transcriptionService.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Transcription jobs cancelled: %v", err)
	}
	// transcription workers are the only source of automatic runs
	if err := shiftService.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Analysis runs cancelled: %v", err)
	}
	if err := shiftService.StopSweeper(); err != nil {
		log.Printf("⚠️  Failed to stop sweeper: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
