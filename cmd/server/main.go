package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenHire/hireflow/internal/auth"
	"github.com/OpenHire/hireflow/internal/config"
	"github.com/OpenHire/hireflow/internal/database"
	"github.com/OpenHire/hireflow/internal/importer/parser"
	"github.com/OpenHire/hireflow/internal/importer/queue"
	importrouter "github.com/OpenHire/hireflow/internal/importer/router"
	importservice "github.com/OpenHire/hireflow/internal/importer/service"
	"github.com/OpenHire/hireflow/internal/middleware"
	recrouter "github.com/OpenHire/hireflow/internal/recruitment/router"
	recservice "github.com/OpenHire/hireflow/internal/recruitment/service"
	"github.com/OpenHire/hireflow/internal/storage"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	slog.Info("Configuration loaded",
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
		"storage_type", cfg.Storage.Type,
		"import_workers", cfg.Import.WorkerCount,
		"import_queue_capacity", cfg.Import.QueueCapacity,
	)

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Blob storage
	driver, err := storage.NewDriverFromConfig(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	store := storage.NewDocumentStore(driver)
	blobHandler := storage.NewHTTPHandler(store)

	// Recruitment domain
	repo := recservice.NewGormRepository()
	engine := recservice.NewProgressionEngine(repo, repo)
	candidateService := recservice.NewCandidateService(db, engine, repo)
	stepService := recservice.NewStepService(db)

	// Import pipeline
	jobs := queue.New(cfg.Import.QueueCapacity)
	importService := importservice.NewImportService(
		importservice.NewGormSessionStore(db),
		importservice.NewGormRecruitmentGateway(db, repo, engine),
		store,
		jobs,
		parser.NewXLSXParser(),
		parser.NewPDFBundleSplitter(),
	)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		if err := jobs.RunWorkers(workerCtx, cfg.Import.WorkerCount, importService); err != nil {
			slog.Error("Import workers stopped with error", "error", err)
		}
	}()
	slog.Info("Import workers started", "count", cfg.Import.WorkerCount)

	// Routers
	authService := auth.NewAuthService(db)
	recruitments := recrouter.NewRecruitmentRouter(stepService, candidateService)
	imports := importrouter.NewImportRouter(importService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/recruitments", recruitments.HandleCreateRecruitment)
	mux.HandleFunc("GET /api/recruitments/{recruitmentId}", recruitments.HandleGetRecruitment)
	mux.HandleFunc("GET /api/recruitments/{recruitmentId}/steps", recruitments.HandleListSteps)
	mux.HandleFunc("POST /api/recruitments/{recruitmentId}/steps", recruitments.HandleCreateStep)
	mux.HandleFunc("PUT /api/recruitments/{recruitmentId}/steps/order", recruitments.HandleReorderSteps)
	mux.HandleFunc("DELETE /api/workflow-steps/{stepId}", recruitments.HandleRemoveStep)
	mux.HandleFunc("POST /api/recruitments/{recruitmentId}/candidates", recruitments.HandleCreateCandidate)
	mux.HandleFunc("GET /api/recruitments/{recruitmentId}/candidates", recruitments.HandleListCandidates)
	mux.HandleFunc("GET /api/candidates/{candidateId}", recruitments.HandleGetCandidate)
	mux.HandleFunc("POST /api/candidates/{candidateId}/outcomes", recruitments.HandleRecordOutcome)
	mux.HandleFunc("PUT /api/candidates/{candidateId}/documents", recruitments.HandleAssignDocument)

	mux.HandleFunc("POST /api/recruitments/{recruitmentId}/imports", imports.HandleSubmitImport)
	mux.HandleFunc("GET /api/recruitments/{recruitmentId}/imports/{importSessionId}", imports.HandleGetImportSession)
	mux.HandleFunc("POST /api/recruitments/{recruitmentId}/imports/{importSessionId}/rows/{rowIndex}/resolution", imports.HandleResolveRow)

	mux.HandleFunc("GET /blobs/{key...}", blobHandler.Download)

	handler := middleware.CORS(&cfg.CORS)(auth.Middleware(authService)(mux))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	} else {
		slog.Info("Server gracefully stopped")
	}

	// Stop import workers; in-flight sessions stay non-terminal and their
	// partial results remain visible.
	stopWorkers()
	select {
	case <-workersDone:
	case <-time.After(10 * time.Second):
		slog.Warn("Import workers did not stop in time")
	}

	slog.Info("Server stopped")
}
