package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stellae/stellae-api/internal/config"
	"github.com/stellae/stellae-api/internal/events"
	"github.com/stellae/stellae-api/internal/generation"
	"github.com/stellae/stellae-api/internal/platform/gemini"
	"github.com/stellae/stellae-api/internal/platform/postgres"
	"github.com/stellae/stellae-api/internal/review"
	"github.com/stellae/stellae-api/internal/service"
	"github.com/stellae/stellae-api/internal/service/auth"
	"github.com/stellae/stellae-api/internal/store"
	"github.com/stellae/stellae-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore      store.UserStore
	taskStore      task.TaskStore
	noteStore      store.NoteStore
	nodeStore      store.NodeStore
	flashcardStore store.FlashcardStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	classifier       generation.Classifier
	userService      service.UserService
	noteService      service.NoteService
	nodeService      service.NodeService

	// Review sessions
	reviewManager *review.Manager

	// Event system
	eventEmitter events.EventEmitter

	// Task handling
	taskRunner *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost)
	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.noteStore = postgres.NewPostgresNoteStore(db, logger)
	app.nodeStore = postgres.NewPostgresNodeStore(db, logger)
	app.flashcardStore = postgres.NewPostgresFlashcardStore(db, logger)

	// Create the LLM classifier
	app.classifier, err = gemini.NewGeminiClassifier(
		ctx,
		logger.With("component", "llm_classifier"),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM classifier: %w", err)
	}
	logger.Info("LLM classifier initialized successfully")

	// Initialize event emitter
	emitter := events.NewInMemoryEventEmitter(logger)
	app.eventEmitter = emitter

	// Create required adapters
	noteRepoAdapter := service.NewNoteRepositoryAdapter(app.noteStore, db)
	nodeRepoAdapter := service.NewNodeRepositoryAdapter(app.nodeStore, db)
	cardRepoAdapter := service.NewFlashcardRepositoryAdapter(app.flashcardStore)

	// Initialize user service
	app.userService = service.NewUserService(app.userStore, app.passwordVerifier, db, logger)

	// Initialize note service
	app.noteService, err = service.NewNoteService(noteRepoAdapter, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create note service: %w", err)
	}

	// Initialize node service
	app.nodeService, err = service.NewNodeService(nodeRepoAdapter, cardRepoAdapter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create node service: %w", err)
	}

	// Initialize review session manager; grades are persisted through the
	// event emitter so a slow write never blocks the session.
	reviewPersister := service.NewEventReviewPersister(app.eventEmitter, logger)
	app.reviewManager = review.NewManager(app.flashcardStore, reviewPersister, logger)

	// Create task factory and wire it as the runner's resolver so stored
	// tasks can be rebuilt after a restart
	taskFactory := task.NewTaskFactory(
		app.noteService,
		app.classifier,
		app.nodeService,
		app.nodeStore,
		logger,
	)

	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:    cfg.Task.QueueSize,
		WorkerCount:  cfg.Task.WorkerCount,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)
	app.taskRunner.SetResolver(taskFactory)

	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	// Register the task factory event handler so service-emitted events
	// become queued tasks
	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(taskFactory, app.taskRunner, logger))

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop task runner
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
