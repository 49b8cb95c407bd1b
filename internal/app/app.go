package app

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/reelpoint/reelpoint-server/internal/auth"
	"github.com/reelpoint/reelpoint-server/internal/handlers"
	"github.com/reelpoint/reelpoint-server/internal/media"
	"github.com/reelpoint/reelpoint-server/internal/middlewares"
	"github.com/reelpoint/reelpoint-server/internal/notifier"
	"github.com/reelpoint/reelpoint-server/internal/pipeline"
	"github.com/reelpoint/reelpoint-server/internal/sensitivity"
	"github.com/reelpoint/reelpoint-server/internal/store"
	"github.com/reelpoint/reelpoint-server/migrations"
)

type Application struct {
	Logger            *log.Logger
	db                *sql.DB
	Auth              *auth.JWTAuth
	Notifier          notifier.Notifier
	Pipeline          *pipeline.Processor
	MiddlewareHandler *middlewares.MiddlewareHandler
	VideoHandler      *handlers.VideoHandler
	StreamHandler     *handlers.StreamHandler
	EventsHandler     *handlers.EventsHandler
	UserHandler       *handlers.UserHandler
}

func NewApplication() (*Application, error) {
	logger := log.New(os.Stdout, "LOGGING: ", log.Ldate|log.Ltime)

	pgDB, err := store.ConnectPGDB()
	if err != nil {
		logger.Println("Error connecting to db")
		return nil, err
	}

	err = store.MigrateFS(pgDB, migrations.FS, ".")
	if err != nil {
		logger.Println("PANIC: Postgresql migration failed, exiting...")
		return nil, err
	}
	logger.Println("Database migrated...")

	mediaRoot := os.Getenv("MEDIA_ROOT")
	if mediaRoot == "" {
		mediaRoot = "data"
	}
	uploadDir := filepath.Join(mediaRoot, "uploads")
	processedDir := filepath.Join(mediaRoot, "processed")

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	userStore := store.NewPostgresUserStore(pgDB)
	videoStore := store.NewPostgresVideoStore(pgDB)

	jwtAuth, err := auth.NewJWTAuth(os.Getenv("JWT_SECRET"), userStore, logger)
	if err != nil {
		return nil, err
	}

	// Progress events fan out over redis when configured so subscribers on
	// other instances still see them; otherwise an in-process hub is enough.
	var eventNotifier notifier.Notifier
	if os.Getenv("REDIS_ADDR") != "" {
		redisClient, err := store.ConnectRedis()
		if err != nil {
			logger.Println("Error connecting to redis")
			return nil, err
		}
		eventNotifier = notifier.NewRedisNotifier(redisClient, logger)
	} else {
		eventNotifier = notifier.NewMemoryNotifier()
	}

	engine, err := media.NewFFmpegEngine(processedDir, logger)
	if err != nil {
		return nil, err
	}

	processor := pipeline.NewProcessor(videoStore, engine, sensitivity.NewAnalyzer(), eventNotifier, logger)

	videoHandler := handlers.NewVideoHandler(videoStore, processor, logger, uploadDir, mediaRoot)
	streamHandler := handlers.NewStreamHandler(videoStore, jwtAuth, logger, mediaRoot)
	eventsHandler := handlers.NewEventsHandler(eventNotifier, logger)
	userHandler := handlers.NewUserHandler(userStore, logger)

	middlewareHandler := middlewares.NewMiddlewareHandler(logger, jwtAuth)

	app := &Application{
		Logger:            logger,
		db:                pgDB,
		Auth:              jwtAuth,
		Notifier:          eventNotifier,
		Pipeline:          processor,
		MiddlewareHandler: middlewareHandler,
		VideoHandler:      videoHandler,
		StreamHandler:     streamHandler,
		EventsHandler:     eventsHandler,
		UserHandler:       userHandler,
	}

	return app, nil
}
