package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	appsvc "feedbackbot/internal/app"
	"feedbackbot/internal/cache"
	"feedbackbot/internal/config"
	"feedbackbot/internal/database"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/pipeline"
	dbClient "feedbackbot/internal/platform/database"
	rabbitmqClient "feedbackbot/internal/platform/rabbitmq"
	redisClient "feedbackbot/internal/platform/redis"
	"feedbackbot/internal/repository"
	"feedbackbot/internal/session"
	"feedbackbot/internal/worker"
)

type App struct {
	Config         *config.Config
	DB             *gorm.DB
	Redis          *redisClient.Client
	MQConn         *amqp.Connection
	FeedbackWorker *worker.FeedbackPersistWorker

	Loader     *pipeline.Loader
	Sessions   session.Store
	Chat       *appsvc.ChatService
	Feedback   *appsvc.FeedbackService
	History    *appsvc.HistoryService
	SampleData *appsvc.SampleDataService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.SetLevel(cfg.App.LogLevel)

	db, err := dbClient.New(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: db}

	if cfg.Redis.Enabled {
		app.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	}
	if cfg.RabbitMQ.Enabled {
		app.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	app.Loader = pipeline.NewLoader(NewPipelineFactory(cfg))
	app.wire()

	if n, err := app.SampleData.EnsureInitialData(ctx); err != nil {
		_ = app.Close()
		return nil, err
	} else if n > 0 {
		logger.L.Info("database was empty, sample data seeded", "records", n)
	}

	if app.MQConn != nil {
		app.FeedbackWorker = worker.NewFeedbackPersistWorker(app.MQConn, repository.NewFeedbackRepository(db), cfg.RabbitMQ.FeedbackPersistQueue, cfg.RabbitMQ.Prefetch)
		app.FeedbackWorker.OnPersisted = app.Feedback.InvalidateHistory
		if err := app.FeedbackWorker.Start(ctx); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("start feedback worker failed: %w", err)
		}
	}

	// load in the background; the chat page waits for the result
	go func() {
		if _, err := app.Loader.Load(ctx); err != nil {
			logger.L.Error("model load failed", "model", cfg.Model.Name, "backend", cfg.Model.Backend, "error", err)
			return
		}
		logger.L.Info("model loaded", "model", cfg.Model.Name, "backend", cfg.Model.Backend)
	}()

	app.StartedAt = time.Now()
	return app, nil
}

// NewForStore builds an App around an already migrated database without any
// broker or cache. The loader is supplied by the caller.
func NewForStore(cfg *config.Config, db *gorm.DB, loader *pipeline.Loader) *App {
	app := &App{Config: cfg, DB: db, Loader: loader, StartedAt: time.Now()}
	app.wire()
	return app
}

func (a *App) wire() {
	repo := repository.NewFeedbackRepository(a.DB)
	sessionTTL := time.Duration(a.Config.App.SessionTTLMinutes) * time.Minute

	var historyCache appsvc.HistoryCache
	if a.Redis != nil {
		historyCache = cache.NewHistoryCache(a.Redis, a.Config.Redis.HistoryTTL(), a.Config.Redis.HistoryDirtyTTL())
		a.Sessions = session.NewRedisStore(a.Redis, sessionTTL)
	} else {
		a.Sessions = session.NewMemoryStore(sessionTTL)
	}

	var publisher appsvc.AsyncFeedbackPublisher
	if a.MQConn != nil {
		publisher = rabbitmqClient.NewFeedbackPublisher(a.MQConn, a.Config.RabbitMQ.FeedbackPersistQueue)
	}

	a.Chat = appsvc.NewChatService(a.Loader)
	a.Feedback = appsvc.NewFeedbackService(repo, publisher, historyCache)
	a.History = appsvc.NewHistoryService(repo, historyCache)
	a.SampleData = appsvc.NewSampleDataService(repo, a.Config.Admin.PasswordHash, historyCache)
}

func (a *App) Close() error {
	var closeErr error
	if a.FeedbackWorker != nil {
		a.FeedbackWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if closer, ok := a.pipelineCloser(); ok {
		if err := closer.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

type closer interface{ Close() error }

func (a *App) pipelineCloser() (closer, bool) {
	if a.Loader == nil || !a.Loader.Available() {
		return nil, false
	}
	p, _ := a.Loader.Load(context.Background())
	c, ok := p.(closer)
	return c, ok
}
