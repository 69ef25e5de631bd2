package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/commands"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/queries"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/services"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/subscribers"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/planning/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/ganttline/internal/shared/application"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/ganttline/pkg/config"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.PrometheusMetrics

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	RecordRepo  domain.RecordRepository
	UndoLogRepo domain.UndoLogRepository
	AttemptRepo domain.RescheduleAttemptRepository
	OutboxRepo  outbox.Repository

	// ExpiringUndoLogs is set when undo logs live in the database and need
	// periodic cleanup.
	ExpiringUndoLogs *persistence.SQLUndoLogRepository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Hooks
	HookRegistry *services.HookRegistry

	// Command Handlers
	CreateRecordHandler *commands.CreateRecordHandler
	LinkRecordsHandler  *commands.LinkRecordsHandler
	RescheduleHandler   *commands.RescheduleHandler
	RollbackHandler     *commands.RollbackHandler

	// Query Handlers
	ListRecordsHandler            *queries.ListRecordsHandler
	ValidateGraphHandler          *queries.ValidateGraphHandler
	ListRescheduleAttemptsHandler *queries.ListRescheduleAttemptsHandler

	// Events
	EventPublisher     eventbus.Publisher
	InProcessEventBus  *eventbus.InProcessEventBus
	ActivitySubscriber *subscribers.ActivitySubscriber
	OutboxProcessor    *outbox.Processor
}

// NewContainer creates and wires all dependencies. An empty DATABASE_URL
// opens the local SQLite file; an empty REDIS_URL keeps undo logs in the
// database.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(),
	}

	dbConfig := database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DBMaxConns,
	}
	if cfg.IsLocalMode() {
		dbConfig.Driver = database.DriverSQLite
		if dbConfig.SQLitePath == "" {
			dbConfig.SQLitePath = database.DefaultSQLitePath()
		}
		if err := database.EnsureDirectory(dbConfig.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	conn, err := database.NewConnection(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver)

	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Connect to Redis (optional in development)
	if cfg.RedisURL != "" {
		if err := c.connectRedis(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	factory := NewRepositoryFactory(conn)
	if c.RedisClient != nil {
		factory.WithRedis(c.RedisClient)
	}
	c.RecordRepo = factory.RecordRepository()
	c.UndoLogRepo = factory.UndoLogRepository()
	c.ExpiringUndoLogs = factory.ExpiringUndoLogs()
	c.AttemptRepo = factory.AttemptRepository()
	c.OutboxRepo = factory.OutboxRepository()
	c.UnitOfWork = factory.UnitOfWork()

	registry, err := NewHookRegistry(cfg, time.Now)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.HookRegistry = registry

	// Create command handlers
	c.CreateRecordHandler = commands.NewCreateRecordHandler(c.RecordRepo, c.UnitOfWork)
	c.LinkRecordsHandler = commands.NewLinkRecordsHandler(c.RecordRepo, c.UnitOfWork)
	c.RescheduleHandler = commands.NewRescheduleHandler(c.RecordRepo, c.UnitOfWork, c.HookRegistry, logger).
		WithUndoLogs(c.UndoLogRepo).
		WithAttempts(c.AttemptRepo).
		WithOutbox(c.OutboxRepo).
		WithMetrics(c.Metrics).
		WithPastTolerance(cfg.PastTolerance).
		WithUndoLogTTL(cfg.UndoLogTTL)
	c.RollbackHandler = commands.NewRollbackHandler(c.RecordRepo, c.UnitOfWork, logger).
		WithUndoLogs(c.UndoLogRepo).
		WithOutbox(c.OutboxRepo).
		WithMetrics(c.Metrics)

	// Create query handlers
	c.ListRecordsHandler = queries.NewListRecordsHandler(c.RecordRepo)
	c.ValidateGraphHandler = queries.NewValidateGraphHandler(c.RecordRepo).
		WithLogger(logger).
		WithMetrics(c.Metrics)
	c.ListRescheduleAttemptsHandler = queries.NewListRescheduleAttemptsHandler(c.AttemptRepo)

	return c, nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, undo logs will be kept in the database", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, undo logs will be kept in the database", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Logger.Info("connected to Redis")
	return nil
}

// NewHookRegistry builds the hook registry: default hooks for every model and
// working calendar hooks for the configured calendar models.
func NewHookRegistry(cfg *config.Config, now func() time.Time) (*services.HookRegistry, error) {
	registry := services.NewHookRegistry(domain.DefaultHooks{Now: now})
	if len(cfg.CalendarModels) == 0 {
		return registry, nil
	}

	hooks, err := services.NewWorkingCalendarHooks(services.WorkingCalendar{
		DayStart:     cfg.WorkDayStart,
		DayEnd:       cfg.WorkDayEnd,
		SkipWeekends: cfg.SkipWeekends,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("invalid working calendar: %w", err)
	}
	for _, model := range cfg.CalendarModels {
		registry.Register(model, hooks)
	}
	return registry, nil
}

// StartEventRelay builds the outbox processor. With RabbitMQ configured the
// processor publishes through a circuit breaker; otherwise events are
// dispatched to the in-process bus.
func (c *Container) StartEventRelay() error {
	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Config.RabbitMQExchange, c.Logger)
		if err != nil {
			if !c.Config.IsDevelopment() {
				return err
			}
			c.Logger.Warn("RabbitMQ not available, using the in-process bus", "error", err)
		} else {
			c.EventPublisher = eventbus.NewBreakerPublisher(publisher, eventbus.BreakerConfig{
				Name:        "rabbitmq",
				MaxFailures: uint32(c.Config.BreakerMaxFailures),
				MaxRequests: 1,
				Timeout:     c.Config.BreakerTimeout,
			}, c.Metrics, c.Logger)
		}
	}

	if c.EventPublisher == nil {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(c.Logger)
		c.ActivitySubscriber = subscribers.NewActivitySubscriber(c.Logger).WithMetrics(c.Metrics)
		c.InProcessEventBus.RegisterConsumer(c.ActivitySubscriber)
		c.EventPublisher = c.InProcessEventBus
	}

	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = c.Config.OutboxPollInterval
	processorConfig.BatchSize = c.Config.OutboxBatchSize
	processorConfig.MaxRetries = c.Config.OutboxMaxRetries
	processorConfig.RetentionDays = c.Config.OutboxRetentionDays
	processorConfig.CleanupInterval = c.Config.OutboxCleanupInterval
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, c.Logger).WithMetrics(c.Metrics)
	return nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed")
		}
	}
}
