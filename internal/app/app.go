package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"flightbook/internal/config"
	"flightbook/internal/database"
	"flightbook/internal/events"
	"flightbook/internal/logging"
	"flightbook/internal/notify"
	"flightbook/internal/service"
	"flightbook/internal/storage"
	"flightbook/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App is the wired booking store with its optional event consumers.
type App struct {
	Config   *config.Config
	Logger   *zerolog.Logger
	Storage  *storage.CSVStorage
	EventBus *events.EventBus
	Service  *service.BookingService
	Backup   *storage.BackupService

	// Optional, nil when not configured.
	Journal    *database.Journal
	Redis      *redis.Client
	Dispatcher *worker.Dispatcher

	stop        context.CancelFunc
	dispatching bool
	closers     []io.Closer
}

// LoadConfigAndLogger reads the config at path and builds the base logger.
func LoadConfigAndLogger(path string) (*config.Config, *zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, closer, nil
}

// New wires storage, the event bus and its subscribers, then loads the
// booking tables. Start must be called to run the Redis dispatcher.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	a.Storage = storage.NewCSVStorage(
		cfg.Storage.FlightsFile,
		cfg.Storage.PassengersFile,
		cfg.Storage.BookingsFile,
		cfg.Storage.AuditFile,
	)

	a.EventBus = events.NewEventBus()
	busLogger := logging.Component(logger, "events")
	a.EventBus.OnError(func(event *events.Event, err error) {
		busLogger.Error().Err(err).Str("event_type", event.Type).Msg("event handler error")
	})

	if err := a.initJournal(); err != nil {
		a.Close()
		return nil, err
	}
	a.initRedis(ctx)

	a.Service = service.NewBookingService(a.Storage, a.EventBus, logging.Component(logger, "booking"))
	if err := a.Service.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("load booking data: %w", err)
	}

	if cfg.Backup.Enabled {
		a.Backup = storage.NewBackupService(cfg.Storage.Files(), cfg.Backup, logging.Component(logger, "backup"))
	}
	return a, nil
}

func (a *App) initJournal() error {
	if a.Config.Journal.Path == "" {
		return nil
	}
	journal, err := database.NewJournal(a.Config.Journal.Path, logging.Component(a.Logger, "journal"))
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	a.Journal = journal
	a.closers = append(a.closers, journal)
	a.EventBus.Subscribe(journal.Handle, events.EventFlightBooked, events.EventBookingCanceled)
	return nil
}

func (a *App) initRedis(ctx context.Context) {
	if a.Config.Redis.Address == "" {
		return
	}

	client := notify.NewRedisClient(a.Config.Redis)
	if err := notify.Ping(ctx, client); err != nil {
		a.Logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return
	}
	a.Logger.Info().Str("addr", a.Config.Redis.Address).Msg("redis connected")

	a.Redis = client
	a.closers = append(a.closers, client)

	notifier := notify.NewRedisNotifier(client, a.Config.Journal.Stream, logging.Component(a.Logger, "notify"))
	a.Dispatcher = worker.NewDispatcher("redis", notifier, worker.DefaultRetryPolicy(), 0, logging.Component(a.Logger, "dispatcher"))
	a.EventBus.Subscribe(a.Dispatcher.Enqueue, events.EventFlightBooked, events.EventBookingCanceled)
}

// Start launches background workers: the Redis dispatcher and, when
// enabled, scheduled backups. They stop with ctx or on Close.
func (a *App) Start(ctx context.Context) {
	ctx, a.stop = context.WithCancel(ctx)
	if a.Dispatcher != nil {
		a.dispatching = true
		go a.Dispatcher.Start(ctx)
	}
	if a.Backup != nil {
		go a.Backup.Start(ctx)
	}
}

// Close stops the workers, waits for the dispatcher to flush its queue,
// then releases the journal and the Redis client.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
		a.stop = nil
	}
	if a.dispatching {
		<-a.Dispatcher.Done()
		a.dispatching = false
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
