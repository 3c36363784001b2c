package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/medicony/internal/config"
	"github.com/Freeeeeet/medicony/internal/lock"
	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/metrics"
	"github.com/Freeeeeet/medicony/internal/notify"
	"github.com/Freeeeeet/medicony/internal/repository"
	"github.com/Freeeeeet/medicony/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App зависимости одной команды, собираются один раз при старте процесса
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Kind     CommandKind
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Bot    *bot.Bot
	Client *medicover.Client

	Accounts         service.Accounts
	Notifier         service.Notifier
	WatchStore       *repository.WatchRepository
	AppointmentStore *repository.AppointmentRepository
	Watches          *service.WatchService
	Appointments     *service.AppointmentService
	Evaluator        *service.Evaluator

	closers []func()
}

// New поднимает только то, что нужно команде kind
func New(ctx context.Context, cfg *config.Config, kind CommandKind, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Kind:     kind,
		Registry: prometheus.NewRegistry(),
	}
	a.Metrics = metrics.New(a.Registry)
	req := kind.Requirements()

	if err := a.setup(ctx, req); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) setup(ctx context.Context, req Requirements) error {
	if req.Database {
		pool, err := ConnectPostgres(ctx, a.Config.GetDBDSN())
		if err != nil {
			return err
		}
		a.Pool = pool
		a.closers = append(a.closers, pool.Close)
		a.WatchStore = repository.NewWatchRepository(pool, a.Logger)
		a.AppointmentStore = repository.NewAppointmentRepository(pool, a.Logger)
		a.Logger.Info("Connected to database")
	}

	if req.Migrations {
		if err := a.Migrate(ctx); err != nil {
			return err
		}
	}

	if req.Notifier {
		if err := a.setupNotifier(); err != nil {
			return err
		}
	}

	if req.Provider {
		opts := medicover.DefaultOptions()
		opts.RequestsPerSecond = a.Config.RequestsPerSecond
		opts.Metrics = a.Metrics
		client, err := medicover.NewClient(a.Config.Accounts(), opts, a.Logger)
		if err != nil {
			return fmt.Errorf("create medicover client: %w", err)
		}
		a.Client = client
		a.Accounts = service.NewAccounts(client)
	}

	if req.Provider && req.Database {
		history := service.NewHistory(a.AppointmentStore, a.Logger)
		a.Watches = service.NewWatchService(a.WatchStore, a.Accounts, a.Logger)
		a.Appointments = service.NewAppointmentService(a.AppointmentStore, history, a.Accounts, a.Logger)

		if req.Daemon {
			locker, err := a.locker(ctx)
			if err != nil {
				return err
			}
			a.Evaluator = service.NewEvaluator(service.EvaluatorConfig{
				Watches:       a.WatchStore,
				History:       history,
				Accounts:      a.Accounts,
				Notifier:      a.Notifier,
				Locker:        locker,
				Metrics:       a.Metrics,
				Delays:        service.DefaultDelays(),
				ThresholdDays: a.Config.ActivityThresholdDays,
			}, a.Logger)
		}
	}
	return nil
}

func (a *App) setupNotifier() error {
	if !a.Config.TelegramEnabled() {
		a.Logger.Info("Telegram is not configured, notifications go to the log")
		a.Notifier = notify.NewLog(a.Logger)
		return nil
	}
	b, err := bot.New(a.Config.TelegramToken)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	a.Bot = b
	a.Notifier = notify.NewTelegram(b, a.Config.TelegramChatID, a.Logger)
	return nil
}

func (a *App) locker(ctx context.Context) (lock.Locker, error) {
	if a.Config.RedisURL == "" {
		a.Logger.Info("REDIS_URL is empty, using in-process autobook lock")
		return lock.NewLocalLocker(), nil
	}
	client, err := lock.NewRedisClient(ctx, a.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	a.Redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.Logger.Info("Connected to redis")
	return lock.NewRedisLocker(client, a.Config.LockTTL()), nil
}

// Migrate применяет миграции из MIGRATIONS_PATH
func (a *App) Migrate(ctx context.Context) error {
	if a.Pool == nil {
		return fmt.Errorf("apply migrations: database is not connected")
	}
	migrator, err := NewMigrator(a.Pool, a.Config.MigrationsPath, a.Logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	return migrator.Run(ctx)
}

// ClearStale чистит прошедшие слоты и закончившиеся watch
func (a *App) ClearStale(ctx context.Context) error {
	return service.ClearStale(ctx, a.WatchStore, a.AppointmentStore, time.Now(), a.Logger)
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
