package handlers

import (
	"context"

	"github.com/Freeeeeet/medicony/internal/controller/state"
	"github.com/Freeeeeet/medicony/internal/model"
	"go.uber.org/zap"
)

// WatchService операции над watch, нужные боту
type WatchService interface {
	List(ctx context.Context, account string, enrich bool) ([]*model.Watch, error)
	Add(ctx context.Context, w *model.Watch) (int64, error)
	Update(ctx context.Context, id int64, u model.WatchUpdate) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
}

// AppointmentService список броней
type AppointmentService interface {
	ListBooked(ctx context.Context, enrich bool) ([]*model.Appointment, error)
}

// Waker будит планировщик
type Waker interface {
	Wake() bool
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	watchService       WatchService
	appointmentService AppointmentService
	waker              Waker
	stateManager       *state.Manager
	chatID             int64
	logPath            string
	accountHint        []string
	suggested          string
	logger             *zap.Logger
}

// Config параметры бота
type Config struct {
	ChatID    int64
	LogPath   string
	Accounts  []string
	Suggested string
}

func NewHandlers(
	watchService WatchService,
	appointmentService AppointmentService,
	waker Waker,
	stateManager *state.Manager,
	cfg Config,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		watchService:       watchService,
		appointmentService: appointmentService,
		waker:              waker,
		stateManager:       stateManager,
		chatID:             cfg.ChatID,
		logPath:            cfg.LogPath,
		accountHint:        cfg.Accounts,
		suggested:          cfg.Suggested,
		logger:             logger,
	}
}
