package service

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/model"
)

var (
	ErrWatchNotFound       = errors.New("watch not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrUnknownFilterKind   = errors.New("unknown filter kind")
)

// WatchStore хранилище watch
type WatchStore interface {
	List(ctx context.Context) ([]*model.Watch, error)
	GetByID(ctx context.Context, id int64) (*model.Watch, error)
	Create(ctx context.Context, w *model.Watch) (int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Update(ctx context.Context, id int64, u model.WatchUpdate) (bool, error)
	DeleteEnded(ctx context.Context, today time.Time) (int64, error)
}

// AppointmentStore история слотов
type AppointmentStore interface {
	Exists(ctx context.Context, a *model.Appointment) (bool, error)
	AddHistory(ctx context.Context, a *model.Appointment) (int64, error)
	Update(ctx context.Context, a *model.Appointment) (bool, error)
	ListBooked(ctx context.Context) ([]*model.Appointment, error)
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeletePast(ctx context.Context, now time.Time) (int64, error)
}

// Provider операции провайдера от имени одного аккаунта
type Provider interface {
	Alias() string
	FindAppointments(ctx context.Context, p medicover.SearchParams) ([]*model.Appointment, error)
	BookAppointment(ctx context.Context, a *model.Appointment, t model.WatchType) (*model.Appointment, error)
	FindAndBookAppointment(ctx context.Context, p medicover.SearchParams, dateTime time.Time, exactTime, exactDate bool) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, a *model.Appointment) (bool, error)
	FindFilters(ctx context.Context, p medicover.FilterParams) (*medicover.Filters, error)
	UpdateWatchMetadata(ctx context.Context, w *model.Watch) error
	UpdateAppointmentMetadata(ctx context.Context, a *model.Appointment) error
}

// Accounts выдаёт Provider по псевдониму, пустой псевдоним - аккаунт по умолчанию
type Accounts interface {
	UseAccount(ctx context.Context, alias string) (Provider, error)
	DefaultAlias() string
	Aliases() []string
}

// Notifier канал уведомлений, ошибки не возвращает
type Notifier interface {
	Notify(ctx context.Context, title string, elements []string)
}

type clientAccounts struct {
	client *medicover.Client
}

// NewAccounts адаптирует medicover.Client к Accounts
func NewAccounts(client *medicover.Client) Accounts {
	return clientAccounts{client: client}
}

func (c clientAccounts) UseAccount(ctx context.Context, alias string) (Provider, error) {
	s, err := c.client.UseAccount(ctx, alias)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c clientAccounts) DefaultAlias() string {
	return c.client.DefaultAlias()
}

func (c clientAccounts) Aliases() []string {
	return c.client.Aliases()
}
