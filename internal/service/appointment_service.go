package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/model"
	"go.uber.org/zap"
)

// BookRequest параметры ручного бронирования
type BookRequest struct {
	Account        string
	Search         medicover.SearchParams
	DateTime       time.Time
	ExactTimeMatch bool
	ExactDateMatch bool
}

type AppointmentService struct {
	store    AppointmentStore
	history  *History
	accounts Accounts
	logger   *zap.Logger
}

func NewAppointmentService(store AppointmentStore, history *History, accounts Accounts, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{
		store:    store,
		history:  history,
		accounts: accounts,
		logger:   logger,
	}
}

// Find ищет слоты по каждой специальности по очереди и объединяет результат
func (s *AppointmentService) Find(ctx context.Context, account string, p medicover.SearchParams, specialties []int64) ([]*model.Appointment, error) {
	provider, err := s.accounts.UseAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	if len(specialties) == 0 {
		specialties = []int64{p.Specialty}
	}

	var all []*model.Appointment
	for _, spec := range specialties {
		p.Specialty = spec
		found, err := provider.FindAppointments(ctx, p)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Appointments found", zap.Int64("specialty", spec), zap.Int("count", len(found)))
		all = append(all, found...)
	}
	return all, nil
}

// Book находит слот на указанное время, бронирует и сохраняет бронь.
// nil без ошибки - подходящий слот не найден.
func (s *AppointmentService) Book(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	provider, err := s.accounts.UseAccount(ctx, req.Account)
	if err != nil {
		return nil, err
	}
	booked, err := provider.FindAndBookAppointment(ctx, req.Search, req.DateTime, req.ExactTimeMatch, req.ExactDateMatch)
	if err != nil {
		return nil, err
	}
	if booked == nil {
		return nil, nil
	}
	if err := s.history.Upsert(ctx, booked); err != nil {
		return booked, fmt.Errorf("save booked appointment: %w", err)
	}
	s.logger.Info("Booking result", zap.String("appointment", booked.String()))
	return booked, nil
}

// ListBooked забронированные визиты, с enrich - с подписями от провайдера
func (s *AppointmentService) ListBooked(ctx context.Context, enrich bool) ([]*model.Appointment, error) {
	booked, err := s.store.ListBooked(ctx)
	if err != nil {
		return nil, err
	}
	if !enrich {
		return booked, nil
	}
	for _, a := range booked {
		provider, err := s.accounts.UseAccount(ctx, a.Account)
		if err != nil {
			s.logger.Warn("Failed to switch account for labels", zap.String("account", a.Account), zap.Error(err))
			continue
		}
		if err := provider.UpdateAppointmentMetadata(ctx, a); err != nil {
			s.logger.Warn("Failed to load appointment labels", zap.Int64("appointment_id", a.RowID), zap.Error(err))
		}
	}
	return booked, nil
}

// Cancel отменяет забронированный визит по ID строки и удаляет его из истории
func (s *AppointmentService) Cancel(ctx context.Context, id int64) (bool, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if a == nil || !a.IsBooked() {
		return false, ErrAppointmentNotFound
	}

	provider, err := s.accounts.UseAccount(ctx, a.Account)
	if err != nil {
		return false, err
	}
	ok, err := provider.CancelAppointment(ctx, a)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Error("Canceling appointment was unsuccessful", zap.Int64("appointment_id", id))
		return false, nil
	}

	if _, err := s.store.Delete(ctx, id); err != nil {
		return true, fmt.Errorf("remove canceled appointment: %w", err)
	}
	s.logger.Info("Appointment was successfully canceled", zap.Int64("appointment_id", id))
	return true, nil
}
