package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/medicony/internal/model"
	"go.uber.org/zap"
)

// History история увиденных слотов для дедупликации и учёта броней
type History struct {
	store  AppointmentStore
	logger *zap.Logger
}

func NewHistory(store AppointmentStore, logger *zap.Logger) *History {
	return &History{store: store, logger: logger}
}

// Upsert добавляет слот, если тройки (clinic, doctor, date) ещё нет, иначе обновляет
func (h *History) Upsert(ctx context.Context, a *model.Appointment) error {
	exists, err := h.store.Exists(ctx, a)
	if err != nil {
		return err
	}
	if !exists {
		id, err := h.store.AddHistory(ctx, a)
		if err != nil {
			return err
		}
		a.RowID = id
		return nil
	}
	if _, err := h.store.Update(ctx, a); err != nil {
		return err
	}
	return nil
}

// SaveAndFilterNew возвращает только ранее не виденные слоты и запоминает их
func (h *History) SaveAndFilterNew(ctx context.Context, appointments []*model.Appointment) ([]*model.Appointment, error) {
	fresh := make([]*model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		exists, err := h.store.Exists(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("check history: %w", err)
		}
		if exists {
			continue
		}
		if _, err := h.store.AddHistory(ctx, a); err != nil {
			return nil, fmt.Errorf("save history: %w", err)
		}
		fresh = append(fresh, a)
	}
	h.logger.Debug("Appointments filtered against history",
		zap.Int("found", len(appointments)),
		zap.Int("new", len(fresh)),
	)
	return fresh, nil
}
