package handlers

import (
	"errors"

	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/Freeeeeet/medicony/internal/service"
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingRegion):
		return "❌ Region is required, e.g. region=200"
	case errors.Is(err, ErrUnknownKey), errors.Is(err, ErrBadArgument):
		return "❌ " + err.Error()
	case errors.Is(err, model.ErrNoSpecialty):
		return "❌ At least one specialty is required, e.g. specialty=52106"
	case errors.Is(err, model.ErrStartAfterEnd):
		return "❌ Start date cannot be after end date"
	case errors.Is(err, model.ErrInvalidTimeRange):
		return "❌ Invalid time range, use HH:MM-HH:MM or HH:MM-*"
	case errors.Is(err, medicover.ErrUnknownAccount):
		return "❌ Unknown account alias"
	case errors.Is(err, service.ErrWatchNotFound):
		return "❌ Watch not found"
	case errors.Is(err, service.ErrAppointmentNotFound):
		return "❌ Appointment not found"
	default:
		return "❌ Something went wrong, check /logs"
	}
}
