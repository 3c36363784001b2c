package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/Freeeeeet/medicony/internal/repository/base"
	"go.uber.org/zap"
)

const appointmentColumns = `id, clinic, doctor, date, specialty, visit_type,
	COALESCE(booking_string, ''), COALESCE(booking_identifier, ''), COALESCE(account, '')`

// AppointmentRepository история увиденных и забронированных слотов.
// Слот идентифицируется тройкой (clinic, doctor, date).
type AppointmentRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewAppointmentRepository(db base.DB, logger *zap.Logger) *AppointmentRepository {
	return &AppointmentRepository{
		Repository: base.NewRepository(db),
		logger:     logger,
	}
}

func scanAppointment(s scanner) (*model.Appointment, error) {
	var (
		a                         model.Appointment
		clinic, doctor, specialty int64
	)
	err := s.Scan(
		&a.RowID,
		&clinic,
		&doctor,
		&a.DateTime,
		&specialty,
		&a.VisitType,
		&a.BookingString,
		&a.BookingIdentifier,
		&a.Account,
	)
	if err != nil {
		return nil, err
	}
	a.Clinic = model.NewIDValue(clinic)
	a.Doctor = model.NewIDValue(doctor)
	a.Specialty = model.NewIDValue(specialty)
	return &a, nil
}

// Exists есть ли уже слот с такими клиникой, врачом и временем
func (r *AppointmentRepository) Exists(ctx context.Context, a *model.Appointment) (bool, error) {
	exists, err := r.Repository.Exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE clinic = $1 AND doctor = $2 AND date = $3)`,
		a.Clinic.ID, a.Doctor.ID, a.DateTime)
	if err != nil {
		return false, fmt.Errorf("check appointment: %w", err)
	}
	return exists, nil
}

// AddHistory добавляет слот в историю
func (r *AppointmentRepository) AddHistory(ctx context.Context, a *model.Appointment) (int64, error) {
	query := `
		INSERT INTO appointments (clinic, doctor, date, specialty, visit_type, booking_string, booking_identifier, account)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int64
	err := r.QueryRow(ctx, query,
		a.Clinic.ID,
		a.Doctor.ID,
		a.DateTime,
		a.Specialty.ID,
		a.VisitType,
		nullableString(a.BookingString),
		nullableString(a.BookingIdentifier),
		nullableString(a.Account),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add appointment: %w", err)
	}
	return id, nil
}

// Update обновляет существующий слот, false если такого нет
func (r *AppointmentRepository) Update(ctx context.Context, a *model.Appointment) (bool, error) {
	query := `
		UPDATE appointments
		SET specialty = $1, visit_type = $2, booking_string = $3, booking_identifier = $4, account = $5
		WHERE clinic = $6 AND doctor = $7 AND date = $8
	`
	affected, err := r.ExecAffected(ctx, query,
		a.Specialty.ID,
		a.VisitType,
		nullableString(a.BookingString),
		nullableString(a.BookingIdentifier),
		nullableString(a.Account),
		a.Clinic.ID,
		a.Doctor.ID,
		a.DateTime,
	)
	if err != nil {
		return false, fmt.Errorf("update appointment: %w", err)
	}
	return affected > 0, nil
}

// ListBooked забронированные визиты по возрастанию даты
func (r *AppointmentRepository) ListBooked(ctx context.Context) ([]*model.Appointment, error) {
	rows, err := r.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments
		WHERE booking_identifier IS NOT NULL AND booking_identifier <> ''
		ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list booked appointments: %w", err)
	}
	defer rows.Close()

	var out []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list booked appointments: %w", err)
	}
	return out, nil
}

// GetByID получает визит по ID, nil если не найден
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	a, err := scanAppointment(r.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return a, nil
}

// Delete удаляет запись, false если её не было
func (r *AppointmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}
	return affected > 0, nil
}

// DeletePast удаляет слоты раньше now
func (r *AppointmentRepository) DeletePast(ctx context.Context, now time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM appointments WHERE date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete past appointments: %w", err)
	}
	if affected > 0 {
		r.logger.Info("Past appointments removed", zap.Int64("count", affected))
	}
	return affected, nil
}
