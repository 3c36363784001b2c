package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/Freeeeeet/medicony/internal/repository/base"
	"go.uber.org/zap"
)

const watchColumns = `id, region, city, specialty, COALESCE(clinic, 0), COALESCE(doctor, 0),
	start_date, COALESCE(end_date, DATE '9999-12-31'), time_range, auto_book,
	COALESCE(exclusions, ''), type, COALESCE(account, '')`

type WatchRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewWatchRepository(db base.DB, logger *zap.Logger) *WatchRepository {
	return &WatchRepository{
		Repository: base.NewRepository(db),
		logger:     logger,
	}
}

type watchRow struct {
	id         int64
	region     int64
	city       string
	specialty  string
	clinic     int64
	doctor     int64
	startDate  time.Time
	endDate    time.Time
	timeRange  string
	autoBook   bool
	exclusions string
	watchType  string
	account    string
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWatch(s scanner) (*model.Watch, error) {
	var row watchRow
	err := s.Scan(
		&row.id,
		&row.region,
		&row.city,
		&row.specialty,
		&row.clinic,
		&row.doctor,
		&row.startDate,
		&row.endDate,
		&row.timeRange,
		&row.autoBook,
		&row.exclusions,
		&row.watchType,
		&row.account,
	)
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r watchRow) toModel() (*model.Watch, error) {
	specialties, err := parseIDList(r.specialty)
	if err != nil {
		return nil, fmt.Errorf("watch %d specialty: %w", r.id, err)
	}
	timeRange, err := model.ParseTimeRange(r.timeRange)
	if err != nil {
		return nil, fmt.Errorf("watch %d time range: %w", r.id, err)
	}
	exclusions, err := model.ParseExclusions(r.exclusions)
	if err != nil {
		return nil, fmt.Errorf("watch %d exclusions: %w", r.id, err)
	}
	watchType, err := model.ParseWatchType(r.watchType)
	if err != nil {
		return nil, fmt.Errorf("watch %d type: %w", r.id, err)
	}

	w := &model.Watch{
		ID:          r.id,
		Region:      model.NewIDValue(r.region),
		City:        r.city,
		Specialties: specialties,
		StartDate:   model.DateOf(r.startDate),
		EndDate:     model.DateOf(r.endDate),
		TimeRange:   timeRange,
		AutoBook:    r.autoBook,
		Exclusions:  exclusions,
		Type:        watchType,
		Account:     r.account,
	}
	if r.clinic != 0 {
		clinic := model.NewIDValue(r.clinic)
		w.Clinic = &clinic
	}
	if r.doctor != 0 {
		doctor := model.NewIDValue(r.doctor)
		w.Doctor = &doctor
	}
	return w, nil
}

func parseIDList(s string) ([]model.IDValue, error) {
	var out []model.IDValue
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, model.NewIDValue(id))
	}
	return out, nil
}

// nullableID нулевой id хранится как NULL
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableEndDate(t time.Time) any {
	if t.IsZero() || model.IsMaxDate(t) {
		return nil
	}
	return model.DateOf(t)
}

// List возвращает все watch в порядке создания
func (r *WatchRepository) List(ctx context.Context) ([]*model.Watch, error) {
	rows, err := r.Query(ctx, `SELECT `+watchColumns+` FROM watches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list watches: %w", err)
	}
	defer rows.Close()

	var watches []*model.Watch
	for rows.Next() {
		w, err := scanWatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watch: %w", err)
		}
		watches = append(watches, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list watches: %w", err)
	}
	return watches, nil
}

// GetByID получает watch по ID, nil если не найден
func (r *WatchRepository) GetByID(ctx context.Context, id int64) (*model.Watch, error) {
	w, err := scanWatch(r.QueryRow(ctx, `SELECT `+watchColumns+` FROM watches WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get watch by id: %w", err)
	}
	return w, nil
}

// Create сохраняет watch и проставляет ему ID
func (r *WatchRepository) Create(ctx context.Context, w *model.Watch) (int64, error) {
	query := `
		INSERT INTO watches (region, city, specialty, clinic, doctor, start_date, end_date,
			time_range, auto_book, exclusions, type, account)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := r.QueryRow(ctx, query,
		w.Region.ID,
		w.City,
		model.IDsString(w.Specialties),
		nullableID(w.ClinicID()),
		nullableID(w.DoctorID()),
		model.DateOf(w.StartDate),
		nullableEndDate(w.EndDate),
		w.TimeRange.String(),
		w.AutoBook,
		nullableString(w.Exclusions.Flatten()),
		string(w.Type),
		nullableString(w.Account),
	).Scan(&w.ID)
	if err != nil {
		return 0, fmt.Errorf("create watch: %w", err)
	}

	r.logger.Info("Watch saved", zap.Int64("watch_id", w.ID))
	return w.ID, nil
}

// Delete удаляет watch, false если его не было
func (r *WatchRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM watches WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete watch: %w", err)
	}
	return affected > 0, nil
}

// Update частично обновляет watch. Пустое обновление только проверяет существование.
func (r *WatchRepository) Update(ctx context.Context, id int64, u model.WatchUpdate) (bool, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.City != nil {
		set("city", *u.City)
	}
	if u.Clinic != nil {
		set("clinic", nullableID(*u.Clinic))
	}
	if u.StartDate != nil {
		set("start_date", model.DateOf(*u.StartDate))
	}
	if u.EndDate != nil {
		set("end_date", nullableEndDate(*u.EndDate))
	}
	if u.TimeRange != nil {
		set("time_range", u.TimeRange.String())
	}
	if u.Exclusions != nil {
		set("exclusions", nullableString(u.Exclusions.Flatten()))
	}
	if u.AutoBook != nil {
		set("auto_book", *u.AutoBook)
	}
	if u.Account != nil {
		set("account", nullableString(*u.Account))
	}

	if len(sets) == 0 {
		exists, err := r.Exists(ctx, `SELECT EXISTS(SELECT 1 FROM watches WHERE id = $1)`, id)
		if err != nil {
			return false, fmt.Errorf("check watch: %w", err)
		}
		return exists, nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE watches SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	affected, err := r.ExecAffected(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update watch: %w", err)
	}
	return affected > 0, nil
}

// DeleteEnded удаляет watch с датой окончания раньше today
func (r *WatchRepository) DeleteEnded(ctx context.Context, today time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`DELETE FROM watches WHERE end_date IS NOT NULL AND end_date < $1`, model.DateOf(today))
	if err != nil {
		return 0, fmt.Errorf("delete ended watches: %w", err)
	}
	return affected, nil
}
