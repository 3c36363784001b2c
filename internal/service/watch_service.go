package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/model"
	"go.uber.org/zap"
)

// FilterKind вид каталога фильтров
type FilterKind string

const (
	FilterRegions      FilterKind = "regions"
	FilterSpecialties  FilterKind = "specialties"
	FilterClinics      FilterKind = "clinics"
	FilterDoctors      FilterKind = "doctors"
	FilterExaminations FilterKind = "examinations"
)

// FilterKinds все поддерживаемые виды
var FilterKinds = []FilterKind{FilterRegions, FilterSpecialties, FilterClinics, FilterDoctors, FilterExaminations}

func ParseFilterKind(s string) (FilterKind, error) {
	kind := FilterKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range FilterKinds {
		if k == kind {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilterKind, s)
}

// FilterQuery параметры запроса каталога
type FilterQuery struct {
	Kind      FilterKind
	Region    int64
	Specialty int64
	Account   string
}

type WatchService struct {
	store    WatchStore
	accounts Accounts
	logger   *zap.Logger
}

func NewWatchService(store WatchStore, accounts Accounts, logger *zap.Logger) *WatchService {
	return &WatchService{
		store:    store,
		accounts: accounts,
		logger:   logger,
	}
}

// List возвращает watch, при account != "" только этого аккаунта.
// С enrich подписи подтягиваются у провайдера, сбой обогащения не прерывает список.
func (s *WatchService) List(ctx context.Context, account string, enrich bool) ([]*model.Watch, error) {
	watches, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list watches: %w", err)
	}

	out := make([]*model.Watch, 0, len(watches))
	for _, w := range watches {
		alias := w.Account
		if alias == "" {
			alias = s.accounts.DefaultAlias()
		}
		if account != "" && alias != account {
			continue
		}
		if enrich {
			if err := s.enrich(ctx, alias, w); err != nil {
				s.logger.Warn("Failed to load watch labels", zap.Int64("watch_id", w.ID), zap.Error(err))
			}
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *WatchService) enrich(ctx context.Context, alias string, w *model.Watch) error {
	provider, err := s.accounts.UseAccount(ctx, alias)
	if err != nil {
		return err
	}
	return provider.UpdateWatchMetadata(ctx, w)
}

// Get получает watch по ID
func (s *WatchService) Get(ctx context.Context, id int64) (*model.Watch, error) {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get watch: %w", err)
	}
	if w == nil {
		return nil, ErrWatchNotFound
	}
	return w, nil
}

// Add проверяет watch, заполняет умолчания и сохраняет
func (s *WatchService) Add(ctx context.Context, w *model.Watch) (int64, error) {
	if err := w.Normalize(); err != nil {
		return 0, err
	}
	if w.TimeRange == (model.TimeRange{}) {
		w.TimeRange = model.DefaultTimeRange()
	}
	if w.Account != "" {
		if !s.knownAlias(w.Account) {
			return 0, fmt.Errorf("%w: %s", medicover.ErrUnknownAccount, w.Account)
		}
	}

	id, err := s.store.Create(ctx, w)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Watch added", zap.Int64("watch_id", id), zap.String("watch", w.ShortString()))
	return id, nil
}

// Update частично изменяет watch. false - watch не найден.
func (s *WatchService) Update(ctx context.Context, id int64, u model.WatchUpdate) (bool, error) {
	if u.Account != nil && *u.Account != "" && !s.knownAlias(*u.Account) {
		return false, fmt.Errorf("%w: %s", medicover.ErrUnknownAccount, *u.Account)
	}
	if u.StartDate != nil || u.EndDate != nil {
		current, err := s.store.GetByID(ctx, id)
		if err != nil {
			return false, fmt.Errorf("get watch: %w", err)
		}
		if current == nil {
			return false, nil
		}
		start, end := current.StartDate, current.EndDate
		if u.StartDate != nil {
			start = *u.StartDate
		}
		if u.EndDate != nil {
			end = *u.EndDate
		}
		if !end.IsZero() && model.DateOf(start).After(model.DateOf(end)) {
			return false, model.ErrStartAfterEnd
		}
	}

	ok, err := s.store.Update(ctx, id, u)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info("Watch updated", zap.Int64("watch_id", id))
	}
	return ok, nil
}

// Remove удаляет watch, false если его не было
func (s *WatchService) Remove(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info("Watch removed", zap.Int64("watch_id", id))
	}
	return ok, nil
}

// ListFilters каталог одного вида. examinations ищет по типу DiagnosticProcedure.
func (s *WatchService) ListFilters(ctx context.Context, q FilterQuery) ([]model.IDValue, error) {
	provider, err := s.accounts.UseAccount(ctx, q.Account)
	if err != nil {
		return nil, err
	}

	params := medicover.FilterParams{Type: model.WatchTypeStandard}
	switch q.Kind {
	case FilterRegions, FilterSpecialties:
	case FilterClinics, FilterDoctors:
		params.Region, params.Specialty = q.Region, q.Specialty
	case FilterExaminations:
		params.Region, params.Specialty = q.Region, q.Specialty
		params.Type = model.WatchTypeExamination
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilterKind, q.Kind)
	}

	filters, err := provider.FindFilters(ctx, params)
	if err != nil {
		return nil, err
	}
	switch q.Kind {
	case FilterRegions:
		return medicover.IDValues(filters.Regions), nil
	case FilterClinics:
		return medicover.IDValues(filters.Clinics), nil
	case FilterDoctors:
		return medicover.IDValues(filters.Doctors), nil
	default:
		return medicover.IDValues(filters.Specialties), nil
	}
}

func (s *WatchService) knownAlias(alias string) bool {
	for _, a := range s.accounts.Aliases() {
		if a == alias {
			return true
		}
	}
	return false
}

// ClearStale удаляет прошедшие слоты и закончившиеся watch.
// Слоты хранятся в настенном времени провайдера, now переводится в него же.
func ClearStale(ctx context.Context, watches WatchStore, appointments AppointmentStore, now time.Time, logger *zap.Logger) error {
	now = model.ProviderWallClock(now)
	if _, err := appointments.DeletePast(ctx, now); err != nil {
		return err
	}
	removed, err := watches.DeleteEnded(ctx, model.DateOf(now))
	if err != nil {
		return err
	}
	logger.Info("Database cleared of old appointments and ended watches", zap.Int64("watches_removed", removed))
	return nil
}
