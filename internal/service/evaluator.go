package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/medicony/internal/lock"
	"github.com/Freeeeeet/medicony/internal/matcher"
	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/metrics"
	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/Freeeeeet/medicony/internal/notify"
	"github.com/Freeeeeet/medicony/internal/pace"
	"go.uber.org/zap"
)

// Interval границы случайной паузы
type Interval struct {
	Min, Max time.Duration
}

// Delays паузы цикла обхода watch
type Delays struct {
	BeforeSearch Interval
	NoResults    Interval
	Cooldown     Interval
}

func DefaultDelays() Delays {
	return Delays{
		BeforeSearch: Interval{2 * time.Second, 10 * time.Second},
		NoResults:    Interval{5 * time.Second, 15 * time.Second},
		Cooldown:     Interval{10 * time.Second, 30 * time.Second},
	}
}

// RemovalPolicy что делать с watch после успешного автобронирования
type RemovalPolicy func(ctx context.Context, store WatchStore, w *model.Watch) error

// RemoveWatch удаляет watch целиком
func RemoveWatch(ctx context.Context, store WatchStore, w *model.Watch) error {
	removed, err := store.Delete(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("remove watch %d: %w", w.ID, err)
	}
	if !removed {
		return fmt.Errorf("remove watch %d: %w", w.ID, ErrWatchNotFound)
	}
	return nil
}

// EvaluatorConfig зависимости Evaluator
type EvaluatorConfig struct {
	Watches       WatchStore
	History       *History
	Accounts      Accounts
	Notifier      Notifier
	Locker        lock.Locker
	Removal       RemovalPolicy
	Metrics       *metrics.Metrics
	Pauser        pace.Pauser
	Delays        Delays
	ThresholdDays int
	Now           func() time.Time
}

// Evaluator один проход по всем watch: поиск, автобронирование или уведомление
type Evaluator struct {
	watches       WatchStore
	history       *History
	accounts      Accounts
	notifier      Notifier
	locker        lock.Locker
	removal       RemovalPolicy
	metrics       *metrics.Metrics
	pauser        pace.Pauser
	delays        Delays
	thresholdDays int
	now           func() time.Time
	logger        *zap.Logger
}

func NewEvaluator(cfg EvaluatorConfig, logger *zap.Logger) *Evaluator {
	e := &Evaluator{
		watches:       cfg.Watches,
		history:       cfg.History,
		accounts:      cfg.Accounts,
		notifier:      cfg.Notifier,
		locker:        cfg.Locker,
		removal:       cfg.Removal,
		metrics:       cfg.Metrics,
		pauser:        cfg.Pauser,
		delays:        cfg.Delays,
		thresholdDays: cfg.ThresholdDays,
		now:           cfg.Now,
		logger:        logger,
	}
	if e.removal == nil {
		e.removal = RemoveWatch
	}
	if e.locker == nil {
		e.locker = lock.NewLocalLocker()
	}
	if e.pauser == nil {
		e.pauser = pace.Random{}
	}
	if e.notifier == nil {
		e.notifier = notify.NewLog(logger)
	}
	if e.thresholdDays <= 0 {
		e.thresholdDays = model.DefaultActivityThresholdDays
	}
	if e.now == nil {
		e.now = model.ProviderNow
	}
	return e
}

// RunCycle оценивает все watch по порядку. Ошибка одного watch не прерывает цикл,
// возвращаются только ошибка загрузки списка и отмена контекста.
func (e *Evaluator) RunCycle(ctx context.Context) error {
	started := time.Now()
	defer func() { e.metrics.ObserveCycle(time.Since(started).Seconds()) }()

	e.logger.Info("=== Evaluating watches")
	watches, err := e.watches.List(ctx)
	if err != nil {
		return fmt.Errorf("load watches: %w", err)
	}
	if len(watches) == 0 {
		e.logger.Info("No watches found in the database, finishing search")
		return nil
	}

	for _, w := range watches {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.logger.Info("Watch", zap.String("watch", w.ShortString()))

		status := w.Status(e.thresholdDays, e.now())
		if status != model.WatchActive {
			e.logger.Info("Watch is not active, skipping",
				zap.Int64("watch_id", w.ID),
				zap.String("status", string(status)),
			)
			e.metrics.ObserveWatch(strings.ToLower(string(status)))
			continue
		}

		if err := e.evaluateWatch(ctx, w); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Error("Watch evaluation failed", zap.Int64("watch_id", w.ID), zap.Error(err))
			e.metrics.ObserveWatch("failed")
		} else {
			e.metrics.ObserveWatch("evaluated")
		}

		if err := e.pauser.Pause(ctx, e.delays.Cooldown.Min, e.delays.Cooldown.Max); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) evaluateWatch(ctx context.Context, w *model.Watch) error {
	alias := w.Account
	if alias == "" {
		alias = e.accounts.DefaultAlias()
	}
	provider, err := e.accounts.UseAccount(ctx, alias)
	if err != nil {
		return fmt.Errorf("switch to account %s: %w", alias, err)
	}

	for _, specialty := range w.Specialties {
		if err := e.pauser.Pause(ctx, e.delays.BeforeSearch.Min, e.delays.BeforeSearch.Max); err != nil {
			return err
		}

		found, err := provider.FindAppointments(ctx, medicover.SearchParams{
			Region:     w.Region.ID,
			City:       w.City,
			Specialty:  specialty.ID,
			Clinic:     w.ClinicID(),
			Doctor:     w.DoctorID(),
			StartDate:  w.StartDate,
			Type:       w.Type,
			Exclusions: w.Exclusions,
		})
		if err != nil {
			return err
		}
		e.metrics.ObserveFound(string(w.Type), len(found))

		if len(found) == 0 {
			if err := e.pauser.Pause(ctx, e.delays.NoResults.Min, e.delays.NoResults.Max); err != nil {
				return err
			}
			continue
		}

		if w.AutoBook {
			return e.autobookLocked(ctx, provider, w, specialty, found)
		}
		if err := e.filterAndNotify(ctx, w, found); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) autobookLocked(ctx context.Context, provider Provider, w *model.Watch, specialty model.IDValue, found []*model.Appointment) error {
	err := e.locker.WithLock(ctx, lock.WatchKey(w.ID), func(ctx context.Context) error {
		_, err := e.Autobook(ctx, provider, w, specialty, found)
		return err
	})
	if errors.Is(err, lock.ErrLockNotAcquired) {
		e.logger.Warn("Autobooking already in progress elsewhere, skipping", zap.Int64("watch_id", w.ID))
		return nil
	}
	return err
}

// Autobook бронирует первый слот из диапазона дат watch, попадающий во временное окно.
// Неудачная бронь переходит к следующему кандидату. После успеха watch снимается политикой удаления.
func (e *Evaluator) Autobook(ctx context.Context, provider Provider, w *model.Watch, specialty model.IDValue, found []*model.Appointment) (*model.Appointment, error) {
	if w.StartDate.IsZero() {
		e.logger.Error("Autobooking requires a start date, skipping autobooking", zap.Int64("watch_id", w.ID))
		return nil, nil
	}

	criteria := matcher.Criteria{Specialty: specialty.ID, Clinic: w.ClinicID(), Doctor: w.DoctorID()}
	candidates := matcher.MatchWithinDateRange(criteria, w.StartDate, w.EndDate, found)

	// начатая бронь доводится до конца вместе с записью в историю и снятием watch
	bookCtx := context.WithoutCancel(ctx)

	for _, candidate := range candidates {
		if !w.TimeRange.Contains(candidate.DateTime) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logger.Info("Autobooking appointment", zap.Int64("watch_id", w.ID))
		logLines(e.logger, candidate.Lines())

		booked, err := provider.BookAppointment(bookCtx, candidate, w.Type)
		if err != nil || booked == nil {
			e.metrics.ObserveBooking(bookingOutcome(err))
			e.logger.Error("Error while booking appointment, trying next", zap.Error(err))
			continue
		}
		e.metrics.ObserveBooking("success")

		if err := e.history.Upsert(bookCtx, booked); err != nil {
			e.logger.Error("Failed to save booked appointment", zap.Error(err))
		}
		if err := e.removal(bookCtx, e.watches, w); err != nil {
			e.logger.Warn("Watch was not removed after booking", zap.Int64("watch_id", w.ID), zap.Error(err))
		}

		e.logger.Info("Booking result", zap.String("appointment", booked.String()))
		e.notifier.Notify(bookCtx, "Autobooked appointment", []string{booked.String()})
		e.logger.Info("Finished autobooking", zap.Int64("watch_id", w.ID))
		return booked, nil
	}

	e.logger.Info("Finished autobooking, no candidate booked", zap.Int64("watch_id", w.ID))
	return nil, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, medicover.ErrPriceNotFree):
		return "not_free"
	case errors.Is(err, medicover.ErrBookingFailed):
		return "rejected"
	default:
		return "error"
	}
}

func (e *Evaluator) filterAndNotify(ctx context.Context, w *model.Watch, found []*model.Appointment) error {
	fresh, err := e.history.SaveAndFilterNew(ctx, found)
	if err != nil {
		return err
	}

	matching := make([]*model.Appointment, 0, len(fresh))
	for _, a := range fresh {
		if w.TimeRange.Contains(a.DateTime) {
			matching = append(matching, a)
		}
	}

	e.logger.Info("New appointments found", zap.Int64("watch_id", w.ID), zap.Int("count", len(matching)))
	for _, a := range matching {
		logLines(e.logger, a.Lines())
	}
	if len(matching) == 0 {
		return nil
	}

	title := matching[0].Specialty.Label
	if title == "" {
		title = "New appointments"
	}
	e.notifier.Notify(ctx, title, model.AppointmentStrings(matching))
	return nil
}

// logLines пишет многострочное представление между разделителями
func logLines(logger *zap.Logger, lines []string) {
	logger.Info(notify.Separator)
	for _, line := range lines {
		logger.Info(line)
	}
	logger.Info(notify.Separator)
}
