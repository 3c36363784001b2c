package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// WatchType тип поиска у провайдера (SlotSearchType)
type WatchType string

const (
	WatchTypeStandard    WatchType = "Standard"
	WatchTypeExamination WatchType = "DiagnosticProcedure"
)

// ParseWatchType принимает значение API или короткое имя
func ParseWatchType(s string) (WatchType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return WatchTypeStandard, nil
	case "diagnosticprocedure", "examination":
		return WatchTypeExamination, nil
	default:
		return "", fmt.Errorf("unknown watch type %q", s)
	}
}

// WatchActiveStatus производный статус, не хранится
type WatchActiveStatus string

const (
	WatchActive   WatchActiveStatus = "Active"
	WatchInactive WatchActiveStatus = "Inactive"
	WatchExpired  WatchActiveStatus = "Expired"
)

const DefaultActivityThresholdDays = 14

// Специальности врача общей практики ищутся одним watch
var (
	GeneralPractitionerSpecialties = []int64{9, 1586, 7338}
	GeneralPractitionerLabel       = "General Practitioner - Medycyna ogólna"
)

var (
	ErrNoSpecialty       = errors.New("watch needs at least one specialty")
	ErrStartAfterEnd     = errors.New("start date cannot be after end date")
	ErrStartDateRequired = errors.New("autobooking requires a start date")
)

// Watch сохранённые критерии периодического поиска
type Watch struct {
	ID          int64
	Region      IDValue
	City        string
	Specialties []IDValue
	Clinic      *IDValue
	Doctor      *IDValue
	StartDate   time.Time
	EndDate     time.Time // MaxDate - без верхней границы
	TimeRange   TimeRange
	AutoBook    bool
	Exclusions  Exclusions
	Type        WatchType
	Account     string
}

// Normalize заполняет умолчания и проверяет инварианты
func (w *Watch) Normalize() error {
	if len(w.Specialties) == 0 {
		return ErrNoSpecialty
	}
	if w.StartDate.IsZero() {
		w.StartDate = Today()
	}
	if w.EndDate.IsZero() {
		w.EndDate = MaxDate
	}
	w.StartDate = DateOf(w.StartDate)
	w.EndDate = DateOf(w.EndDate)
	if w.StartDate.After(w.EndDate) {
		return ErrStartAfterEnd
	}
	if w.Type == "" {
		w.Type = WatchTypeStandard
	}
	if w.City == "" {
		w.City = "any"
	}
	return nil
}

// ClinicID 0, если клиника не задана
func (w *Watch) ClinicID() int64 {
	if w.Clinic == nil {
		return 0
	}
	return w.Clinic.ID
}

// DoctorID 0, если врач не задан
func (w *Watch) DoctorID() int64 {
	if w.Doctor == nil {
		return 0
	}
	return w.Doctor.ID
}

// Status вычисляет статус относительно даты asOf:
// старт позже asOf+threshold - Inactive, конец раньше asOf - Expired.
func (w *Watch) Status(thresholdDays int, asOf time.Time) WatchActiveStatus {
	asOf = DateOf(asOf)
	threshold := asOf.AddDate(0, 0, thresholdDays)

	if DateOf(w.StartDate).After(threshold) {
		return WatchInactive
	}
	if !w.EndDate.IsZero() && DateOf(w.EndDate).Before(asOf) {
		return WatchExpired
	}
	return WatchActive
}

// IsGeneralPractitioner watch ищет по составной специальности GP
func (w *Watch) IsGeneralPractitioner() bool {
	ids := make([]int64, 0, len(w.Specialties))
	for _, s := range w.Specialties {
		ids = append(ids, s.ID)
	}
	return slices.Equal(ids, GeneralPractitionerSpecialties)
}

type watchDescription struct {
	region, specialty, clinic, doctor string
	dateRange, exclusions, account    string
}

func (w *Watch) describe() watchDescription {
	d := watchDescription{
		region:  w.Region.Display(),
		clinic:  "any",
		doctor:  "any",
		account: "default",
	}

	labelled := false
	parts := make([]string, 0, len(w.Specialties))
	for _, s := range w.Specialties {
		labelled = labelled || s.Label != ""
		parts = append(parts, s.Display())
	}
	d.specialty = strings.Join(parts, ", ")
	if !labelled && w.IsGeneralPractitioner() {
		d.specialty = "GP (" + IDsString(w.Specialties) + ")"
	}

	if w.Clinic != nil {
		d.clinic = w.Clinic.Display()
	}
	if w.Doctor != nil && (w.Doctor.ID != 0 || w.Doctor.Label != "") {
		d.doctor = w.Doctor.Display()
	}

	end := "*"
	if !w.EndDate.IsZero() && !IsMaxDate(w.EndDate) {
		end = w.EndDate.Format(DateLayout)
	}
	d.dateRange = w.StartDate.Format(DateLayout) + "–" + end

	d.exclusions = "none"
	if len(w.Exclusions) > 0 {
		d.exclusions = w.Exclusions.Flatten()
	}
	if w.Account != "" {
		d.account = w.Account
	}
	return d
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (w *Watch) String() string {
	d := w.describe()
	return fmt.Sprintf(
		"ID %d\nRegion: %s\nCity: %s\nType: %s\nSpecialty: %s\nClinic: %s\nDoctor: %s\nDate range: %s\nTime range: %s\nAutobook: %s\nExclusions: %s\nAccount: %s",
		w.ID, d.region, w.City, w.Type, d.specialty, d.clinic, d.doctor,
		d.dateRange, w.TimeRange, yesNo(w.AutoBook), d.exclusions, d.account,
	)
}

// ShortString однострочное представление для логов цикла
func (w *Watch) ShortString() string {
	d := w.describe()
	return fmt.Sprintf(
		"ID %d; r: %s; ci: %s; t: %s; s: %s; cl: %s; d: %s; dr: %s; tr: %s; ab: %s; excl: %s; acc: %s",
		w.ID, d.region, w.City, w.Type, d.specialty, d.clinic, d.doctor,
		d.dateRange, w.TimeRange, yesNo(w.AutoBook), d.exclusions, d.account,
	)
}

// WatchStrings отображения для уведомлений
func WatchStrings(watches []*Watch) []string {
	out := make([]string, 0, len(watches))
	for _, w := range watches {
		out = append(out, w.String())
	}
	return out
}

// WatchUpdate частичное изменение watch, nil - оставить как есть
type WatchUpdate struct {
	City       *string
	Clinic     *int64
	StartDate  *time.Time
	EndDate    *time.Time
	TimeRange  *TimeRange
	Exclusions *Exclusions
	AutoBook   *bool
	Account    *string
}

// IsEmpty нечего обновлять
func (u WatchUpdate) IsEmpty() bool {
	return u.City == nil && u.Clinic == nil && u.StartDate == nil && u.EndDate == nil &&
		u.TimeRange == nil && u.Exclusions == nil && u.AutoBook == nil && u.Account == nil
}
