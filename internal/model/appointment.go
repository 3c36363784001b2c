package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultVisitType      = "Center"
	AmbulatoryDoctorLabel = "Ambulatory additional visit"
)

// Appointment слот у провайдера. Забронирован, если есть BookingIdentifier.
type Appointment struct {
	RowID             int64 // id строки в БД, 0 если слот ещё не сохранён
	Clinic            IDValue
	Doctor            IDValue
	Specialty         IDValue
	DateTime          time.Time
	VisitType         string
	BookingString     string
	BookingIdentifier string
	Account           string
}

// IsBooked сообщает, подтверждена ли бронь
func (a *Appointment) IsBooked() bool {
	return a.BookingIdentifier != ""
}

// Equal структурное сравнение: клиника, врач, время, специальность, тип визита.
// Подписи и поля бронирования не участвуют.
func (a *Appointment) Equal(other *Appointment) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Clinic.Same(other.Clinic) &&
		a.Doctor.Same(other.Doctor) &&
		a.DateTime.Equal(other.DateTime) &&
		a.Specialty.Same(other.Specialty) &&
		a.VisitType == other.VisitType
}

// Lines построчное представление для логов и уведомлений
func (a *Appointment) Lines() []string {
	lines := make([]string, 0, 8)
	if a.RowID != 0 {
		lines = append(lines, fmt.Sprintf("ID: %d", a.RowID))
	}

	booked := "No"
	if a.IsBooked() {
		booked = "Yes (ID: " + a.BookingIdentifier + ")"
	}
	account := a.Account
	if account == "" {
		account = "N/A"
	}

	return append(lines,
		"Date: "+a.DateTime.Format(DateTimeLayout),
		"Clinic: "+a.Clinic.Label,
		"Doctor: "+a.Doctor.Label,
		"Specialty: "+a.Specialty.Label,
		"Type: "+a.VisitType,
		"Booked: "+booked,
		"Account: "+account,
	)
}

func (a *Appointment) String() string {
	return strings.Join(a.Lines(), "\n")
}

// AppointmentStrings отображения для уведомлений
func AppointmentStrings(appointments []*Appointment) []string {
	out := make([]string, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, a.String())
	}
	return out
}
