// Package matcher содержит чистые функции отбора слотов под критерии watch.
package matcher

import (
	"strconv"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
)

// Criteria фильтр по специальности, клинике и врачу. Нулевые Clinic/Doctor - любые.
type Criteria struct {
	Specialty int64
	Clinic    int64
	Doctor    int64
}

func (c Criteria) matches(a *model.Appointment) bool {
	return a.Specialty.ID == c.Specialty &&
		(c.Clinic == 0 || a.Clinic.ID == c.Clinic) &&
		(c.Doctor == 0 || a.Doctor.ID == c.Doctor)
}

// IsExcluded true, если врач или клиника слота в исключениях.
// Прочие категории игнорируются.
func IsExcluded(a *model.Appointment, exclusions model.Exclusions) bool {
	if len(exclusions) == 0 {
		return false
	}
	if exclusions.Contains(model.ExclusionDoctor, strconv.FormatInt(a.Doctor.ID, 10)) {
		return true
	}
	return exclusions.Contains(model.ExclusionClinic, strconv.FormatInt(a.Clinic.ID, 10))
}

// MatchSingleAppointment возвращает первый подходящий слот.
// Флаги точности объединяются через ИЛИ: при обоих флагах достаточно совпадения даты.
func MatchSingleAppointment(
	c Criteria,
	dateTime time.Time,
	appointments []*model.Appointment,
	exactTimeMatch, exactDateMatch bool,
) *model.Appointment {
	for _, a := range appointments {
		if !c.matches(a) {
			continue
		}
		if (!exactTimeMatch && !exactDateMatch) ||
			(exactTimeMatch && a.DateTime.Equal(dateTime)) ||
			(exactDateMatch && model.DateOf(a.DateTime).Equal(model.DateOf(dateTime))) {
			return a
		}
	}
	return nil
}

// MatchWithinDateRange все слоты с датой в [start, end] включительно, порядок сохраняется.
// Нулевой end означает отсутствие верхней границы.
func MatchWithinDateRange(c Criteria, start, end time.Time, appointments []*model.Appointment) []*model.Appointment {
	if end.IsZero() {
		end = model.MaxDate
	}
	start, end = model.DateOf(start), model.DateOf(end)

	matching := make([]*model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		d := model.DateOf(a.DateTime)
		if c.matches(a) && !d.Before(start) && !d.After(end) {
			matching = append(matching, a)
		}
	}
	return matching
}

// MatchSingleAppointmentToBeCanceled ищет среди записей провайдера визит,
// структурно равный target, и возвращает его серверный id.
func MatchSingleAppointmentToBeCanceled(target *model.Appointment, serverSide []model.RawAppointment) (string, bool) {
	for i := range serverSide {
		candidate, err := serverSide[i].ToAppointment()
		if err != nil {
			continue
		}
		if candidate.Equal(target) {
			return string(serverSide[i].ID), true
		}
	}
	return "", false
}
