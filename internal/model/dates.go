package model

import (
	"time"
	_ "time/tzdata"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// MaxDate означает "без верхней границы"
var MaxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// DateOf отбрасывает время, оставляя календарную дату в UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProviderZone часовой пояс, в котором провайдер отдаёт время слотов
var ProviderZone = loadProviderZone()

func loadProviderZone() *time.Location {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		return time.Local
	}
	return loc
}

// ProviderWallClock переводит момент в настенное время провайдера, записанное как UTC,
// чтобы сравнивать его со временем слотов из ParseProviderTime
func ProviderWallClock(t time.Time) time.Time {
	w := t.In(ProviderZone)
	y, m, d := w.Date()
	hh, mm, ss := w.Clock()
	return time.Date(y, m, d, hh, mm, ss, w.Nanosecond(), time.UTC)
}

// ProviderNow текущее настенное время провайдера
func ProviderNow() time.Time {
	return ProviderWallClock(time.Now())
}

// Today текущая дата у провайдера
func Today() time.Time {
	return DateOf(ProviderNow())
}

// ParseDate разбирает YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// IsMaxDate проверяет, что дата - бесконечность
func IsMaxDate(t time.Time) bool {
	return !DateOf(t).Before(MaxDate)
}
