package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// FlexID id, который провайдер присылает то числом, то строкой
type FlexID int64

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", data, err)
	}
	*f = FlexID(v)
	return nil
}

// FlexString строковое значение, которое может прийти числом
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parse value %s: %w", data, err)
	}
	*f = FlexString(n.String())
	return nil
}

// RawRef ссылка в ответе провайдера
type RawRef struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// RawAppointment запись слота или запланированного визита из API провайдера
type RawAppointment struct {
	ID              FlexString `json:"id,omitempty"`
	AppointmentDate string     `json:"appointmentDate,omitempty"`
	Date            string     `json:"date,omitempty"`
	Clinic          *RawRef    `json:"clinic"`
	Doctor          *RawRef    `json:"doctor"`
	Specialty       *RawRef    `json:"specialty"`
	VisitType       string     `json:"visitType"`
	BookingString   string     `json:"bookingString,omitempty"`
}

var ErrIncompleteAppointment = errors.New("incomplete appointment record")

var providerTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// ParseProviderTime разбирает время провайдера, сохраняя "настенное" время
func ParseProviderTime(s string) (time.Time, error) {
	for _, layout := range providerTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.Date()
			hh, mm, ss := t.Clock()
			return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", s)
}

// ToAppointment строит Appointment из записи провайдера.
// Ключ "date" используется вместо "appointmentDate", если он есть.
func (r *RawAppointment) ToAppointment() (*Appointment, error) {
	if r.Clinic == nil || r.Specialty == nil {
		return nil, ErrIncompleteAppointment
	}

	dateStr := r.AppointmentDate
	if r.Date != "" {
		dateStr = r.Date
	}
	dt, err := ParseProviderTime(dateStr)
	if err != nil {
		return nil, err
	}

	doctor := IDValue{ID: 0, Label: AmbulatoryDoctorLabel}
	if r.Doctor != nil {
		doctor = IDValue{ID: int64(r.Doctor.ID), Label: r.Doctor.Name}
	}

	return &Appointment{
		Clinic:        IDValue{ID: int64(r.Clinic.ID), Label: r.Clinic.Name},
		Doctor:        doctor,
		Specialty:     IDValue{ID: int64(r.Specialty.ID), Label: r.Specialty.Name},
		DateTime:      dt,
		VisitType:     r.VisitType,
		BookingString: r.BookingString,
	}, nil
}
