package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, payload string) *Appointment {
	t.Helper()
	var raw RawAppointment
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	a, err := raw.ToAppointment()
	require.NoError(t, err)
	return a
}

func TestRawAppointmentConversion(t *testing.T) {
	a := decodeRaw(t, `{
		"appointmentDate": "2025-06-02T09:30:00",
		"clinic": {"id": "174", "name": "Warszawa Atrium"},
		"doctor": {"id": 3321, "name": "Jan Kowalski"},
		"specialty": {"id": "52106", "name": "Ortopeda"},
		"visitType": "Center",
		"bookingString": "opaque-token"
	}`)

	assert.Equal(t, int64(174), a.Clinic.ID)
	assert.Equal(t, "Jan Kowalski", a.Doctor.Label)
	assert.Equal(t, int64(52106), a.Specialty.ID)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC), a.DateTime)
	assert.Equal(t, "opaque-token", a.BookingString)
	assert.False(t, a.IsBooked())
}

func TestRawAppointmentNullDoctorAndDateAlias(t *testing.T) {
	a := decodeRaw(t, `{
		"id": 99120,
		"date": "2025-06-02T09:30:00",
		"clinic": {"id": 1, "name": "c"},
		"doctor": null,
		"specialty": {"id": 2, "name": "s"},
		"visitType": "Center"
	}`)

	assert.Equal(t, IDValue{ID: 0, Label: AmbulatoryDoctorLabel}, a.Doctor)
	assert.Equal(t, 9, a.DateTime.Hour())
}

func TestAppointmentEqualityIgnoresLabelsAndBooking(t *testing.T) {
	a := decodeRaw(t, `{"appointmentDate":"2025-06-02T09:30:00","clinic":{"id":1,"name":"A"},
		"doctor":{"id":2,"name":"B"},"specialty":{"id":3,"name":"C"},"visitType":"Center","bookingString":"x"}`)
	b := decodeRaw(t, `{"date":"2025-06-02T09:30:00","clinic":{"id":"1","name":"other"},
		"doctor":{"id":"2","name":""},"specialty":{"id":"3","name":"label"},"visitType":"Center"}`)
	b.BookingIdentifier = "555"
	b.Account = "dad"

	assert.True(t, a.Equal(b))

	b.VisitType = "Phone"
	assert.False(t, a.Equal(b))
}

func TestAppointmentString(t *testing.T) {
	a := &Appointment{
		Clinic:    IDValue{ID: 1, Label: "Atrium"},
		Doctor:    IDValue{ID: 2, Label: "Jan Kowalski"},
		Specialty: IDValue{ID: 3, Label: "Ortopeda"},
		DateTime:  time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
		VisitType: DefaultVisitType,
	}

	assert.Equal(t, "Date: 2025-06-02 09:30:00\nClinic: Atrium\nDoctor: Jan Kowalski\n"+
		"Specialty: Ortopeda\nType: Center\nBooked: No\nAccount: N/A", a.String())

	a.RowID = 12
	a.BookingIdentifier = "777"
	a.Account = "mom"
	lines := a.Lines()
	assert.Equal(t, "ID: 12", lines[0])
	assert.Equal(t, "Booked: Yes (ID: 777)", lines[6])
	assert.Equal(t, "Account: mom", lines[7])
}
