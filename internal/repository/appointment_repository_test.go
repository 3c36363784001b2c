package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAppointmentRepo(t *testing.T) (*AppointmentRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewAppointmentRepository(mock, zap.NewNop()), mock
}

func sampleAppointment() *model.Appointment {
	return &model.Appointment{
		Clinic:        model.NewIDValue(174),
		Doctor:        model.NewIDValue(1000),
		Specialty:     model.NewIDValue(52106),
		DateTime:      time.Date(2030, 5, 10, 9, 30, 0, 0, time.UTC),
		VisitType:     "Center",
		BookingString: "bs-1",
	}
}

func TestAppointmentRepositoryExists(t *testing.T) {
	repo, mock := newAppointmentRepo(t)
	a := sampleAppointment()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM appointments WHERE clinic = $1 AND doctor = $2 AND date = $3)`)).
		WithArgs(int64(174), int64(1000), a.DateTime).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryAddHistory(t *testing.T) {
	repo, mock := newAppointmentRepo(t)
	a := sampleAppointment()

	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(int64(174), int64(1000), a.DateTime, int64(52106), "Center", "bs-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(31)))

	id, err := repo.AddHistory(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, int64(31), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdate(t *testing.T) {
	repo, mock := newAppointmentRepo(t)
	a := sampleAppointment()
	a.BookingIdentifier = "987654"
	a.Account = "main"

	mock.ExpectExec(`UPDATE appointments`).
		WithArgs(int64(52106), "Center", "bs-1", "987654", "main", int64(174), int64(1000), a.DateTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.Update(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListBooked(t *testing.T) {
	repo, mock := newAppointmentRepo(t)
	dt := time.Date(2030, 5, 10, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM appointments\s+WHERE booking_identifier IS NOT NULL`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "clinic", "doctor", "date", "specialty", "visit_type",
			"booking_string", "booking_identifier", "account",
		}).AddRow(int64(3), int64(174), int64(1000), dt, int64(52106), "Center", "bs-1", "987654", "main"))

	booked, err := repo.ListBooked(context.Background())
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, int64(3), booked[0].RowID)
	assert.True(t, booked[0].IsBooked())
	assert.Equal(t, "main", booked[0].Account)
	assert.True(t, booked[0].Equal(sampleAppointment()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryDeletePast(t *testing.T) {
	repo, mock := newAppointmentRepo(t)
	now := time.Date(2030, 5, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM appointments WHERE date < \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := repo.DeletePast(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
