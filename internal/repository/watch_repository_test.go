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

var watchColumnNames = []string{
	"id", "region", "city", "specialty", "clinic", "doctor", "start_date", "end_date",
	"time_range", "auto_book", "exclusions", "type", "account",
}

func newWatchRepo(t *testing.T) (*WatchRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWatchRepository(mock, zap.NewNop()), mock
}

func TestWatchRepositoryList(t *testing.T) {
	repo, mock := newWatchRepo(t)
	start := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM watches ORDER BY id`).
		WillReturnRows(pgxmock.NewRows(watchColumnNames).
			AddRow(int64(1), int64(200), "any", "9,1586,7338", int64(0), int64(0),
				start, model.MaxDate, "00:00:00-*", false, "", "Standard", "").
			AddRow(int64(2), int64(204), "Kraków", "52106", int64(174), int64(5),
				start, end, "08:00:00-12:00:00", true, "doctor:1,2", "DiagnosticProcedure", "wife"))

	watches, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, watches, 2)

	gp := watches[0]
	assert.True(t, gp.IsGeneralPractitioner())
	assert.Nil(t, gp.Clinic)
	assert.Nil(t, gp.Doctor)
	assert.True(t, model.IsMaxDate(gp.EndDate))
	assert.True(t, gp.TimeRange.Endless)

	w := watches[1]
	assert.Equal(t, int64(174), w.ClinicID())
	assert.Equal(t, int64(5), w.DoctorID())
	assert.Equal(t, end, w.EndDate)
	assert.True(t, w.AutoBook)
	assert.Equal(t, model.WatchTypeExamination, w.Type)
	assert.Equal(t, "doctor:1,2", w.Exclusions.Flatten())
	assert.Equal(t, "wife", w.Account)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newWatchRepo(t)
	mock.ExpectQuery(`SELECT .* FROM watches WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(watchColumnNames))

	w, err := repo.GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchRepositoryCreate(t *testing.T) {
	repo, mock := newWatchRepo(t)
	w := &model.Watch{
		Region:      model.NewIDValue(200),
		City:        "any",
		Specialties: []model.IDValue{model.NewIDValue(9), model.NewIDValue(1586)},
		StartDate:   time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     model.MaxDate,
		TimeRange:   model.DefaultTimeRange(),
		Type:        model.WatchTypeStandard,
	}

	mock.ExpectQuery(`INSERT INTO watches`).
		WithArgs(int64(200), "any", "9,1586", pgxmock.AnyArg(), pgxmock.AnyArg(), w.StartDate,
			pgxmock.AnyArg(), "00:00:00-*", false, pgxmock.AnyArg(), "Standard", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(15)))

	id, err := repo.Create(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)
	assert.Equal(t, int64(15), w.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchRepositoryPartialUpdate(t *testing.T) {
	repo, mock := newWatchRepo(t)
	city := "Warszawa"
	autoBook := true

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE watches SET city = $1, auto_book = $2 WHERE id = $3`)).
		WithArgs("Warszawa", true, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.Update(context.Background(), 7, model.WatchUpdate{City: &city, AutoBook: &autoBook})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchRepositoryEmptyUpdateChecksExistence(t *testing.T) {
	repo, mock := newWatchRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM watches WHERE id = $1)`)).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.Update(context.Background(), 3, model.WatchUpdate{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchRepositoryDeleteAndDeleteEnded(t *testing.T) {
	repo, mock := newWatchRepo(t)
	today := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM watches WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM watches WHERE end_date IS NOT NULL AND end_date < \$1`).
		WithArgs(today).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	ok, err := repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.DeleteEnded(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
