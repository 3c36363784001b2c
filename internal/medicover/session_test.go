package medicover

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ortopedaSearch() SearchParams {
	return SearchParams{
		Region:    200,
		City:      "any",
		Specialty: 52106,
		StartDate: time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
		Type:      model.WatchTypeStandard,
	}
}

func TestFindThenBook(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) {
		p.slotItems = []map[string]any{slotItem("bs-1", 174, "Warszawa Chmielna", 1000, 52106, "2030-05-10T09:30:00")}
	})
	ctx := context.Background()

	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	found, err := s.FindAppointments(ctx, ortopedaSearch())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bs-1", found[0].BookingString)
	for key, want := range map[string]string{
		"RegionIds":      "200",
		"SpecialtyIds":   "52106",
		"PageSize":       "5000",
		"StartTime":      "2030-05-01",
		"VisitType":      "Center",
		"SlotSearchType": "Standard",
	} {
		got, _ := p.query(key)
		assert.Equal(t, want, got, key)
	}
	_, hasClinic := p.query("ClinicIds")
	assert.False(t, hasClinic)

	booked, err := s.BookAppointment(ctx, found[0], model.WatchTypeStandard)
	require.NoError(t, err)
	require.NotNil(t, booked)
	assert.Equal(t, "987654", booked.BookingIdentifier)
	assert.Equal(t, "main", booked.Account)
	assert.True(t, booked.IsBooked())
	assert.Equal(t, int32(1), p.bookCalls.Load())
}

func TestPricedAppointmentIsRefused(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) {
		p.price = "50,00 zł"
		p.slotItems = []map[string]any{slotItem("bs-1", 174, "Warszawa", 1000, 52106, "2030-05-10T09:30:00")}
	})
	ctx := context.Background()

	s, err := p.client().UseAccount(ctx, "main")
	require.NoError(t, err)
	found, err := s.FindAppointments(ctx, ortopedaSearch())
	require.NoError(t, err)
	require.Len(t, found, 1)

	booked, err := s.BookAppointment(ctx, found[0], model.WatchTypeStandard)
	assert.Nil(t, booked)
	assert.ErrorIs(t, err, ErrPriceNotFree)
	assert.True(t, IsSemanticFailure(err))
	assert.Equal(t, int32(1), p.priceCalls.Load())
	assert.Equal(t, int32(0), p.bookCalls.Load())
}

func TestUnauthorizedGetReauthenticatesOnce(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) {
		p.slotItems = []map[string]any{slotItem("bs-1", 174, "Warszawa", 1000, 52106, "2030-05-10T09:30:00")}
		p.slots401.Store(1)
	})
	ctx := context.Background()

	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)
	require.Equal(t, int32(1), p.logins.Load())

	found, err := s.FindAppointments(ctx, ortopedaSearch())
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, int32(2), p.logins.Load())
	assert.Equal(t, int32(2), p.slotCalls.Load())
}

func TestUnauthorizedPostRetriesOnceAfterReauth(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) { p.prices401.Store(1) })
	ctx := context.Background()

	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	a := &model.Appointment{
		Clinic:        model.NewIDValue(174),
		Doctor:        model.NewIDValue(1000),
		Specialty:     model.NewIDValue(52106),
		DateTime:      time.Date(2030, 5, 10, 9, 30, 0, 0, time.UTC),
		VisitType:     "Center",
		BookingString: "bs-1",
	}
	booked, err := s.BookAppointment(ctx, a, model.WatchTypeStandard)
	require.NoError(t, err)
	assert.Equal(t, "987654", booked.BookingIdentifier)
	assert.Equal(t, int32(2), p.logins.Load())
	assert.Equal(t, int32(2), p.priceCalls.Load())
	assert.False(t, a.IsBooked())
}

func TestFindAppointmentsFiltersCityAndExclusions(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) {
		p.slotItems = []map[string]any{
			slotItem("a", 1, "Warszawa Chmielna", 10, 52106, "2030-05-10T09:30:00"),
			slotItem("b", 2, "Kraków Centrum", 11, 52106, "2030-05-10T10:30:00"),
			slotItem("c", 3, "Warszawa Wola", 12, 52106, "2030-05-10T11:30:00"),
			slotItem("d", 4, "Warszawa Mokotów", 13, 52106, "2030-05-10T12:30:00"),
		}
	})
	ctx := context.Background()
	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	excl, err := model.ParseExclusions("doctor:12;clinic:4")
	require.NoError(t, err)
	params := ortopedaSearch()
	params.City = "Warszawa"
	params.Clinic = 1
	params.Exclusions = excl

	found, err := s.FindAppointments(ctx, params)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a", found[0].BookingString)
	clinic, _ := p.query("ClinicIds")
	assert.Equal(t, "1", clinic)
}

func TestFindAppointmentsEmptyIsNotNil(t *testing.T) {
	p := newFakeProvider(t)
	ctx := context.Background()
	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	found, err := s.FindAppointments(ctx, ortopedaSearch())
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestFindAppointmentsEmptyArray(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) {
		p.slotItems = []map[string]any{}
	})
	ctx := context.Background()
	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	found, err := s.FindAppointments(ctx, ortopedaSearch())
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestFindAppointmentsMissingItemsIsMalformed(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) {
		p.omitItems = true
	})
	ctx := context.Background()
	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	found, err := s.FindAppointments(ctx, ortopedaSearch())
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Nil(t, found)
}

func TestFindAndBookAppointment(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) {
		p.slotItems = []map[string]any{
			slotItem("early", 174, "Warszawa", 1000, 52106, "2030-05-10T08:00:00"),
			slotItem("wanted", 174, "Warszawa", 1000, 52106, "2030-05-11T09:30:00"),
		}
	})
	ctx := context.Background()
	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	booked, err := s.FindAndBookAppointment(ctx, ortopedaSearch(),
		time.Date(2030, 5, 11, 9, 30, 0, 0, time.UTC), true, true)
	require.NoError(t, err)
	require.NotNil(t, booked)
	assert.Equal(t, "wanted", booked.BookingString)

	none, err := s.FindAndBookAppointment(ctx, ortopedaSearch(),
		time.Date(2030, 6, 1, 9, 30, 0, 0, time.UTC), true, true)
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestCancelAppointment(t *testing.T) {
	planned := slotItem("", 174, "Warszawa", 1000, 52106, "2030-05-10T09:30:00")
	planned["id"] = "srv-42"
	other := slotItem("", 175, "Warszawa", 1000, 52106, "2030-05-10T09:30:00")
	other["id"] = "srv-43"

	p := newFakeProvider(t, func(p *fakeProvider) {
		p.plannedItems = []map[string]any{other, planned}
	})
	ctx := context.Background()
	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	target := &model.Appointment{
		Clinic:    model.NewIDValue(174),
		Doctor:    model.NewIDValue(1000),
		Specialty: model.NewIDValue(52106),
		DateTime:  time.Date(2030, 5, 10, 9, 30, 0, 0, time.UTC),
		VisitType: "Center",
	}
	ok, err := s.CancelAppointment(ctx, target)
	require.NoError(t, err)
	assert.True(t, ok)

	target.Clinic = model.NewIDValue(999)
	ok, err = s.CancelAppointment(ctx, target)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(1), p.deleteCalls.Load())
}

func TestUseAccountLazyAndUnknown(t *testing.T) {
	p := newFakeProvider(t)
	c := p.client(
		model.Account{Alias: "first", Username: "u1", Password: testPassword},
		model.Account{Alias: "second", Username: "u2", Password: testPassword},
	)
	ctx := context.Background()

	assert.Equal(t, "first", c.DefaultAlias())
	assert.Equal(t, []string{"first", "second"}, c.Aliases())
	assert.Equal(t, int32(0), p.logins.Load())

	s, err := c.UseAccount(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", s.Alias())
	_, err = c.UseAccount(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.logins.Load())

	_, err = c.UseAccount(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestUpdateWatchMetadata(t *testing.T) {
	p := newFakeProvider(t, func(p *fakeProvider) {
		p.filters = map[string]any{
			"regions":     []map[string]string{{"id": "200", "value": "Warszawa"}},
			"specialties": []map[string]string{{"id": "52106", "value": "Ortopeda"}},
			"clinics":     []map[string]string{{"id": "174", "value": "Chmielna"}},
			"doctors":     []map[string]string{},
		}
	})
	ctx := context.Background()
	s, err := p.client().UseAccount(ctx, "")
	require.NoError(t, err)

	clinic := model.NewIDValue(174)
	doctor := model.NewIDValue(5)
	w := &model.Watch{
		ID:          1,
		Region:      model.NewIDValue(200),
		Specialties: []model.IDValue{model.NewIDValue(52106), model.NewIDValue(77)},
		Clinic:      &clinic,
		Doctor:      &doctor,
		Type:        model.WatchTypeStandard,
	}
	require.NoError(t, s.UpdateWatchMetadata(ctx, w))

	assert.Equal(t, "Warszawa", w.Region.Label)
	assert.Equal(t, "Ortopeda", w.Specialties[0].Label)
	assert.Equal(t, "N/A", w.Specialties[1].Label)
	assert.Equal(t, "Chmielna", w.Clinic.Label)
	assert.Empty(t, w.Doctor.Label)
}
