package service

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/model"
)

type memWatchStore struct {
	mu      sync.Mutex
	watches []*model.Watch
	nextID  int64
	updates map[int64]model.WatchUpdate
}

func newMemWatchStore(watches ...*model.Watch) *memWatchStore {
	s := &memWatchStore{nextID: 100, updates: map[int64]model.WatchUpdate{}}
	s.watches = append(s.watches, watches...)
	return s
}

func (s *memWatchStore) List(context.Context) ([]*model.Watch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Watch, 0, len(s.watches))
	for _, w := range s.watches {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memWatchStore) GetByID(_ context.Context, id int64) (*model.Watch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watches {
		if w.ID == id {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memWatchStore) Create(_ context.Context, w *model.Watch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	w.ID = s.nextID
	s.watches = append(s.watches, w)
	return w.ID, nil
}

func (s *memWatchStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.watches {
		if w.ID == id {
			s.watches = append(s.watches[:i], s.watches[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memWatchStore) Update(_ context.Context, id int64, u model.WatchUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watches {
		if w.ID == id {
			s.updates[id] = u
			return true, nil
		}
	}
	return false, nil
}

func (s *memWatchStore) DeleteEnded(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *memWatchStore) ids() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, w := range s.watches {
		ids = append(ids, w.ID)
	}
	return ids
}

type memAppointmentStore struct {
	mu         sync.Mutex
	rows       []*model.Appointment
	nextID     int64
	pastBefore time.Time
}

func (s *memAppointmentStore) find(a *model.Appointment) *model.Appointment {
	for _, r := range s.rows {
		if r.Clinic.ID == a.Clinic.ID && r.Doctor.ID == a.Doctor.ID && r.DateTime.Equal(a.DateTime) {
			return r
		}
	}
	return nil
}

func (s *memAppointmentStore) Exists(_ context.Context, a *model.Appointment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(a) != nil, nil
}

func (s *memAppointmentStore) AddHistory(_ context.Context, a *model.Appointment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cp := *a
	cp.RowID = s.nextID
	s.rows = append(s.rows, &cp)
	return cp.RowID, nil
}

func (s *memAppointmentStore) Update(_ context.Context, a *model.Appointment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.find(a)
	if r == nil {
		return false, nil
	}
	r.Specialty, r.VisitType = a.Specialty, a.VisitType
	r.BookingString, r.BookingIdentifier, r.Account = a.BookingString, a.BookingIdentifier, a.Account
	return true, nil
}

func (s *memAppointmentStore) ListBooked(context.Context) ([]*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Appointment
	for _, r := range s.rows {
		if r.IsBooked() {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memAppointmentStore) GetByID(_ context.Context, id int64) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.RowID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memAppointmentStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.RowID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memAppointmentStore) DeletePast(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pastBefore = before
	return 0, nil
}

type stubProvider struct {
	alias    string
	find     func(p medicover.SearchParams) ([]*model.Appointment, error)
	book     func(call int, a *model.Appointment) (*model.Appointment, error)
	cancelOK bool
	filters  *medicover.Filters

	mu          sync.Mutex
	searches    []medicover.SearchParams
	bookCalls   int
	bookCtxErrs []error
	cancels     int
	filterCalls []medicover.FilterParams
}

func (p *stubProvider) Alias() string { return p.alias }

func (p *stubProvider) FindAppointments(_ context.Context, params medicover.SearchParams) ([]*model.Appointment, error) {
	p.mu.Lock()
	p.searches = append(p.searches, params)
	p.mu.Unlock()
	if p.find == nil {
		return []*model.Appointment{}, nil
	}
	return p.find(params)
}

func (p *stubProvider) BookAppointment(ctx context.Context, a *model.Appointment, _ model.WatchType) (*model.Appointment, error) {
	p.mu.Lock()
	p.bookCalls++
	p.bookCtxErrs = append(p.bookCtxErrs, ctx.Err())
	call := p.bookCalls
	p.mu.Unlock()
	if p.book != nil {
		return p.book(call, a)
	}
	out := *a
	out.BookingIdentifier = "booked"
	out.Account = p.alias
	return &out, nil
}

func (p *stubProvider) FindAndBookAppointment(ctx context.Context, params medicover.SearchParams, _ time.Time, _, _ bool) (*model.Appointment, error) {
	found, err := p.FindAppointments(ctx, params)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return p.BookAppointment(ctx, found[0], params.Type)
}

func (p *stubProvider) CancelAppointment(context.Context, *model.Appointment) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancels++
	return p.cancelOK, nil
}

func (p *stubProvider) FindFilters(_ context.Context, params medicover.FilterParams) (*medicover.Filters, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filterCalls = append(p.filterCalls, params)
	if p.filters == nil {
		return &medicover.Filters{}, nil
	}
	return p.filters, nil
}

func (p *stubProvider) UpdateWatchMetadata(_ context.Context, w *model.Watch) error {
	w.Region.Label = "Region " + p.alias
	return nil
}

func (p *stubProvider) UpdateAppointmentMetadata(_ context.Context, a *model.Appointment) error {
	a.Clinic.Label = "Clinic"
	return nil
}

type stubAccounts struct {
	providers map[string]*stubProvider
	order     []string
	failing   map[string]error
}

func newStubAccounts(providers ...*stubProvider) *stubAccounts {
	a := &stubAccounts{providers: map[string]*stubProvider{}, failing: map[string]error{}}
	for _, p := range providers {
		a.providers[p.alias] = p
		a.order = append(a.order, p.alias)
	}
	return a
}

func (a *stubAccounts) UseAccount(_ context.Context, alias string) (Provider, error) {
	if alias == "" {
		alias = a.DefaultAlias()
	}
	if err, ok := a.failing[alias]; ok {
		return nil, err
	}
	p, ok := a.providers[alias]
	if !ok {
		return nil, medicover.ErrUnknownAccount
	}
	return p, nil
}

func (a *stubAccounts) DefaultAlias() string { return a.order[0] }

func (a *stubAccounts) Aliases() []string { return a.order }

type notification struct {
	title    string
	elements []string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, title string, elements []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{title: title, elements: elements})
}

func appointmentAt(specialty, clinic, doctor int64, dt time.Time, bookingString string) *model.Appointment {
	return &model.Appointment{
		Clinic:        model.IDValue{ID: clinic, Label: "Clinic"},
		Doctor:        model.IDValue{ID: doctor, Label: "Doctor"},
		Specialty:     model.IDValue{ID: specialty, Label: "Ortopeda"},
		DateTime:      dt,
		VisitType:     "Center",
		BookingString: bookingString,
	}
}
