package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/transit-services/internal/collaborator"
	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/events"
	"github.com/spec-kit/transit-services/internal/repository"
)

type fakeDirectory struct {
	creds map[string]domain.Credential
	err   error
	calls int
}

func (f *fakeDirectory) LookupByEmail(_ context.Context, email string) (*domain.Credential, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cred, ok := f.creds[strings.ToLower(email)]
	if !ok {
		return nil, collaborator.ErrNotFound
	}
	return &cred, nil
}

type fakeThrottle struct {
	locked   bool
	failures map[string]int
	resets   int
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{failures: map[string]int{}}
}

func (f *fakeThrottle) Locked(context.Context, string) bool { return f.locked }
func (f *fakeThrottle) RecordFailure(_ context.Context, username string) {
	f.failures[username]++
}
func (f *fakeThrottle) Reset(context.Context, string) { f.resets++ }

type fakeUserRepo struct {
	mu       sync.Mutex
	nextID   int64
	profiles map[domain.Role]map[int64]*domain.Profile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{profiles: map[domain.Role]map[int64]*domain.Profile{}}
}

func (f *fakeUserRepo) emailTaken(email string, exceptUser int64) bool {
	for _, byID := range f.profiles {
		for _, p := range byID {
			if p.User.Email == email && p.UserID != exceptUser {
				return true
			}
		}
	}
	return false
}

func (f *fakeUserRepo) CreateWithProfile(_ context.Context, user *domain.User, driver *domain.DriverDetails) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emailTaken(user.Email, 0) {
		return nil, repository.ErrDuplicate
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	p := &domain.Profile{ID: f.nextID * 10, UserID: user.ID, User: *user}
	if driver != nil {
		d := *driver
		p.Driver = &d
	}
	if f.profiles[user.Role] == nil {
		f.profiles[user.Role] = map[int64]*domain.Profile{}
	}
	f.profiles[user.Role][p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, byID := range f.profiles {
		for _, p := range byID {
			if p.User.Email == email {
				u := p.User
				return &u, nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListProfiles(_ context.Context, role domain.Role) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Profile, 0)
	for _, p := range f.profiles[role] {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeUserRepo) GetProfile(_ context.Context, role domain.Role, id int64) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[role][id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	if p.Driver != nil {
		d := *p.Driver
		cp.Driver = &d
	}
	return &cp, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, role domain.Role, profile *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[role][profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	if f.emailTaken(profile.User.Email, profile.UserID) {
		return repository.ErrDuplicate
	}
	cp := *profile
	f.profiles[role][profile.ID] = &cp
	return nil
}

func (f *fakeUserRepo) DeleteProfile(_ context.Context, role domain.Role, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[role][id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.profiles[role], id)
	return nil
}

type fakeTripRepo struct {
	mu     sync.Mutex
	nextID int64
	trips  map[int64]domain.Trip
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: map[int64]domain.Trip{}}
}

func (f *fakeTripRepo) conflicts(trip *domain.Trip) bool {
	for id, existing := range f.trips {
		if id != trip.ID && existing.BusID == trip.BusID && existing.DepartureTime.Equal(trip.DepartureTime) {
			return true
		}
	}
	return false
}

func (f *fakeTripRepo) Create(_ context.Context, trip *domain.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts(trip) {
		return repository.ErrDuplicate
	}
	f.nextID++
	trip.ID = f.nextID
	f.trips[trip.ID] = *trip
	return nil
}

func (f *fakeTripRepo) Update(_ context.Context, trip *domain.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.trips[trip.ID]; !ok {
		return pgx.ErrNoRows
	}
	if f.conflicts(trip) {
		return repository.ErrDuplicate
	}
	f.trips[trip.ID] = *trip
	return nil
}

func (f *fakeTripRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.trips[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.trips, id)
	return nil
}

func (f *fakeTripRepo) GetByID(_ context.Context, id int64) (*domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (f *fakeTripRepo) List(_ context.Context) ([]domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Trip, 0, len(f.trips))
	for _, t := range f.trips {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTripRepo) Search(_ context.Context, routeID int64, day time.Time) ([]domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Trip, 0)
	for _, t := range f.trips {
		if t.RouteID == routeID && t.DepartureDate.Equal(day) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeChecker struct {
	missing map[domain.ResourceKind]int64
	err     error
	checked []domain.ResourceKind
}

func (f *fakeChecker) Exists(_ context.Context, kind domain.ResourceKind, id int64) (bool, error) {
	f.checked = append(f.checked, kind)
	if f.err != nil {
		return false, f.err
	}
	if missingID, ok := f.missing[kind]; ok && missingID == id {
		return false, nil
	}
	return true, nil
}

type recordingDispatcher struct {
	events.Dispatcher
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher()}
}

func (r *recordingDispatcher) Publish(ctx context.Context, e events.Event) error {
	r.published = append(r.published, e)
	return r.Dispatcher.Publish(ctx, e)
}

func (r *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, 0, len(r.published))
	for _, e := range r.published {
		out = append(out, e.Type)
	}
	return out
}
