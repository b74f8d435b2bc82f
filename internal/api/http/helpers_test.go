package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/observability"
	"github.com/spec-kit/transit-services/internal/repository"
)

const testSecret = "router-test-secret"

func newTestApp(t *testing.T) (*fiber.App, *prometheus.Registry, *observability.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	return app, reg, metrics
}

func bearerFor(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	token, err := auth.NewTokenManager(testSecret, time.Hour).Issue(email, role, 0)
	require.NoError(t, err)
	return "Bearer " + token.Value
}

func doRequest(t *testing.T, app *fiber.App, method, path, contentType, body, authz string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Error.Code
}

type memUserRepo struct {
	mu       sync.Mutex
	nextID   int64
	profiles map[int64]*domain.Profile
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{profiles: map[int64]*domain.Profile{}}
}

func (m *memUserRepo) CreateWithProfile(_ context.Context, user *domain.User, driver *domain.DriverDetails) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.User.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
	}
	m.nextID++
	user.ID = m.nextID
	p := &domain.Profile{ID: m.nextID, UserID: user.ID, User: *user, Driver: driver}
	m.profiles[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.User.Email == email {
			u := p.User
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUserRepo) ListProfiles(_ context.Context, role domain.Role) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Profile{}
	for _, p := range m.profiles {
		if p.User.Role == role {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memUserRepo) GetProfile(_ context.Context, role domain.Role, id int64) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok || p.User.Role != role {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *memUserRepo) UpdateProfile(_ context.Context, role domain.Role, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[profile.ID]; !ok || p.User.Role != role {
		return pgx.ErrNoRows
	}
	cp := *profile
	m.profiles[profile.ID] = &cp
	return nil
}

func (m *memUserRepo) DeleteProfile(_ context.Context, role domain.Role, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; !ok || p.User.Role != role {
		return pgx.ErrNoRows
	}
	delete(m.profiles, id)
	return nil
}

type memTripRepo struct {
	mu     sync.Mutex
	nextID int64
	trips  map[int64]domain.Trip
}

func newMemTripRepo() *memTripRepo {
	return &memTripRepo{trips: map[int64]domain.Trip{}}
}

func (m *memTripRepo) Create(_ context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.BusID == trip.BusID && t.DepartureTime.Equal(trip.DepartureTime) {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	trip.ID = m.nextID
	m.trips[trip.ID] = *trip
	return nil
}

func (m *memTripRepo) Update(_ context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.trips[trip.ID] = *trip
	return nil
}

func (m *memTripRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.trips, id)
	return nil
}

func (m *memTripRepo) GetByID(_ context.Context, id int64) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (m *memTripRepo) List(context.Context) ([]domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		out = append(out, t)
	}
	return out, nil
}

func (m *memTripRepo) Search(_ context.Context, routeID int64, day time.Time) ([]domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Trip{}
	for _, t := range m.trips {
		if t.RouteID == routeID && t.DepartureDate.Equal(day) {
			out = append(out, t)
		}
	}
	return out, nil
}
