package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/persistence"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestProfileTable(t *testing.T) {
	table, err := profileTable(domain.RoleDriver)
	require.NoError(t, err)
	assert.Equal(t, "drivers", table)

	_, err = profileTable(domain.Role("staff"))
	require.Error(t, err)
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, persistence.MigrationsUsers, zap.NewNop()))
	require.NoError(t, persistence.RunMigrations(ctx, pool, persistence.MigrationsTrips, zap.NewNop()))
	return pool
}

func TestUserRepositoryLifecycle(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	email := fmt.Sprintf("driver-%d@x.com", time.Now().UnixNano())
	user := &domain.User{FirstName: "Dan", LastName: "Ray", Email: email, PasswordHash: "hash", Role: domain.RoleDriver}
	profile, err := repo.CreateWithProfile(ctx, user, &domain.DriverDetails{LicenseNumber: "L-1", OperatorName: "Metro"})
	require.NoError(t, err)
	assert.NotZero(t, profile.ID)

	_, err = repo.CreateWithProfile(ctx, &domain.User{FirstName: "X", LastName: "Y", Email: email, PasswordHash: "h", Role: domain.RolePassenger}, nil)
	require.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDriver, found.Role)

	got, err := repo.GetProfile(ctx, domain.RoleDriver, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Driver)
	assert.Equal(t, "L-1", got.Driver.LicenseNumber)

	got.User.FirstName = "Daniel"
	got.Driver.OperatorName = "Intercity"
	require.NoError(t, repo.UpdateProfile(ctx, domain.RoleDriver, got))

	got, err = repo.GetProfile(ctx, domain.RoleDriver, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Daniel", got.User.FirstName)
	assert.Equal(t, "Intercity", got.Driver.OperatorName)

	require.NoError(t, repo.DeleteProfile(ctx, domain.RoleDriver, profile.ID))
	_, err = repo.GetByEmail(ctx, email)
	require.ErrorIs(t, err, pgx.ErrNoRows)
	require.ErrorIs(t, repo.DeleteProfile(ctx, domain.RoleDriver, profile.ID), pgx.ErrNoRows)
}

func TestTripRepositoryLifecycle(t *testing.T) {
	pool := testPool(t)
	repo := NewTripRepository(pool)
	ctx := context.Background()

	departure := time.Now().UTC().Truncate(time.Second).Add(time.Duration(time.Now().UnixNano()%100000) * time.Minute)
	day := time.Date(departure.Year(), departure.Month(), departure.Day(), 0, 0, 0, 0, time.UTC)
	trip := &domain.Trip{
		RouteID: 9001, BusID: 77, DriverID: 5,
		DepartureTime: departure, ArrivalTime: departure.Add(2 * time.Hour),
		DepartureDate: day, Price: 12.5,
	}
	require.NoError(t, repo.Create(ctx, trip))
	t.Cleanup(func() { _ = repo.Delete(ctx, trip.ID) })

	dup := *trip
	require.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	found, err := repo.Search(ctx, 9001, day)
	require.NoError(t, err)
	assert.NotEmpty(t, found)

	trip.Price = 15
	require.NoError(t, repo.Update(ctx, trip))
	got, err := repo.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got.Price, 0.001)

	require.NoError(t, repo.Delete(ctx, trip.ID))
	_, err = repo.GetByID(ctx, trip.ID)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}
