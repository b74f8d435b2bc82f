package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationNamesAreEmbedded(t *testing.T) {
	users, err := MigrationNames(MigrationsUsers)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_users.sql"}, users)

	trips, err := MigrationNames(MigrationsTrips)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_trips.sql"}, trips)

	_, err = MigrationNames("tickets")
	require.Error(t, err)
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	require.NoError(t, RunMigrations(context.Background(), nil, MigrationsUsers, zap.NewNop()))
}

func TestPingWithoutConnections(t *testing.T) {
	var pg *Postgres
	assert.Error(t, pg.Ping(context.Background()))

	var rd *Redis
	assert.Error(t, rd.Ping(context.Background()))
	assert.Nil(t, rd.Handle())
}
