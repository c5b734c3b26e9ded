package database

import (
	"context"
	"testing"

	"github.com/cuongbtq/botmr-be/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	pg := &Config{
		Driver:   DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "botmr",
		Password: "secret",
		Database: "botmr_db",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 user=botmr password=secret dbname=botmr_db sslmode=disable", pg.DSN())

	lite := &Config{Driver: DriverSQLite, Path: ":memory:"}
	assert.Contains(t, lite.DSN(), ":memory:?")
	assert.Contains(t, lite.DSN(), "foreign_keys(1)")
}

func TestNewClient_SQLite(t *testing.T) {
	client, err := NewClient(&Config{Driver: DriverSQLite, Path: ":memory:"}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, DriverSQLite, client.Driver())
	assert.NoError(t, client.HealthCheck(context.Background()))
	assert.Contains(t, client.Stats(), "MaxOpenConns: 1")
}
