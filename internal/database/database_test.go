package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebook/internal/config"
)

func portalDB() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "postgres",
		Port:     "5432",
		User:     "portal",
		Password: "p@ss word",
		Name:     "carebook",
		SSLMode:  "disable",
	}
}

func TestConnConfig(t *testing.T) {
	t.Run("portal session parameters", func(t *testing.T) {
		cc, err := ConnConfig(portalDB())
		require.NoError(t, err)

		assert.Equal(t, "postgres", cc.Host)
		assert.Equal(t, uint16(5432), cc.Port)
		assert.Equal(t, "portal", cc.User)
		assert.Equal(t, "p@ss word", cc.Password)
		assert.Equal(t, "carebook", cc.Database)
		assert.Nil(t, cc.TLSConfig)
		assert.Equal(t, ApplicationName, cc.RuntimeParams["application_name"])
		assert.Equal(t, "5000", cc.RuntimeParams["statement_timeout"])
		assert.Equal(t, "UTC", cc.RuntimeParams["timezone"])
	})

	t.Run("tls required", func(t *testing.T) {
		c := portalDB()
		c.SSLMode = "require"
		c.Password = ""

		cc, err := ConnConfig(c)
		require.NoError(t, err)

		assert.NotNil(t, cc.TLSConfig)
		assert.Empty(t, cc.Password)
	})

	t.Run("ipv6 host", func(t *testing.T) {
		c := portalDB()
		c.Host = "::1"

		cc, err := ConnConfig(c)
		require.NoError(t, err)
		assert.Equal(t, "::1", cc.Host)
	})

	t.Run("missing fields are listed", func(t *testing.T) {
		_, err := ConnConfig(config.DatabaseConfig{Port: "5432", User: "portal"})
		assert.EqualError(t, err, "invalid database config: missing host, name")
	})

	t.Run("bad port", func(t *testing.T) {
		c := portalDB()
		c.Port = "postgres"

		_, err := ConnConfig(c)
		assert.ErrorContains(t, err, "parse database config")
	})
}

// stubOpen routes NewPostgres to db and records the registered config.
func stubOpen(t *testing.T, db *sql.DB, openErr error) *pgx.ConnConfig {
	t.Helper()
	var captured pgx.ConnConfig
	origOpen, origRegister := sqlOpen, registerConfig
	registerConfig = func(cc *pgx.ConnConfig) string {
		captured = *cc
		return "carebook-test"
	}
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		assert.Equal(t, "carebook-test", dsn)
		if openErr != nil {
			return nil, openErr
		}
		return db, nil
	}
	t.Cleanup(func() { sqlOpen, registerConfig = origOpen, origRegister })
	return &captured
}

func TestNewPostgres(t *testing.T) {
	conf := portalDB()
	conf.MaxOpenConns = 10
	conf.MaxIdleConns = 5
	conf.ConnMaxLifetimeSec = 300

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		registered := stubOpen(t, db, nil)
		mock.ExpectPing()

		got, err := NewPostgres(context.Background(), conf)

		require.NoError(t, err)
		assert.Equal(t, 10, got.Stats().MaxOpenConnections)
		assert.Equal(t, ApplicationName, registered.RuntimeParams["application_name"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open error", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		got, err := NewPostgres(context.Background(), conf)

		assert.EqualError(t, err, "sql open: open error")
		assert.Nil(t, got)
	})

	t.Run("ping error closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)
		mock.ExpectPing().WillReturnError(errors.New("ping failed"))
		mock.ExpectClose()

		got, err := NewPostgres(context.Background(), conf)

		assert.EqualError(t, err, "db ping: ping failed")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid config never opens", func(t *testing.T) {
		stubOpen(t, nil, errors.New("must not be called"))

		got, err := NewPostgres(context.Background(), config.DatabaseConfig{})

		assert.ErrorContains(t, err, "missing host, port, user, name")
		assert.Nil(t, got)
	})
}
