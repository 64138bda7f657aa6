// Package database opens the PostgreSQL pool that backs portal sessions and
// avatar metadata.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"carebook/internal/config"
)

// ApplicationName is reported to PostgreSQL (pg_stat_activity.application_name).
const ApplicationName = "carebook-portal"

// StatementTimeout caps every statement the portal runs.
const StatementTimeout = 5 * time.Second

var (
	sqlOpen        = sql.Open
	registerConfig = stdlib.RegisterConnConfig
)

// ConnConfig validates c and parses it into a pgx connection config carrying
// the portal's session parameters: application name, statement timeout and a
// UTC session time zone for session expiry comparisons.
func ConnConfig(c config.DatabaseConfig) (*pgx.ConnConfig, error) {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"host", c.Host}, {"port", c.Port}, {"user", c.User}, {"name", c.Name},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("invalid database config: missing %s", strings.Join(missing, ", "))
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Name,
		User:   url.User(c.User),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}

	cc, err := pgx.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	cc.RuntimeParams["application_name"] = ApplicationName
	cc.RuntimeParams["statement_timeout"] = strconv.FormatInt(StatementTimeout.Milliseconds(), 10)
	cc.RuntimeParams["timezone"] = "UTC"
	return cc, nil
}

// NewPostgres opens a traced database/sql pool on the pgx stdlib driver and
// verifies connectivity before returning.
func NewPostgres(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error) {
	cc, err := ConnConfig(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, registerConfig(cc))
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	tunePool(db, c)

	pingCtx, cancel := context.WithTimeout(ctx, StatementTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func tunePool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}
}
