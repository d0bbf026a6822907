//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors the reference DDL in the postgres store packages.
const schema = `
CREATE TABLE IF NOT EXISTS vaults (
    address     TEXT PRIMARY KEY,
    owner       TEXT NOT NULL,
    unlock_time BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates (
    vault     TEXT PRIMARY KEY,
    holder    TEXT NOT NULL,
    minted_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS vault_events (
    id              UUID PRIMARY KEY,
    ts              TIMESTAMPTZ NOT NULL,
    vault           TEXT NOT NULL,
    kind            TEXT NOT NULL,
    acting_owner    TEXT NOT NULL,
    asset           TEXT NOT NULL DEFAULT '',
    amount          BIGINT NOT NULL DEFAULT 0,
    old_unlock_time BIGINT NOT NULL DEFAULT 0,
    new_unlock_time BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS vault_events_vault_ts ON vault_events (vault, ts);
`

// PostgresContainer wraps a testcontainers Postgres instance with the custodia
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container, applies the schema, and
// connects a database handle. Everything is torn down with the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("custodia_test"),
		tcpostgres.WithUsername("custodia"),
		tcpostgres.WithPassword("custodia"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateAll empties every table. Use between tests to ensure isolation.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `TRUNCATE vaults, certificates, vault_events`)
	return err
}
