package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"custodia/pkg/domain"
)

// PostgresStore persists the event log in the vault_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema for reference; migrations live with the deployment.
//
//	CREATE TABLE vault_events (
//	    id              UUID PRIMARY KEY,
//	    ts              TIMESTAMPTZ NOT NULL,
//	    vault           TEXT NOT NULL,
//	    kind            TEXT NOT NULL,
//	    acting_owner    TEXT NOT NULL,
//	    asset           TEXT NOT NULL DEFAULT '',
//	    amount          BIGINT NOT NULL DEFAULT 0,
//	    old_unlock_time BIGINT NOT NULL DEFAULT 0,
//	    new_unlock_time BIGINT NOT NULL DEFAULT 0
//	);
//	CREATE INDEX vault_events_vault_ts ON vault_events (vault, ts);

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO vault_events (id, ts, vault, kind, acting_owner, asset, amount, old_unlock_time, new_unlock_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.Vault.String(),
		string(event.Kind),
		event.ActingOwner.String(),
		event.Asset.String(),
		int64(event.Amount),
		int64(event.OldUnlockTime),
		int64(event.NewUnlockTime),
	)
	if err != nil {
		return fmt.Errorf("insert vault event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByVault(ctx context.Context, vault domain.Address) ([]Event, error) {
	query := `
		SELECT id, ts, vault, kind, acting_owner, asset, amount, old_unlock_time, new_unlock_time
		FROM vault_events
		WHERE vault = $1
		ORDER BY ts
	`
	rows, err := s.db.QueryContext(ctx, query, vault.String())
	if err != nil {
		return nil, fmt.Errorf("select vault events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event       Event
			id          string
			vaultAddr   string
			kind        string
			actingOwner string
			asset       string
			amount      int64
			oldTime     int64
			newTime     int64
		)
		if err := rows.Scan(&id, &event.Timestamp, &vaultAddr, &kind, &actingOwner, &asset, &amount, &oldTime, &newTime); err != nil {
			return nil, fmt.Errorf("scan vault event: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse event id: %w", err)
		}
		event.ID = parsed
		event.Vault = domain.Address(vaultAddr)
		event.Kind = Kind(kind)
		event.ActingOwner = domain.Address(actingOwner)
		event.Asset = domain.Address(asset)
		event.Amount = uint64(amount)
		event.OldUnlockTime = uint64(oldTime)
		event.NewUnlockTime = uint64(newTime)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vault events: %w", err)
	}
	return events, nil
}
