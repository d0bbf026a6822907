package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// PostgresStore persists vault state in the vaults table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema for reference; migrations live with the deployment.
//
//	CREATE TABLE vaults (
//	    address     TEXT PRIMARY KEY,
//	    owner       TEXT NOT NULL,
//	    unlock_time BIGINT NOT NULL DEFAULT 0,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);

func (s *PostgresStore) Save(ctx context.Context, v *Vault) error {
	query := `
		INSERT INTO vaults (address, owner, unlock_time, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE
		SET owner = EXCLUDED.owner, unlock_time = EXCLUDED.unlock_time
	`
	_, err := s.db.ExecContext(ctx, query,
		v.Address.String(),
		v.Owner.String(),
		int64(v.UnlockTime),
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert vault: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAddress(ctx context.Context, addr domain.Address) (*Vault, error) {
	query := `
		SELECT address, owner, unlock_time, created_at
		FROM vaults
		WHERE address = $1
	`
	var (
		v          Vault
		address    string
		owner      string
		unlockTime int64
	)
	err := s.db.QueryRowContext(ctx, query, addr.String()).
		Scan(&address, &owner, &unlockTime, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select vault: %w", err)
	}
	v.Address = domain.Address(address)
	v.Owner = domain.Address(owner)
	v.UnlockTime = uint64(unlockTime)
	return &v, nil
}
