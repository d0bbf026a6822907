package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// PostgresStore persists certificates in the certificates table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema for reference; migrations live with the deployment.
//
//	CREATE TABLE certificates (
//	    vault     TEXT PRIMARY KEY,
//	    holder    TEXT NOT NULL,
//	    minted_at TIMESTAMPTZ NOT NULL
//	);

func (s *PostgresStore) Put(ctx context.Context, cert Certificate) error {
	query := `
		INSERT INTO certificates (vault, holder, minted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (vault) DO UPDATE
		SET holder = EXCLUDED.holder, minted_at = EXCLUDED.minted_at
	`
	_, err := s.db.ExecContext(ctx, query,
		cert.Vault.String(),
		cert.Holder.String(),
		cert.MintedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByVault(ctx context.Context, vault domain.Address) (Certificate, error) {
	query := `
		SELECT vault, holder, minted_at
		FROM certificates
		WHERE vault = $1
	`
	var (
		cert       Certificate
		vaultAddr  string
		holderAddr string
	)
	err := s.db.QueryRowContext(ctx, query, vault.String()).
		Scan(&vaultAddr, &holderAddr, &cert.MintedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Certificate{}, sentinel.ErrNotFound
		}
		return Certificate{}, fmt.Errorf("select certificate: %w", err)
	}
	cert.Vault = domain.Address(vaultAddr)
	cert.Holder = domain.Address(holderAddr)
	return cert, nil
}
