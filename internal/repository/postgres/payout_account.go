package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/repository"
)

type payoutAccountRepository struct {
	db *sql.DB
}

func NewPayoutAccountRepository(db *sql.DB) repository.PayoutAccountRepository {
	return &payoutAccountRepository{db: db}
}

func (r *payoutAccountRepository) GetByOwner(ctx context.Context, ownerID int32) (*domain.PayoutAccount, error) {
	a := &domain.PayoutAccount{}
	query := `SELECT id, owner_id, provider, account_ref, verified, created_on, updated_on
	          FROM payout_accounts WHERE owner_id = $1`
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&a.ID, &a.OwnerID, &a.Provider, &a.AccountRef, &a.Verified, &a.CreatedOn, &a.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no payout account for owner %d", ownerID)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *payoutAccountRepository) Upsert(ctx context.Context, a *domain.PayoutAccount) error {
	query := `INSERT INTO payout_accounts (owner_id, provider, account_ref, verified, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (owner_id) DO UPDATE
	          SET provider = EXCLUDED.provider, account_ref = EXCLUDED.account_ref,
	              verified = EXCLUDED.verified, updated_on = EXCLUDED.updated_on
	          RETURNING id`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		a.OwnerID, a.Provider, a.AccountRef, a.Verified, now, now,
	).Scan(&a.ID)
}
