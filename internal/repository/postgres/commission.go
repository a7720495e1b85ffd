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

type commissionPolicyRepository struct {
	db *sql.DB
}

func NewCommissionPolicyRepository(db *sql.DB) repository.CommissionPolicyRepository {
	return &commissionPolicyRepository{db: db}
}

func (r *commissionPolicyRepository) GetCurrent(ctx context.Context) (*domain.CommissionPolicy, error) {
	p := &domain.CommissionPolicy{}
	query := `SELECT version, commission_type, fixed_amount_cents, percentage, updated_by, created_on
	          FROM commission_policies ORDER BY version DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&p.Version, &p.Type, &p.FixedAmountCents, &p.Percentage, &p.UpdatedBy, &p.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no commission policy configured")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *commissionPolicyRepository) Create(ctx context.Context, p *domain.CommissionPolicy) error {
	query := `INSERT INTO commission_policies (commission_type, fixed_amount_cents, percentage, updated_by, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING version`
	return r.db.QueryRowContext(ctx, query,
		p.Type, p.FixedAmountCents, p.Percentage, p.UpdatedBy, time.Now(),
	).Scan(&p.Version)
}
