package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/repository"
)

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (owner_id, name, total_stock_units, daily_price_cents, publishable_days, deleted, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		p.OwnerID, p.Name, p.TotalStockUnits, p.DailyPriceCents,
		pq.Array(p.PublishableDays), p.Deleted, now, now,
	).Scan(&p.ID)
	if err != nil {
		return err
	}

	for _, tier := range p.CancellationTiers {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO cancellation_tiers (product_id, hours_before_start, charge_percentage) VALUES ($1, $2, $3)`,
			p.ID, tier.HoursBeforeStart, tier.ChargePercentage)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int32) (*domain.Product, error) {
	p := &domain.Product{}
	query := `SELECT id, owner_id, name, total_stock_units, daily_price_cents, publishable_days, deleted, created_on, updated_on
	          FROM products WHERE id = $1 AND deleted = false`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.TotalStockUnits, &p.DailyPriceCents,
		pq.Array(&p.PublishableDays), &p.Deleted, &p.CreatedOn, &p.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("product %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT hours_before_start, charge_percentage FROM cancellation_tiers WHERE product_id = $1 ORDER BY hours_before_start DESC`,
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tier domain.CancellationTier
		if err := rows.Scan(&tier.HoursBeforeStart, &tier.ChargePercentage); err != nil {
			return nil, err
		}
		p.CancellationTiers = append(p.CancellationTiers, tier)
	}
	return p, rows.Err()
}
