package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, product_id, renter_id, owner_id, days, status, payment_state, total_amount_cents,
	delivery_info, all_return_photos_verified, cancellation_reason, cancellation_initiated_by, settlement_id, created_on, updated_on`

// reserveDayQuery claims one unit for a (product, day) pair. The insert path
// seeds the counter from the product's stock; the update path only fires
// while booked_units is below the ceiling. Zero rows affected means the day
// is fully booked (or the product has zero stock).
const reserveDayQuery = `
	INSERT INTO product_day_counters (product_id, day, booked_units, total_units)
	SELECT p.id, $2, 1, p.total_stock_units FROM products p
	WHERE p.id = $1 AND p.deleted = false AND p.total_stock_units >= 1
	ON CONFLICT (product_id, day) DO UPDATE
	SET booked_units = product_day_counters.booked_units + 1
	WHERE product_day_counters.booked_units < product_day_counters.total_units`

func (r *bookingRepository) CreateWithReservation(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, day := range b.Days {
		result, err := tx.ExecContext(ctx, reserveDayQuery, b.ProductID, day)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperr.Conflict("no stock unit available on %s", day)
		}
	}

	query := `INSERT INTO bookings (product_id, renter_id, owner_id, days, status, payment_state, total_amount_cents, delivery_info, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	now := time.Now()
	err = tx.QueryRowContext(ctx, query,
		b.ProductID, b.RenterID, b.OwnerID, pq.Array(b.Days),
		b.Status, b.PaymentState, b.TotalAmountCents, b.DeliveryInfo, now, now,
	).Scan(&b.ID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	b := &domain.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.ProductID, &b.RenterID, &b.OwnerID, pq.Array(&b.Days),
		&b.Status, &b.PaymentState, &b.TotalAmountCents, &b.DeliveryInfo,
		&b.AllReturnPhotosVerified, &b.CancellationReason, &b.CancellationInitiatedBy,
		&b.SettlementID, &b.CreatedOn, &b.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings SET status=$1, payment_state=$2, all_return_photos_verified=$3,
	          cancellation_reason=$4, cancellation_initiated_by=$5, settlement_id=$6, updated_on=$7 WHERE id=$8`
	_, err := r.db.ExecContext(ctx, query,
		b.Status, b.PaymentState, b.AllReturnPhotosVerified,
		b.CancellationReason, b.CancellationInitiatedBy, b.SettlementID, time.Now(), b.ID)
	return err
}

func (r *bookingRepository) CancelAndRelease(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE bookings SET status=$1, payment_state=$2, cancellation_reason=$3,
	          cancellation_initiated_by=$4, updated_on=$5 WHERE id=$6 AND status NOT IN ('COMPLETED', 'CANCELLED')`
	result, err := tx.ExecContext(ctx, query,
		domain.BookingStatusCancelled, b.PaymentState, b.CancellationReason,
		b.CancellationInitiatedBy, time.Now(), b.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.State("booking %d is already in a terminal status", b.ID)
	}

	// Release one unit per reserved day.
	_, err = tx.ExecContext(ctx,
		`UPDATE product_day_counters SET booked_units = booked_units - 1
		 WHERE product_id = $1 AND day = ANY($2) AND booked_units > 0`,
		b.ProductID, pq.Array(b.Days))
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	b.Status = domain.BookingStatusCancelled
	return nil
}

// CompleteAndRelease mirrors CancelAndRelease: a completed booking stops
// consuming inventory, so its day counters are released in the same
// transaction as the status change. Without the release, an early return on
// a multi-day booking would leave the counters full while the demand count
// reports the days free.
func (r *bookingRepository) CompleteAndRelease(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status=$1, updated_on=$2 WHERE id=$3 AND status=$4`,
		domain.BookingStatusCompleted, time.Now(), b.ID, domain.BookingStatusOngoing)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.State("booking %d is not ongoing", b.ID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE product_day_counters SET booked_units = booked_units - 1
		 WHERE product_id = $1 AND day = ANY($2) AND booked_units > 0`,
		b.ProductID, pq.Array(b.Days))
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	b.Status = domain.BookingStatusCompleted
	return nil
}

func (r *bookingRepository) CountBookedUnits(ctx context.Context, productID int32, days []string) (map[string]int32, error) {
	query := `SELECT d.day, count(*) FROM bookings b
	          CROSS JOIN LATERAL unnest(b.days) AS d(day)
	          WHERE b.product_id = $1 AND b.status IN ('PENDING', 'CONFIRMED', 'ONGOING') AND d.day = ANY($2)
	          GROUP BY d.day`
	rows, err := r.db.QueryContext(ctx, query, productID, pq.Array(days))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int32, len(days))
	for rows.Next() {
		var day string
		var count int32
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		counts[day] = count
	}
	return counts, rows.Err()
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *bookingRepository) ListByOwner(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, "owner_id", ownerID, status, page, pageSize)
}

func (r *bookingRepository) list(ctx context.Context, userColumn string, userID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + userColumn + ` = $1`

	args := []interface{}{userID}
	argIdx := 2
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.ProductID, &b.RenterID, &b.OwnerID, pq.Array(&b.Days),
			&b.Status, &b.PaymentState, &b.TotalAmountCents, &b.DeliveryInfo,
			&b.AllReturnPhotosVerified, &b.CancellationReason, &b.CancellationInitiatedBy,
			&b.SettlementID, &b.CreatedOn, &b.UpdatedOn); err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	return bookings, count, rows.Err()
}

func (r *bookingRepository) CreatePhoto(ctx context.Context, photo *domain.ReturnPhoto) error {
	query := `INSERT INTO return_photos (booking_id, object_key, status, rejection_reason, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		photo.BookingID, photo.ObjectKey, photo.Status, photo.RejectionReason, now, now,
	).Scan(&photo.ID)
}

func (r *bookingRepository) GetPhoto(ctx context.Context, photoID int32) (*domain.ReturnPhoto, error) {
	p := &domain.ReturnPhoto{}
	query := `SELECT id, booking_id, object_key, status, rejection_reason, created_on, updated_on FROM return_photos WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, photoID).Scan(
		&p.ID, &p.BookingID, &p.ObjectKey, &p.Status, &p.RejectionReason, &p.CreatedOn, &p.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("return photo %d not found", photoID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *bookingRepository) ListPhotos(ctx context.Context, bookingID int32) ([]domain.ReturnPhoto, error) {
	query := `SELECT id, booking_id, object_key, status, rejection_reason, created_on, updated_on
	          FROM return_photos WHERE booking_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []domain.ReturnPhoto
	for rows.Next() {
		var p domain.ReturnPhoto
		if err := rows.Scan(&p.ID, &p.BookingID, &p.ObjectKey, &p.Status, &p.RejectionReason, &p.CreatedOn, &p.UpdatedOn); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (r *bookingRepository) UpdatePhotoStatus(ctx context.Context, photoID int32, expected, next domain.ReturnPhotoStatus, rejectionReason, objectKey string) (bool, error) {
	// The status guard serializes concurrent reviews of the same photo:
	// whoever updates first wins, the other sees zero rows affected.
	query := `UPDATE return_photos SET status=$1, rejection_reason=$2, object_key=COALESCE(NULLIF($3, ''), object_key), updated_on=$4
	          WHERE id=$5 AND status=$6`
	result, err := r.db.ExecContext(ctx, query, next, rejectionReason, objectKey, time.Now(), photoID, expected)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *bookingRepository) SetPhotosVerified(ctx context.Context, bookingID int32, verified bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET all_return_photos_verified=$1, updated_on=$2 WHERE id=$3`,
		verified, time.Now(), bookingID)
	return err
}
