package postgres

import (
	"database/sql"

	"rentspace-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.ProductRepository
	repository.BookingRepository
	repository.SettlementRepository
	repository.CommissionPolicyRepository
	repository.PayoutAccountRepository
	repository.NotificationRepository
	repository.UserRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                         db,
		ProductRepository:          NewProductRepository(db),
		BookingRepository:          NewBookingRepository(db),
		SettlementRepository:       NewSettlementRepository(db),
		CommissionPolicyRepository: NewCommissionPolicyRepository(db),
		PayoutAccountRepository:    NewPayoutAccountRepository(db),
		NotificationRepository:     NewNotificationRepository(db),
		UserRepository:             NewUserRepository(db),
	}
}
