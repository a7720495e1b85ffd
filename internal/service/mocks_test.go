package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/gateway"
)

// MockProductRepo
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}
func (m *MockProductRepo) GetByID(ctx context.Context, id int32) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) CreateWithReservation(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) Update(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) CancelAndRelease(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) CompleteAndRelease(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) CountBookedUnits(ctx context.Context, productID int32, days []string) (map[string]int32, error) {
	args := m.Called(ctx, productID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int32), args.Error(1)
}
func (m *MockBookingRepo) ListByRenter(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) ListByOwner(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, ownerID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) CreatePhoto(ctx context.Context, photo *domain.ReturnPhoto) error {
	args := m.Called(ctx, photo)
	return args.Error(0)
}
func (m *MockBookingRepo) GetPhoto(ctx context.Context, photoID int32) (*domain.ReturnPhoto, error) {
	args := m.Called(ctx, photoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnPhoto), args.Error(1)
}
func (m *MockBookingRepo) ListPhotos(ctx context.Context, bookingID int32) ([]domain.ReturnPhoto, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReturnPhoto), args.Error(1)
}
func (m *MockBookingRepo) UpdatePhotoStatus(ctx context.Context, photoID int32, expected, next domain.ReturnPhotoStatus, rejectionReason, objectKey string) (bool, error) {
	args := m.Called(ctx, photoID, expected, next, rejectionReason, objectKey)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) SetPhotosVerified(ctx context.Context, bookingID int32, verified bool) error {
	args := m.Called(ctx, bookingID, verified)
	return args.Error(0)
}

// MockSettlementRepo
type MockSettlementRepo struct {
	mock.Mock
}

func (m *MockSettlementRepo) Create(ctx context.Context, settlement *domain.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}
func (m *MockSettlementRepo) GetByID(ctx context.Context, id int32) (*domain.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}
func (m *MockSettlementRepo) GetByBookingID(ctx context.Context, bookingID int32) (*domain.Settlement, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}
func (m *MockSettlementRepo) GetByPaymentIntentRef(ctx context.Context, ref string) (*domain.Settlement, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}
func (m *MockSettlementRepo) Update(ctx context.Context, settlement *domain.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}
func (m *MockSettlementRepo) CASPayoutStatus(ctx context.Context, id int32, expected, next domain.PayoutStatus) (bool, error) {
	args := m.Called(ctx, id, expected, next)
	return args.Bool(0), args.Error(1)
}
func (m *MockSettlementRepo) SchedulePayout(ctx context.Context, id int32, payoutDate time.Time) error {
	args := m.Called(ctx, id, payoutDate)
	return args.Error(0)
}
func (m *MockSettlementRepo) UnschedulePayout(ctx context.Context, id int32) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockSettlementRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Settlement, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Settlement), args.Error(1)
}
func (m *MockSettlementRepo) MarkPaidOut(ctx context.Context, ids []int32, transferRef string, paidOn time.Time) error {
	args := m.Called(ctx, ids, transferRef, paidOn)
	return args.Error(0)
}
func (m *MockSettlementRepo) MarkPayoutFailed(ctx context.Context, ids []int32, payoutErr string) error {
	args := m.Called(ctx, ids, payoutErr)
	return args.Error(0)
}

// MockPolicyRepo
type MockPolicyRepo struct {
	mock.Mock
}

func (m *MockPolicyRepo) GetCurrent(ctx context.Context) (*domain.CommissionPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionPolicy), args.Error(1)
}
func (m *MockPolicyRepo) Create(ctx context.Context, policy *domain.CommissionPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

// MockPayoutAccountRepo
type MockPayoutAccountRepo struct {
	mock.Mock
}

func (m *MockPayoutAccountRepo) GetByOwner(ctx context.Context, ownerID int32) (*domain.PayoutAccount, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PayoutAccount), args.Error(1)
}
func (m *MockPayoutAccountRepo) Upsert(ctx context.Context, account *domain.PayoutAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*gateway.PaymentIntent, error) {
	args := m.Called(ctx, amountCents, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentIntent), args.Error(1)
}
func (m *MockGateway) ConfirmIntent(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}
func (m *MockGateway) Refund(ctx context.Context, intentRef string, amountCents int64) (string, error) {
	args := m.Called(ctx, intentRef, amountCents)
	return args.String(0), args.Error(1)
}
func (m *MockGateway) CreateTransfer(ctx context.Context, destination string, amountCents int64, currency, groupRef string) (string, error) {
	args := m.Called(ctx, destination, amountCents, currency, groupRef)
	return args.String(0), args.Error(1)
}

// stubNotify records notifications without delivering anything.
type stubNotify struct {
	recipients []int32
	titles     []string
}

func (s *stubNotify) Notify(ctx context.Context, recipientID int32, title, body string, attrs map[string]string) {
	s.recipients = append(s.recipients, recipientID)
	s.titles = append(s.titles, title)
}
