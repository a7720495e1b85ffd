package service

import (
	"context"

	"rentspace-backend/internal/apperr"
	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/repository"
	"rentspace-backend/internal/utils"
)

type availabilityService struct {
	productRepo repository.ProductRepository
	bookingRepo repository.BookingRepository
}

func NewAvailabilityService(productRepo repository.ProductRepository, bookingRepo repository.BookingRepository) AvailabilityService {
	return &availabilityService{
		productRepo: productRepo,
		bookingRepo: bookingRepo,
	}
}

// CheckAvailability is a read-only snapshot; the authoritative guard against
// overselling is the conditional reservation at booking creation.
func (s *availabilityService) CheckAvailability(ctx context.Context, productID int32, dayStrs []string) (*domain.AvailabilityResult, error) {
	days, err := utils.NormalizeDays(dayStrs)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if len(days) == 0 {
		return nil, apperr.Validation("at least one day is required")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.TotalStockUnits == 0 {
		result := &domain.AvailabilityResult{Available: false, Reason: domain.ReasonOutOfStock}
		for _, day := range days {
			result.PerDay = append(result.PerDay, domain.DayAvailability{Day: day})
		}
		return result, nil
	}

	booked, err := s.bookingRepo.CountBookedUnits(ctx, productID, days)
	if err != nil {
		return nil, err
	}

	result := &domain.AvailabilityResult{Available: true}
	for _, day := range days {
		available := product.TotalStockUnits - booked[day]
		if available < 0 {
			available = 0
		}
		result.PerDay = append(result.PerDay, domain.DayAvailability{
			Day:       day,
			Booked:    booked[day],
			Available: available,
			Total:     product.TotalStockUnits,
		})

		if !product.AllowsDay(day) {
			result.Available = false
			if result.Reason == "" {
				result.Reason = domain.ReasonDayUnavailable
			}
		} else if available < 1 {
			result.Available = false
			if result.Reason == "" {
				result.Reason = domain.ReasonFullyBooked
			}
		}
	}
	return result, nil
}
