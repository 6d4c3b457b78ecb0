package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shubilet/expedition-service/internal/models"
)

// AvailabilityService answers whether a seat and its expedition can be booked.
// It only reads.
type AvailabilityService struct {
	expeditions ExpeditionStore
	seats       SeatStore
	now         func() time.Time
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(expeditions ExpeditionStore, seats SeatStore) *AvailabilityService {
	return &AvailabilityService{
		expeditions: expeditions,
		seats:       seats,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for departure checks
func (s *AvailabilityService) WithClock(now func() time.Time) *AvailabilityService {
	s.now = now
	return s
}

// SeatStatus reports NOT_FOUND, ALREADY_BOOKED or SUCCESS for one seat.
// A seat under a live hold is still AVAILABLE here; the hold itself arbitrates.
func (s *AvailabilityService) SeatStatus(ctx context.Context, expeditionID int64, seatNo int) (models.AvailabilityStatus, error) {
	seat, err := s.seats.GetSeat(ctx, expeditionID, seatNo)
	if err != nil {
		return "", fmt.Errorf("failed to load seat: %w", err)
	}
	if seat == nil {
		return models.AvailabilityNotFound, nil
	}
	if seat.Status == models.SeatStatusReserved || seat.CustomerID != nil {
		return models.AvailabilityAlreadyBooked, nil
	}
	return models.AvailabilitySuccess, nil
}

// ExpeditionStatus reports NOT_FOUND, INVALID_TIME, ALREADY_BOOKED or SUCCESS
func (s *AvailabilityService) ExpeditionStatus(ctx context.Context, expeditionID int64) (models.AvailabilityStatus, error) {
	expedition, err := s.expeditions.GetByID(ctx, expeditionID)
	if err != nil {
		return "", fmt.Errorf("failed to load expedition: %w", err)
	}
	return s.expeditionStatusOf(expedition), nil
}

func (s *AvailabilityService) expeditionStatusOf(expedition *models.Expedition) models.AvailabilityStatus {
	switch {
	case expedition == nil:
		return models.AvailabilityNotFound
	case !expedition.DateAndTime.After(s.now()):
		return models.AvailabilityInvalidTime
	case !expedition.HasFreeSeats():
		return models.AvailabilityAlreadyBooked
	default:
		return models.AvailabilitySuccess
	}
}

// Check combines both checks into one response. seatNo <= 0 skips the seat check.
func (s *AvailabilityService) Check(ctx context.Context, expeditionID int64, seatNo int) (*models.AvailabilityResponse, error) {
	expeditionStatus, err := s.ExpeditionStatus(ctx, expeditionID)
	if err != nil {
		return nil, err
	}

	response := &models.AvailabilityResponse{
		ExpeditionID:     expeditionID,
		ExpeditionStatus: expeditionStatus,
	}
	if seatNo <= 0 || expeditionStatus == models.AvailabilityNotFound {
		return response, nil
	}

	seatStatus, err := s.SeatStatus(ctx, expeditionID, seatNo)
	if err != nil {
		return nil, err
	}
	response.SeatNo = seatNo
	response.SeatStatus = seatStatus
	return response, nil
}
