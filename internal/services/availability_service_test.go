package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shubilet/expedition-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func TestSeatStatus(t *testing.T) {
	customerID := int64(7)
	tests := []struct {
		name     string
		seat     *models.Seat
		expected models.AvailabilityStatus
	}{
		{"missing seat", nil, models.AvailabilityNotFound},
		{"available seat", &models.Seat{Status: models.SeatStatusAvailable}, models.AvailabilitySuccess},
		{"reserved seat", &models.Seat{Status: models.SeatStatusReserved, CustomerID: &customerID}, models.AvailabilityAlreadyBooked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seats := new(mockSeatStore)
			seats.On("GetSeat", mock.Anything, int64(45), 8).Return(tt.seat, nil)

			service := NewAvailabilityService(new(mockExpeditionStore), seats)
			status, err := service.SeatStatus(context.Background(), 45, 8)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestSeatStatus_StoreError(t *testing.T) {
	seats := new(mockSeatStore)
	seats.On("GetSeat", mock.Anything, int64(45), 8).Return(nil, errors.New("connection reset"))

	service := NewAvailabilityService(new(mockExpeditionStore), seats)
	_, err := service.SeatStatus(context.Background(), 45, 8)
	assert.Error(t, err)
}

func TestExpeditionStatus(t *testing.T) {
	tests := []struct {
		name       string
		expedition *models.Expedition
		expected   models.AvailabilityStatus
	}{
		{"missing expedition", nil, models.AvailabilityNotFound},
		{
			"future with free seats",
			&models.Expedition{DateAndTime: fixedNow.Add(time.Hour), Capacity: 40, NumberOfBookedSeats: 39},
			models.AvailabilitySuccess,
		},
		{
			"departed",
			&models.Expedition{DateAndTime: fixedNow.Add(-time.Hour), Capacity: 40},
			models.AvailabilityInvalidTime,
		},
		{
			"departing right now",
			&models.Expedition{DateAndTime: fixedNow, Capacity: 40},
			models.AvailabilityInvalidTime,
		},
		{
			"departed and full reports time first",
			&models.Expedition{DateAndTime: fixedNow.Add(-time.Hour), Capacity: 40, NumberOfBookedSeats: 40},
			models.AvailabilityInvalidTime,
		},
		{
			"full",
			&models.Expedition{DateAndTime: fixedNow.Add(time.Hour), Capacity: 40, NumberOfBookedSeats: 40},
			models.AvailabilityAlreadyBooked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expeditions := new(mockExpeditionStore)
			expeditions.On("GetByID", mock.Anything, int64(45)).Return(tt.expedition, nil)

			service := NewAvailabilityService(expeditions, new(mockSeatStore)).
				WithClock(func() time.Time { return fixedNow })
			status, err := service.ExpeditionStatus(context.Background(), 45)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestAvailabilityCheck(t *testing.T) {
	expeditions := new(mockExpeditionStore)
	seats := new(mockSeatStore)
	customerID := int64(3)
	expeditions.On("GetByID", mock.Anything, int64(45)).
		Return(&models.Expedition{DateAndTime: fixedNow.Add(time.Hour), Capacity: 40}, nil)
	seats.On("GetSeat", mock.Anything, int64(45), 8).
		Return(&models.Seat{Status: models.SeatStatusReserved, CustomerID: &customerID}, nil)

	service := NewAvailabilityService(expeditions, seats).WithClock(func() time.Time { return fixedNow })

	response, err := service.Check(context.Background(), 45, 8)
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilitySuccess, response.ExpeditionStatus)
	assert.Equal(t, models.AvailabilityAlreadyBooked, response.SeatStatus)

	response, err = service.Check(context.Background(), 45, 0)
	require.NoError(t, err)
	assert.Empty(t, response.SeatStatus)
	seats.AssertNumberOfCalls(t, "GetSeat", 1)
}
