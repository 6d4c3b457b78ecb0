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

type expeditionFixture struct {
	expeditions *mockExpeditionStore
	seats       *mockSeatStore
	cities      *mockCityStore
	tx          *fakeTransactor
	service     *ExpeditionService
}

func newExpeditionFixture() *expeditionFixture {
	f := &expeditionFixture{
		expeditions: new(mockExpeditionStore),
		seats:       new(mockSeatStore),
		cities:      new(mockCityStore),
		tx:          &fakeTransactor{},
	}
	f.service = NewExpeditionService(f.expeditions, f.seats, f.cities, f.tx, time.UTC, quietLogger()).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func validCreateRequest() *models.CreateExpeditionRequest {
	duration := 300
	return &models.CreateExpeditionRequest{
		DepartureCityID: 1,
		ArrivalCityID:   2,
		Date:            "2026-06-01",
		Time:            "09:30",
		Price:           "1250.5",
		Duration:        &duration,
		Capacity:        40,
	}
}

func bookingErrorKind(t *testing.T, err error) models.BookingErrorKind {
	t.Helper()
	var bookingErr *models.BookingError
	require.True(t, errors.As(err, &bookingErr), "expected *models.BookingError, got %v", err)
	return bookingErr.Kind
}

func TestCreateExpedition(t *testing.T) {
	f := newExpeditionFixture()
	f.cities.On("Exists", mock.Anything, int64(1)).Return(true, nil)
	f.cities.On("Exists", mock.Anything, int64(2)).Return(true, nil)
	f.expeditions.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(e *models.Expedition) bool {
		return e.PriceCents == 125050 &&
			e.CompanyID == 12 &&
			e.Capacity == 40 &&
			e.DateAndTime.Equal(time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC))
	})).Return(int64(45), nil)
	f.seats.On("GenerateSeats", mock.Anything, mock.Anything, int64(45), 40).Return(nil)

	id, err := f.service.CreateExpedition(context.Background(), 12, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(45), id)
	assert.Equal(t, 1, f.tx.committed)
	f.expeditions.AssertExpectations(t)
	f.seats.AssertExpectations(t)
}

func TestCreateExpedition_SeatGenerationFailureRollsBack(t *testing.T) {
	f := newExpeditionFixture()
	f.cities.On("Exists", mock.Anything, mock.Anything).Return(true, nil)
	f.expeditions.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(int64(45), nil)
	f.seats.On("GenerateSeats", mock.Anything, mock.Anything, int64(45), 40).Return(errors.New("generated 39 seats, expected 40"))

	_, err := f.service.CreateExpedition(context.Background(), 12, validCreateRequest())
	assert.Equal(t, models.ErrKindCritical, bookingErrorKind(t, err))
	assert.Equal(t, 0, f.tx.committed)
}

func TestCreateExpedition_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *models.CreateExpeditionRequest)
		expected models.BookingErrorKind
	}{
		{"same cities", func(r *models.CreateExpeditionRequest) { r.ArrivalCityID = r.DepartureCityID }, models.ErrKindInvalidInput},
		{"zero capacity", func(r *models.CreateExpeditionRequest) { r.Capacity = 0 }, models.ErrKindInvalidInput},
		{"capacity above limit", func(r *models.CreateExpeditionRequest) { r.Capacity = 1001 }, models.ErrKindInvalidInput},
		{"negative duration", func(r *models.CreateExpeditionRequest) { d := -1; r.Duration = &d }, models.ErrKindInvalidInput},
		{"three fractional digits", func(r *models.CreateExpeditionRequest) { r.Price = "10.505" }, models.ErrKindInvalidInput},
		{"eleven integer digits", func(r *models.CreateExpeditionRequest) { r.Price = "12345678901" }, models.ErrKindInvalidInput},
		{"bad date", func(r *models.CreateExpeditionRequest) { r.Date = "01/06/2026" }, models.ErrKindInvalidInput},
		{"past date", func(r *models.CreateExpeditionRequest) { r.Date = "2026-04-30" }, models.ErrKindInvalidTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExpeditionFixture()
			req := validCreateRequest()
			tt.mutate(req)

			_, err := f.service.CreateExpedition(context.Background(), 12, req)
			assert.Equal(t, tt.expected, bookingErrorKind(t, err))
			assert.Equal(t, 0, f.tx.calls)
		})
	}
}

func TestCreateExpedition_UnknownCity(t *testing.T) {
	f := newExpeditionFixture()
	f.cities.On("Exists", mock.Anything, int64(1)).Return(true, nil)
	f.cities.On("Exists", mock.Anything, int64(2)).Return(false, nil)

	_, err := f.service.CreateExpedition(context.Background(), 12, validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, models.ErrKindNotFound, bookingErrorKind(t, err))
	assert.Contains(t, err.Error(), "Arrival City ID: 2 not found")
	assert.Equal(t, 0, f.tx.calls)
}

func TestListSeats(t *testing.T) {
	f := newExpeditionFixture()
	holdUntil := fixedNow.Add(time.Minute)
	holdID := mustUUID(t)
	f.expeditions.On("GetByID", mock.Anything, int64(45)).Return(&models.Expedition{ID: 45, Capacity: 2}, nil)
	f.seats.On("ListByExpedition", mock.Anything, int64(45)).Return([]models.Seat{
		{SeatNo: 1, Status: models.SeatStatusAvailable, HeldBy: &holdID, HeldUntil: &holdUntil},
		{SeatNo: 2, Status: models.SeatStatusReserved},
	}, nil)

	views, err := f.service.ListSeats(context.Background(), 45)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Held)
	assert.Equal(t, models.SeatStatusReserved, views[1].Status)
	assert.False(t, views[1].Held)
}

func TestListSeats_UnknownExpedition(t *testing.T) {
	f := newExpeditionFixture()
	f.expeditions.On("GetByID", mock.Anything, int64(999)).Return(nil, nil)

	_, err := f.service.ListSeats(context.Background(), 999)
	assert.Equal(t, models.ErrKindNotFound, bookingErrorKind(t, err))
}

func TestSearch(t *testing.T) {
	f := newExpeditionFixture()
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	f.expeditions.On("Search", mock.Anything, int64(1), int64(2), from, from.AddDate(0, 0, 1)).
		Return([]models.ExpeditionView{{ExpeditionID: 45, PriceCents: 125050, DateAndTime: from.Add(9 * time.Hour)}}, nil)

	views, err := f.service.Search(context.Background(), 1, 2, "2026-06-01")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "1250.50", views[0].Price)
	assert.Equal(t, "09:00", views[0].Time)
	assert.Empty(t, views[0].Profit)

	_, err = f.service.Search(context.Background(), 1, 2, "June 1st")
	assert.Equal(t, models.ErrKindInvalidInput, bookingErrorKind(t, err))
}

func TestListCompanyExpeditions_IncludesProfit(t *testing.T) {
	f := newExpeditionFixture()
	f.expeditions.On("ListByCompany", mock.Anything, int64(12)).
		Return([]models.ExpeditionView{{ExpeditionID: 45, PriceCents: 1000, ProfitCents: 3000}}, nil)

	views, err := f.service.ListCompanyExpeditions(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "30.00", views[0].Profit)
}
