package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ExpeditionService creates expeditions and serves their read models
type ExpeditionService struct {
	expeditions ExpeditionStore
	seats       SeatStore
	cities      CityStore
	tx          Transactor
	loc         *time.Location
	now         func() time.Time
	logger      *logrus.Logger
}

// NewExpeditionService creates a new expedition service
func NewExpeditionService(
	expeditions ExpeditionStore,
	seats SeatStore,
	cities CityStore,
	tx Transactor,
	loc *time.Location,
	logger *logrus.Logger,
) *ExpeditionService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpeditionService{
		expeditions: expeditions,
		seats:       seats,
		cities:      cities,
		tx:          tx,
		loc:         loc,
		now:         time.Now,
		logger:      logger,
	}
}

// WithClock replaces the clock used to reject past departures
func (s *ExpeditionService) WithClock(now func() time.Time) *ExpeditionService {
	s.now = now
	return s
}

// CreateExpedition validates the request, then stores the expedition and its
// seats 1..capacity in one transaction.
func (s *ExpeditionService) CreateExpedition(ctx context.Context, companyID int64, req *models.CreateExpeditionRequest) (int64, error) {
	if companyID <= 0 {
		return 0, models.NewInvalidInputError("Company ID must be a positive integer")
	}
	if req.DepartureCityID <= 0 || req.ArrivalCityID <= 0 {
		return 0, models.NewInvalidInputError("City IDs must be positive integers")
	}
	if req.DepartureCityID == req.ArrivalCityID {
		return 0, models.NewInvalidInputError("Departure and arrival cities must differ")
	}
	if req.Capacity <= 0 || req.Capacity > models.MaxExpeditionCapacity {
		return 0, models.NewInvalidInputError(fmt.Sprintf("Capacity must be between 1 and %d", models.MaxExpeditionCapacity))
	}
	if req.Duration != nil && *req.Duration < 0 {
		return 0, models.NewInvalidInputError("Duration must not be negative")
	}

	priceCents, err := models.ParsePrice(req.Price)
	if err != nil {
		return 0, models.NewInvalidInputError("Invalid price: " + err.Error())
	}

	departure, err := time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, req.Date+" "+req.Time, s.loc)
	if err != nil {
		return 0, models.NewInvalidInputError("Date must be YYYY-MM-DD and time HH:MM")
	}
	if !departure.After(s.now()) {
		return 0, &models.BookingError{Kind: models.ErrKindInvalidTime, Message: "Expedition date must be in the future"}
	}

	cities := []struct {
		label string
		id    int64
	}{
		{"Departure City ID", req.DepartureCityID},
		{"Arrival City ID", req.ArrivalCityID},
	}
	for _, city := range cities {
		exists, err := s.cities.Exists(ctx, city.id)
		if err != nil {
			return 0, models.NewCriticalError("Failed to resolve city", err)
		}
		if !exists {
			return 0, models.NewNotFoundError(fmt.Sprintf("%s: %d", city.label, city.id))
		}
	}

	expedition := &models.Expedition{
		DepartureCityID: req.DepartureCityID,
		ArrivalCityID:   req.ArrivalCityID,
		DateAndTime:     departure,
		PriceCents:      priceCents,
		Duration:        req.Duration,
		Capacity:        req.Capacity,
		CompanyID:       companyID,
	}

	var expeditionID int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q sqlx.ExtContext) error {
		id, err := s.expeditions.Create(ctx, q, expedition)
		if err != nil {
			return err
		}
		if err := s.seats.GenerateSeats(ctx, q, id, req.Capacity); err != nil {
			return err
		}
		expeditionID = id
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("company_id", companyID).Error("Failed to create expedition")
		return 0, models.NewCriticalError("Expedition could not be created", err)
	}

	s.logger.WithFields(logrus.Fields{
		"expedition_id": expeditionID,
		"company_id":    companyID,
		"capacity":      req.Capacity,
	}).Info("Expedition created")

	return expeditionID, nil
}

// GetExpedition returns the public view of an expedition
func (s *ExpeditionService) GetExpedition(ctx context.Context, id int64) (*models.ExpeditionView, error) {
	view, err := s.expeditions.GetView(ctx, id)
	if err != nil {
		return nil, models.NewCriticalError("Failed to load expedition", err)
	}
	if view == nil {
		return nil, models.NewNotFoundError(fmt.Sprintf("Expedition ID: %d", id))
	}
	view.Finalize(s.loc, false)
	return view, nil
}

// ListSeats returns the seat map of an expedition
func (s *ExpeditionService) ListSeats(ctx context.Context, expeditionID int64) ([]models.SeatView, error) {
	expedition, err := s.expeditions.GetByID(ctx, expeditionID)
	if err != nil {
		return nil, models.NewCriticalError("Failed to load expedition", err)
	}
	if expedition == nil {
		return nil, models.NewNotFoundError(fmt.Sprintf("Expedition ID: %d", expeditionID))
	}

	seats, err := s.seats.ListByExpedition(ctx, expeditionID)
	if err != nil {
		return nil, models.NewCriticalError("Failed to load seats", err)
	}

	now := s.now()
	views := make([]models.SeatView, 0, len(seats))
	for i := range seats {
		views = append(views, models.SeatView{
			SeatNo: seats[i].SeatNo,
			Status: seats[i].Status,
			Held:   seats[i].IsHeld(now),
		})
	}
	return views, nil
}

// ListCompanyExpeditions returns the expeditions of a company including profit
func (s *ExpeditionService) ListCompanyExpeditions(ctx context.Context, companyID int64) ([]models.ExpeditionView, error) {
	views, err := s.expeditions.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, models.NewCriticalError("Failed to list expeditions", err)
	}
	for i := range views {
		views[i].Finalize(s.loc, true)
	}
	return views, nil
}

// Search finds expeditions between two cities departing on the given local date
func (s *ExpeditionService) Search(ctx context.Context, departureCityID, arrivalCityID int64, date string) ([]models.ExpeditionView, error) {
	if departureCityID <= 0 || arrivalCityID <= 0 {
		return nil, models.NewInvalidInputError("City IDs must be positive integers")
	}
	day, err := time.ParseInLocation(models.DateLayout, date, s.loc)
	if err != nil {
		return nil, models.NewInvalidInputError("Date must be YYYY-MM-DD")
	}

	views, err := s.expeditions.Search(ctx, departureCityID, arrivalCityID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, models.NewCriticalError("Failed to search expeditions", err)
	}
	for i := range views {
		views[i].Finalize(s.loc, false)
	}
	return views, nil
}
