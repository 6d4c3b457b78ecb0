package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/database"
	"github.com/shubilet/expedition-service/internal/events"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/shubilet/expedition-service/pkg/payment"
	"github.com/sirupsen/logrus"
)

// errExpeditionFull is returned inside the commit transaction when the counter guard refuses the increment
var errExpeditionFull = errors.New("expedition has no free seats")

// BookingOrchestratorConfig holds configuration for the orchestrator
type BookingOrchestratorConfig struct {
	HoldTTL  time.Duration // How long a seat stays held while the card is charged
	Currency string        // Currency recorded in payment audits
}

// DefaultOrchestratorConfig returns default configuration
func DefaultOrchestratorConfig() BookingOrchestratorConfig {
	return BookingOrchestratorConfig{
		HoldTTL:  5 * time.Minute,
		Currency: "TRY",
	}
}

// BookingOrchestratorService runs the Hold → Card check → Charge → Commit booking flow
type BookingOrchestratorService struct {
	expeditions  ExpeditionStore
	seats        SeatStore
	tx           Transactor
	availability *AvailabilityService
	tickets      *TicketService
	payments     PaymentGateway
	auditor      PaymentAuditor
	publisher    events.Publisher
	config       BookingOrchestratorConfig
	now          func() time.Time
	logger       *logrus.Logger
}

// NewBookingOrchestratorService creates a new orchestrator service
func NewBookingOrchestratorService(
	expeditions ExpeditionStore,
	seats SeatStore,
	tx Transactor,
	availability *AvailabilityService,
	tickets *TicketService,
	payments PaymentGateway,
	auditor PaymentAuditor,
	publisher events.Publisher,
	config BookingOrchestratorConfig,
	logger *logrus.Logger,
) *BookingOrchestratorService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if config.HoldTTL <= 0 {
		config.HoldTTL = DefaultOrchestratorConfig().HoldTTL
	}
	return &BookingOrchestratorService{
		expeditions:  expeditions,
		seats:        seats,
		tx:           tx,
		availability: availability,
		tickets:      tickets,
		payments:     payments,
		auditor:      auditor,
		publisher:    publisher,
		config:       config,
		now:          time.Now,
		logger:       logger,
	}
}

// bookingAttempt carries the state of one BuyTicket call
type bookingAttempt struct {
	req         models.BuyTicketRequest
	holdID      uuid.UUID
	amountCents int64
	paymentID   int64
}

func (a *bookingAttempt) seatLabel() string {
	return fmt.Sprintf("Seat No: %d for Expedition ID: %d", a.req.SeatNo, a.req.ExpeditionID)
}

func (a *bookingAttempt) expeditionLabel() string {
	return fmt.Sprintf("Expedition ID: %d", a.req.ExpeditionID)
}

// ============================================================================
// BUY TICKET
// ============================================================================

// BuyTicket books a seat for a customer and charges their card. It returns the
// issued ticket or a *models.BookingError.
func (s *BookingOrchestratorService) BuyTicket(ctx context.Context, req models.BuyTicketRequest) (*models.BuyTicketResponse, error) {
	// 1. Validate ids
	if req.CustomerID <= 0 || req.ExpeditionID <= 0 || req.SeatNo <= 0 || req.CardID <= 0 {
		return nil, models.NewInvalidInputError("Customer ID, Expedition ID, Seat No and Card ID must be positive integers: invalid format")
	}

	attempt := &bookingAttempt{req: req, holdID: uuid.New()}
	log := s.logger.WithFields(logrus.Fields{
		"hold_id":       attempt.holdID,
		"customer_id":   req.CustomerID,
		"expedition_id": req.ExpeditionID,
		"seat_no":       req.SeatNo,
	})

	// 2. Existence
	expedition, err := s.expeditions.GetByID(ctx, req.ExpeditionID)
	if err != nil {
		return nil, models.NewCriticalError("Failed to load expedition", err)
	}
	if expedition == nil {
		return nil, models.NewNotFoundError(attempt.expeditionLabel())
	}
	seatExists, err := s.seats.SeatExists(ctx, req.ExpeditionID, req.SeatNo)
	if err != nil {
		return nil, models.NewCriticalError("Failed to load seat", err)
	}
	if !seatExists {
		return nil, models.NewNotFoundError(attempt.seatLabel())
	}

	// 3. Availability
	if err := s.checkAvailability(ctx, attempt); err != nil {
		return nil, err
	}

	// 4. Hold the seat before any money moves
	held, err := s.seats.HoldSeat(ctx, req.ExpeditionID, req.SeatNo, attempt.holdID, s.now().Add(s.config.HoldTTL))
	if err != nil {
		return nil, models.NewCriticalError("Failed to hold seat", err)
	}
	if !held {
		log.Info("Seat hold lost to a concurrent booking")
		return nil, models.NewAlreadyBookedError(attempt.seatLabel())
	}

	// 5. Card check
	started := time.Now()
	res, err := s.payments.IsCardActive(ctx, req.CardID)
	s.audit(ctx, s.newAudit(models.PaymentEventCardCheck, attempt).
		SetResponse(res.URL, res.StatusCode, res.BodyString()).
		SetError(err).
		SetProcessingTime(started))
	if err != nil {
		s.releaseHold(ctx, attempt.holdID)
		log.WithError(err).Info("Card is not active")
		return nil, models.NewCardNotActiveError(req.CardID, err)
	}

	// 6. Price lookup
	attempt.amountCents = expedition.PriceCents

	// 7. Charge
	if err := s.charge(ctx, attempt); err != nil {
		s.releaseHold(ctx, attempt.holdID)
		log.WithError(err).Warn("Charge failed")
		return nil, err
	}

	// 8. Commit seat, counter and ticket together
	pnr, err := s.commit(ctx, attempt)
	if err != nil {
		log.WithError(err).Error("Booking commit failed after charge, compensating")
		return nil, s.compensate(ctx, attempt, err)
	}

	// 9. Read back
	details, err := s.tickets.GetTicketDetails(ctx, pnr)
	if err != nil || details == nil || details.PNR == "" {
		log.WithError(err).WithField("pnr", pnr).Error("Issued ticket could not be read back")
		return nil, models.NewCriticalError("Ticket was issued but could not be read", err)
	}

	// 10. Success
	s.audit(ctx, s.newAudit(models.PaymentEventBookingConfirmed, attempt).
		SetPaymentID(attempt.paymentID).
		SetPNR(pnr))
	s.tickets.ForgetCustomerTickets(ctx, req.CustomerID)
	s.publish(ctx, events.BookingEvent{
		Type:         events.TicketBooked,
		HoldID:       attempt.holdID.String(),
		PNR:          pnr,
		CustomerID:   req.CustomerID,
		ExpeditionID: req.ExpeditionID,
		SeatNo:       req.SeatNo,
		PaymentID:    attempt.paymentID,
		AmountCents:  attempt.amountCents,
	})

	log.WithFields(logrus.Fields{
		"pnr":        pnr,
		"payment_id": attempt.paymentID,
	}).Info("Ticket booked")

	return &models.BuyTicketResponse{
		Ticket:  details,
		Message: models.TicketBookedMessage,
	}, nil
}

func (s *BookingOrchestratorService) checkAvailability(ctx context.Context, attempt *bookingAttempt) error {
	seatStatus, err := s.availability.SeatStatus(ctx, attempt.req.ExpeditionID, attempt.req.SeatNo)
	if err != nil {
		return models.NewCriticalError("Failed to check seat availability", err)
	}
	switch seatStatus {
	case models.AvailabilityNotFound:
		return models.NewNotFoundError(attempt.seatLabel())
	case models.AvailabilityAlreadyBooked:
		return models.NewAlreadyBookedError(attempt.seatLabel())
	}

	expeditionStatus, err := s.availability.ExpeditionStatus(ctx, attempt.req.ExpeditionID)
	if err != nil {
		return models.NewCriticalError("Failed to check expedition availability", err)
	}
	switch expeditionStatus {
	case models.AvailabilityNotFound:
		return models.NewNotFoundError(attempt.expeditionLabel())
	case models.AvailabilityInvalidTime:
		return models.NewInvalidTimeError(attempt.req.ExpeditionID)
	case models.AvailabilityAlreadyBooked:
		return models.NewAlreadyBookedError(attempt.expeditionLabel())
	}
	return nil
}

func (s *BookingOrchestratorService) charge(ctx context.Context, attempt *bookingAttempt) error {
	started := time.Now()
	paymentID, res, err := s.payments.Charge(ctx, payment.ChargeRequest{
		CardID:     attempt.req.CardID,
		Amount:     attempt.amountCents,
		CustomerID: attempt.req.CustomerID,
	})

	eventType := models.PaymentEventChargeSucceeded
	if errors.Is(err, payment.ErrInvalidPaymentResponse) {
		eventType = models.PaymentEventInvalidGatewayResponse
	} else if err != nil {
		eventType = models.PaymentEventChargeFailed
	}
	s.audit(ctx, s.newAudit(eventType, attempt).
		SetPaymentID(paymentID).
		SetResponse(res.URL, res.StatusCode, res.BodyString()).
		SetResponsePayload(map[string]interface{}{"class": res.Class().String()}).
		SetError(err).
		SetProcessingTime(started))

	if err == nil {
		attempt.paymentID = paymentID
		return nil
	}

	var downstream *payment.DownstreamError
	switch {
	case errors.As(err, &downstream):
		return models.NewPaymentFailedError(downstream.StatusCode, downstream.Body, err)
	case errors.Is(err, payment.ErrInvalidPaymentResponse):
		return models.NewCriticalError("Payment service returned an invalid response", err)
	default:
		return models.NewPaymentFailedError(0, "", err)
	}
}

// commit books the held seat, bumps the expedition counter and issues the
// ticket in one transaction. Nothing is persisted unless all three succeed.
func (s *BookingOrchestratorService) commit(ctx context.Context, attempt *bookingAttempt) (string, error) {
	var pnr string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q sqlx.ExtContext) error {
		seatID, err := s.seats.BookSeat(ctx, q, attempt.req.ExpeditionID, attempt.req.CustomerID, attempt.req.SeatNo, attempt.holdID)
		if err != nil {
			return err
		}

		incremented, err := s.expeditions.IncrementBookedSeats(ctx, q, attempt.req.ExpeditionID)
		if err != nil {
			return err
		}
		if !incremented {
			return errExpeditionFull
		}

		pnr, err = s.tickets.GenerateTicket(ctx, q, attempt.paymentID, seatID, attempt.req.CustomerID)
		return err
	})
	return pnr, err
}

// compensate refunds a charge whose booking could not be committed
func (s *BookingOrchestratorService) compensate(ctx context.Context, attempt *bookingAttempt, cause error) error {
	// The refund must go out even if the caller has gone away
	ctx = context.WithoutCancel(ctx)

	eventType := models.PaymentEventBookingConfirmFailed
	if errors.Is(cause, ErrPNRExhausted) {
		eventType = models.PaymentEventTicketIssueAttemptsSpent
	}
	s.audit(ctx, s.newAudit(eventType, attempt).
		SetPaymentID(attempt.paymentID).
		SetError(cause))

	started := time.Now()
	res, refundErr := s.payments.Refund(ctx, attempt.paymentID, "booking could not be completed")
	refundEvent := models.PaymentEventRefundCompleted
	if refundErr != nil {
		refundEvent = models.PaymentEventRefundFailed
	}
	s.audit(ctx, s.newAudit(refundEvent, attempt).
		SetPaymentID(attempt.paymentID).
		SetResponse(res.URL, res.StatusCode, res.BodyString()).
		SetError(refundErr).
		SetProcessingTime(started))

	s.releaseHold(ctx, attempt.holdID)
	s.publish(ctx, events.BookingEvent{
		Type:         events.BookingCompensated,
		HoldID:       attempt.holdID.String(),
		CustomerID:   attempt.req.CustomerID,
		ExpeditionID: attempt.req.ExpeditionID,
		SeatNo:       attempt.req.SeatNo,
		PaymentID:    attempt.paymentID,
		AmountCents:  attempt.amountCents,
		Refunded:     refundErr == nil,
		Reason:       cause.Error(),
	})

	if refundErr != nil {
		s.logger.WithError(refundErr).WithFields(logrus.Fields{
			"hold_id":    attempt.holdID,
			"payment_id": attempt.paymentID,
		}).Error("Refund failed, manual intervention required")
		return models.NewCriticalError("Booking could not be completed and the payment could not be refunded",
			errors.Join(cause, refundErr))
	}

	var bookingErr *models.BookingError
	switch {
	case errors.Is(cause, database.ErrSeatNotBookable):
		bookingErr = models.NewAlreadyBookedError(attempt.seatLabel())
	case errors.Is(cause, errExpeditionFull):
		bookingErr = models.NewAlreadyBookedError(attempt.expeditionLabel())
	case errors.Is(cause, ErrPNRExhausted):
		bookingErr = models.NewCriticalError("Ticket could not be issued", nil)
	default:
		bookingErr = models.NewCriticalError("Booking could not be completed", nil)
	}
	bookingErr.Message += "; the payment has been refunded"
	bookingErr.Err = cause
	return bookingErr
}

// ============================================================================
// CUSTOMER CARDS
// ============================================================================

// ListCustomerCards returns the saved cards of a customer from the payment service
func (s *BookingOrchestratorService) ListCustomerCards(ctx context.Context, customerID int64) ([]payment.CardSummary, error) {
	if customerID <= 0 {
		return nil, models.NewInvalidInputError("Customer ID must be a positive integer: invalid format")
	}

	cards, _, err := s.payments.ListCards(ctx, customerID)
	if err == nil {
		return cards, nil
	}

	var downstream *payment.DownstreamError
	switch {
	case errors.Is(err, payment.ErrCardsNotFound):
		return nil, models.NewNotFoundError("Cards")
	case errors.As(err, &downstream):
		return nil, models.NewPaymentFailedError(downstream.StatusCode, downstream.Body, err)
	default:
		return nil, models.NewPaymentFailedError(0, "", err)
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *BookingOrchestratorService) newAudit(eventType models.PaymentEventType, attempt *bookingAttempt) *models.PaymentAudit {
	return models.NewPaymentAudit(eventType, attempt.holdID).
		SetBooking(attempt.req.CustomerID, attempt.req.ExpeditionID, attempt.req.SeatNo, attempt.req.CardID).
		SetAmount(attempt.amountCents, s.config.Currency)
}

// audit never changes the outcome of a booking
func (s *BookingOrchestratorService) audit(ctx context.Context, audit *models.PaymentAudit) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, audit); err != nil {
		s.logger.WithError(err).WithField("event_type", audit.EventType).Warn("Failed to write payment audit")
	}
}

func (s *BookingOrchestratorService) releaseHold(ctx context.Context, holdID uuid.UUID) {
	if err := s.seats.ReleaseHold(context.WithoutCancel(ctx), holdID); err != nil {
		s.logger.WithError(err).WithField("hold_id", holdID).Warn("Failed to release seat hold, sweeper will clear it")
	}
}

func (s *BookingOrchestratorService) publish(ctx context.Context, event events.BookingEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("type", event.Type).Warn("Failed to publish booking event")
	}
}
