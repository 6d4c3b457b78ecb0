package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/events"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/shubilet/expedition-service/pkg/payment"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockExpeditionStore struct{ mock.Mock }

func (m *mockExpeditionStore) Create(ctx context.Context, q sqlx.ExtContext, expedition *models.Expedition) (int64, error) {
	args := m.Called(ctx, q, expedition)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockExpeditionStore) GetByID(ctx context.Context, id int64) (*models.Expedition, error) {
	args := m.Called(ctx, id)
	expedition, _ := args.Get(0).(*models.Expedition)
	return expedition, args.Error(1)
}

func (m *mockExpeditionStore) GetView(ctx context.Context, id int64) (*models.ExpeditionView, error) {
	args := m.Called(ctx, id)
	view, _ := args.Get(0).(*models.ExpeditionView)
	return view, args.Error(1)
}

func (m *mockExpeditionStore) ListByCompany(ctx context.Context, companyID int64) ([]models.ExpeditionView, error) {
	args := m.Called(ctx, companyID)
	views, _ := args.Get(0).([]models.ExpeditionView)
	return views, args.Error(1)
}

func (m *mockExpeditionStore) Search(ctx context.Context, departureCityID, arrivalCityID int64, from, to time.Time) ([]models.ExpeditionView, error) {
	args := m.Called(ctx, departureCityID, arrivalCityID, from, to)
	views, _ := args.Get(0).([]models.ExpeditionView)
	return views, args.Error(1)
}

func (m *mockExpeditionStore) IncrementBookedSeats(ctx context.Context, q sqlx.ExtContext, id int64) (bool, error) {
	args := m.Called(ctx, q, id)
	return args.Bool(0), args.Error(1)
}

type mockSeatStore struct{ mock.Mock }

func (m *mockSeatStore) SeatExists(ctx context.Context, expeditionID int64, seatNo int) (bool, error) {
	args := m.Called(ctx, expeditionID, seatNo)
	return args.Bool(0), args.Error(1)
}

func (m *mockSeatStore) GetSeat(ctx context.Context, expeditionID int64, seatNo int) (*models.Seat, error) {
	args := m.Called(ctx, expeditionID, seatNo)
	seat, _ := args.Get(0).(*models.Seat)
	return seat, args.Error(1)
}

func (m *mockSeatStore) ListByExpedition(ctx context.Context, expeditionID int64) ([]models.Seat, error) {
	args := m.Called(ctx, expeditionID)
	seats, _ := args.Get(0).([]models.Seat)
	return seats, args.Error(1)
}

func (m *mockSeatStore) GenerateSeats(ctx context.Context, q sqlx.ExtContext, expeditionID int64, capacity int) error {
	return m.Called(ctx, q, expeditionID, capacity).Error(0)
}

func (m *mockSeatStore) HoldSeat(ctx context.Context, expeditionID int64, seatNo int, holdID uuid.UUID, until time.Time) (bool, error) {
	args := m.Called(ctx, expeditionID, seatNo, holdID, until)
	return args.Bool(0), args.Error(1)
}

func (m *mockSeatStore) ReleaseHold(ctx context.Context, holdID uuid.UUID) error {
	return m.Called(ctx, holdID).Error(0)
}

func (m *mockSeatStore) ReleaseExpiredHolds(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSeatStore) BookSeat(ctx context.Context, q sqlx.ExtContext, expeditionID, customerID int64, seatNo int, holdID uuid.UUID) (int64, error) {
	args := m.Called(ctx, q, expeditionID, customerID, seatNo, holdID)
	return args.Get(0).(int64), args.Error(1)
}

type mockTicketStore struct{ mock.Mock }

func (m *mockTicketStore) Insert(ctx context.Context, q sqlx.ExtContext, ticket *models.Ticket) (bool, error) {
	args := m.Called(ctx, q, ticket)
	return args.Bool(0), args.Error(1)
}

func (m *mockTicketStore) GetDetailsByPNR(ctx context.Context, pnr string) (*models.TicketDetails, error) {
	args := m.Called(ctx, pnr)
	details, _ := args.Get(0).(*models.TicketDetails)
	return details, args.Error(1)
}

func (m *mockTicketStore) GetDetailsByCustomerID(ctx context.Context, customerID int64) ([]models.TicketDetails, error) {
	args := m.Called(ctx, customerID)
	tickets, _ := args.Get(0).([]models.TicketDetails)
	return tickets, args.Error(1)
}

type mockCityStore struct{ mock.Mock }

func (m *mockCityStore) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// fakeTransactor runs fn without a database and records whether it committed
type fakeTransactor struct {
	calls     int
	committed int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, q sqlx.ExtContext) error) error {
	f.calls++
	if err := fn(ctx, nil); err != nil {
		return err
	}
	f.committed++
	return nil
}

type mockPaymentGateway struct{ mock.Mock }

func (m *mockPaymentGateway) IsCardActive(ctx context.Context, cardID int64) (payment.Result, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).(payment.Result), args.Error(1)
}

func (m *mockPaymentGateway) Charge(ctx context.Context, charge payment.ChargeRequest) (int64, payment.Result, error) {
	args := m.Called(ctx, charge)
	return args.Get(0).(int64), args.Get(1).(payment.Result), args.Error(2)
}

func (m *mockPaymentGateway) ListCards(ctx context.Context, customerID int64) ([]payment.CardSummary, payment.Result, error) {
	args := m.Called(ctx, customerID)
	cards, _ := args.Get(0).([]payment.CardSummary)
	return cards, args.Get(1).(payment.Result), args.Error(2)
}

func (m *mockPaymentGateway) Refund(ctx context.Context, paymentID int64, reason string) (payment.Result, error) {
	args := m.Called(ctx, paymentID, reason)
	return args.Get(0).(payment.Result), args.Error(1)
}

// recordingAuditor keeps every audit entry in memory
type recordingAuditor struct {
	entries []*models.PaymentAudit
	err     error
}

func (r *recordingAuditor) Log(ctx context.Context, audit *models.PaymentAudit) error {
	r.entries = append(r.entries, audit)
	return r.err
}

func (r *recordingAuditor) eventTypes() []models.PaymentEventType {
	types := make([]models.PaymentEventType, 0, len(r.entries))
	for _, entry := range r.entries {
		types = append(types, entry.EventType)
	}
	return types
}

// recordingPublisher keeps every published event in memory
type recordingPublisher struct {
	events []events.BookingEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.BookingEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

// sequencePNR returns the given codes in order
type sequencePNR struct {
	codes []string
	next  int
}

func (s *sequencePNR) Generate() (string, error) {
	code := s.codes[s.next%len(s.codes)]
	s.next++
	return code, nil
}

type mockTicketCache struct{ mock.Mock }

func (m *mockTicketCache) GetTicket(ctx context.Context, pnr string) (*models.TicketDetails, error) {
	args := m.Called(ctx, pnr)
	details, _ := args.Get(0).(*models.TicketDetails)
	return details, args.Error(1)
}

func (m *mockTicketCache) SetTicket(ctx context.Context, details *models.TicketDetails) error {
	return m.Called(ctx, details).Error(0)
}

func (m *mockTicketCache) GetCustomerTickets(ctx context.Context, customerID int64) ([]models.TicketDetails, error) {
	args := m.Called(ctx, customerID)
	tickets, _ := args.Get(0).([]models.TicketDetails)
	return tickets, args.Error(1)
}

func (m *mockTicketCache) SetCustomerTickets(ctx context.Context, customerID int64, tickets []models.TicketDetails) error {
	return m.Called(ctx, customerID, tickets).Error(0)
}

func (m *mockTicketCache) InvalidateCustomerTickets(ctx context.Context, customerID int64) error {
	return m.Called(ctx, customerID).Error(0)
}
