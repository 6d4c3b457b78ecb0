package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/shubilet/expedition-service/pkg/payment"
)

// ExpeditionStore is implemented by database.ExpeditionRepository
type ExpeditionStore interface {
	Create(ctx context.Context, q sqlx.ExtContext, expedition *models.Expedition) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Expedition, error)
	GetView(ctx context.Context, id int64) (*models.ExpeditionView, error)
	ListByCompany(ctx context.Context, companyID int64) ([]models.ExpeditionView, error)
	Search(ctx context.Context, departureCityID, arrivalCityID int64, from, to time.Time) ([]models.ExpeditionView, error)
	IncrementBookedSeats(ctx context.Context, q sqlx.ExtContext, id int64) (bool, error)
}

// SeatStore is implemented by database.SeatRepository
type SeatStore interface {
	SeatExists(ctx context.Context, expeditionID int64, seatNo int) (bool, error)
	GetSeat(ctx context.Context, expeditionID int64, seatNo int) (*models.Seat, error)
	ListByExpedition(ctx context.Context, expeditionID int64) ([]models.Seat, error)
	GenerateSeats(ctx context.Context, q sqlx.ExtContext, expeditionID int64, capacity int) error
	HoldSeat(ctx context.Context, expeditionID int64, seatNo int, holdID uuid.UUID, until time.Time) (bool, error)
	ReleaseHold(ctx context.Context, holdID uuid.UUID) error
	ReleaseExpiredHolds(ctx context.Context) (int64, error)
	BookSeat(ctx context.Context, q sqlx.ExtContext, expeditionID, customerID int64, seatNo int, holdID uuid.UUID) (int64, error)
}

// TicketStore is implemented by database.TicketRepository
type TicketStore interface {
	Insert(ctx context.Context, q sqlx.ExtContext, ticket *models.Ticket) (bool, error)
	GetDetailsByPNR(ctx context.Context, pnr string) (*models.TicketDetails, error)
	GetDetailsByCustomerID(ctx context.Context, customerID int64) ([]models.TicketDetails, error)
}

// CityStore is implemented by database.CityRepository
type CityStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Transactor is implemented by database.Transactor
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, q sqlx.ExtContext) error) error
}

// PaymentGateway is implemented by payment.Client
type PaymentGateway interface {
	IsCardActive(ctx context.Context, cardID int64) (payment.Result, error)
	Charge(ctx context.Context, charge payment.ChargeRequest) (int64, payment.Result, error)
	ListCards(ctx context.Context, customerID int64) ([]payment.CardSummary, payment.Result, error)
	Refund(ctx context.Context, paymentID int64, reason string) (payment.Result, error)
}

// PaymentAuditor is implemented by database.PaymentAuditRepository
type PaymentAuditor interface {
	Log(ctx context.Context, audit *models.PaymentAudit) error
}

// PNRGenerator is implemented by pnr.Generator
type PNRGenerator interface {
	Generate() (string, error)
}

// TicketCache is implemented by cache.TicketCache
type TicketCache interface {
	GetTicket(ctx context.Context, pnr string) (*models.TicketDetails, error)
	SetTicket(ctx context.Context, details *models.TicketDetails) error
	GetCustomerTickets(ctx context.Context, customerID int64) ([]models.TicketDetails, error)
	SetCustomerTickets(ctx context.Context, customerID int64, tickets []models.TicketDetails) error
	InvalidateCustomerTickets(ctx context.Context, customerID int64) error
}
