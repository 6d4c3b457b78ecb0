package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/shubilet/expedition-service/pkg/payment"
	"github.com/shubilet/expedition-service/pkg/pnr"
	"github.com/sirupsen/logrus"
)

// ReservationService is implemented by services.BookingOrchestratorService
type ReservationService interface {
	BuyTicket(ctx context.Context, req models.BuyTicketRequest) (*models.BuyTicketResponse, error)
	ListCustomerCards(ctx context.Context, customerID int64) ([]payment.CardSummary, error)
}

// TicketReader is implemented by services.TicketService
type TicketReader interface {
	GetTicketDetails(ctx context.Context, pnr string) (*models.TicketDetails, error)
	GetTicketsByCustomerID(ctx context.Context, customerID int64) ([]models.TicketDetails, error)
}

// ReservationHandler handles ticket purchase and ticket lookup endpoints
type ReservationHandler struct {
	reservations ReservationService
	tickets      TicketReader
	logger       *logrus.Logger
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservations ReservationService, tickets TicketReader, logger *logrus.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservations: reservations,
		tickets:      tickets,
		logger:       logger,
	}
}

// ============================================================================
// BUY TICKET - POST /api/v1/reservation/buy_ticket
// ============================================================================

// BuyTicket books a seat and charges the customer's card
// @Summary Buy ticket
// @Tags Reservation
// @Accept json
// @Produce json
// @Param request body models.BuyTicketRequest true "Ticket purchase"
// @Success 200 {object} models.BuyTicketResponse
// @Failure 400 {object} map[string]interface{} "Invalid ids or expedition departed"
// @Failure 402 {object} map[string]interface{} "Card not active"
// @Failure 404 {object} map[string]interface{} "Expedition or seat not found"
// @Failure 409 {object} map[string]interface{} "Seat already booked"
// @Router /reservation/buy_ticket [post]
func (h *ReservationHandler) BuyTicket(c *gin.Context) {
	var req models.BuyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Customer ID, Expedition ID, Seat No and Card ID must be positive integers: invalid format"})
		return
	}

	response, err := h.reservations.BuyTicket(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ============================================================================
// TICKETS - GET /api/v1/reservation/tickets/:pnr
// ============================================================================

// GetTicket returns one ticket by PNR
func (h *ReservationHandler) GetTicket(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("pnr")))
	if !pnr.Valid(code) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "PNR must be 6 letters or digits"})
		return
	}

	details, err := h.tickets.GetTicketDetails(c.Request.Context(), code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if details == nil {
		respondError(c, h.logger, models.NewNotFoundError("PNR: "+code))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": details})
}

// GetCustomerTickets returns every ticket a customer owns
func (h *ReservationHandler) GetCustomerTickets(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customer_id", "Customer ID")
	if !ok {
		return
	}

	tickets, err := h.tickets.GetTicketsByCustomerID(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	message := "Tickets retrieved successfully."
	if len(tickets) == 0 {
		message = "No tickets found."
	}
	c.JSON(http.StatusOK, models.CustomerTicketsResponse{Tickets: tickets, Message: message})
}

// ============================================================================
// CARDS - GET /api/v1/reservation/customers/:customer_id/cards
// ============================================================================

// GetCustomerCards lists the saved cards a customer can pay with
func (h *ReservationHandler) GetCustomerCards(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customer_id", "Customer ID")
	if !ok {
		return
	}

	cards, err := h.reservations.ListCustomerCards(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// parseIDParam reads a positive integer path parameter, answering 400 when it is not one
func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("%s must be a positive integer: invalid format", label)})
		return 0, false
	}
	return id, true
}
