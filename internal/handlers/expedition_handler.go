package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shubilet/expedition-service/internal/middleware"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ExpeditionManager is implemented by services.ExpeditionService
type ExpeditionManager interface {
	CreateExpedition(ctx context.Context, companyID int64, req *models.CreateExpeditionRequest) (int64, error)
	GetExpedition(ctx context.Context, id int64) (*models.ExpeditionView, error)
	ListSeats(ctx context.Context, expeditionID int64) ([]models.SeatView, error)
	ListCompanyExpeditions(ctx context.Context, companyID int64) ([]models.ExpeditionView, error)
	Search(ctx context.Context, departureCityID, arrivalCityID int64, date string) ([]models.ExpeditionView, error)
}

// AvailabilityChecker is implemented by services.AvailabilityService
type AvailabilityChecker interface {
	Check(ctx context.Context, expeditionID int64, seatNo int) (*models.AvailabilityResponse, error)
}

// ExpeditionHandler handles expedition endpoints
type ExpeditionHandler struct {
	expeditions  ExpeditionManager
	availability AvailabilityChecker
	logger       *logrus.Logger
}

// NewExpeditionHandler creates a new ExpeditionHandler
func NewExpeditionHandler(expeditions ExpeditionManager, availability AvailabilityChecker, logger *logrus.Logger) *ExpeditionHandler {
	return &ExpeditionHandler{
		expeditions:  expeditions,
		availability: availability,
		logger:       logger,
	}
}

// CreateExpedition creates an expedition and its seats for the authenticated company
// @Summary Create expedition
// @Tags Expeditions
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body models.CreateExpeditionRequest true "Expedition"
// @Success 201 {object} models.CreateExpeditionResponse
// @Router /expeditions [post]
func (h *ExpeditionHandler) CreateExpedition(c *gin.Context) {
	companyCtx, exists := middleware.GetCompanyContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "company not authenticated"})
		return
	}

	var req models.CreateExpeditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request: " + err.Error()})
		return
	}

	id, err := h.expeditions.CreateExpedition(c.Request.Context(), companyCtx.CompanyID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateExpeditionResponse{
		ExpeditionID: id,
		Message:      "Expedition created successfully.",
	})
}

// GetExpedition returns one expedition
func (h *ExpeditionHandler) GetExpedition(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Expedition ID")
	if !ok {
		return
	}

	view, err := h.expeditions.GetExpedition(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expedition": view})
}

// GetSeats returns the seat map of an expedition
func (h *ExpeditionHandler) GetSeats(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Expedition ID")
	if !ok {
		return
	}

	seats, err := h.expeditions.ListSeats(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expeditionId": id, "seats": seats})
}

// GetAvailability reports whether the expedition, and optionally one seat, can be booked
func (h *ExpeditionHandler) GetAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Expedition ID")
	if !ok {
		return
	}

	seatNo := 0
	if raw := c.Query("seat_no"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Seat No must be a positive integer: invalid format"})
			return
		}
		seatNo = parsed
	}

	response, err := h.availability.Check(c.Request.Context(), id, seatNo)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// SearchExpeditions finds expeditions between two cities on a date
func (h *ExpeditionHandler) SearchExpeditions(c *gin.Context) {
	departureCityID, err1 := strconv.ParseInt(c.Query("departure_city_id"), 10, 64)
	arrivalCityID, err2 := strconv.ParseInt(c.Query("arrival_city_id"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "departure_city_id and arrival_city_id are required integers"})
		return
	}

	views, err := h.expeditions.Search(c.Request.Context(), departureCityID, arrivalCityID, c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expeditions": views})
}

// ListCompanyExpeditions returns the expeditions of the authenticated company with profit
func (h *ExpeditionHandler) ListCompanyExpeditions(c *gin.Context) {
	companyCtx, exists := middleware.GetCompanyContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "company not authenticated"})
		return
	}

	views, err := h.expeditions.ListCompanyExpeditions(c.Request.Context(), companyCtx.CompanyID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expeditions": views})
}
