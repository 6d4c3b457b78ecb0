package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupExpeditionRouter(expeditions *mockExpeditionManager, availability *mockAvailabilityChecker, companyID int64) *gin.Engine {
	router := setupTestRouter()
	handler := NewExpeditionHandler(expeditions, availability, testLogger())
	router.GET("/expeditions", handler.SearchExpeditions)
	router.GET("/expeditions/:id", handler.GetExpedition)
	router.GET("/expeditions/:id/seats", handler.GetSeats)
	router.GET("/expeditions/:id/availability", handler.GetAvailability)

	company := router.Group("/")
	if companyID > 0 {
		company.Use(withCompany(companyID))
	}
	company.POST("/expeditions", handler.CreateExpedition)
	company.GET("/company/expeditions", handler.ListCompanyExpeditions)
	return router
}

func createBody() map[string]interface{} {
	return map[string]interface{}{
		"departureCityId": 1,
		"arrivalCityId":   2,
		"date":            "2026-06-01",
		"time":            "09:30",
		"price":           "1250.50",
		"duration":        300,
		"capacity":        40,
	}
}

func TestCreateExpedition_Success(t *testing.T) {
	expeditions := new(mockExpeditionManager)
	expeditions.On("CreateExpedition", mock.Anything, int64(12), mock.MatchedBy(func(req *models.CreateExpeditionRequest) bool {
		return req.Capacity == 40 && req.Price == "1250.50" && *req.Duration == 300
	})).Return(int64(45), nil)

	router := setupExpeditionRouter(expeditions, new(mockAvailabilityChecker), 12)
	w := performRequest(router, http.MethodPost, "/expeditions", createBody())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(45), decodeBody(w)["expeditionId"])
}

func TestCreateExpedition_RequiresCompany(t *testing.T) {
	expeditions := new(mockExpeditionManager)
	router := setupExpeditionRouter(expeditions, new(mockAvailabilityChecker), 0)

	w := performRequest(router, http.MethodPost, "/expeditions", createBody())

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	expeditions.AssertNotCalled(t, "CreateExpedition", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateExpedition_BindingRejectsCapacity(t *testing.T) {
	expeditions := new(mockExpeditionManager)
	router := setupExpeditionRouter(expeditions, new(mockAvailabilityChecker), 12)

	body := createBody()
	body["capacity"] = 1001
	w := performRequest(router, http.MethodPost, "/expeditions", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	expeditions.AssertNotCalled(t, "CreateExpedition", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateExpedition_ServiceError(t *testing.T) {
	expeditions := new(mockExpeditionManager)
	expeditions.On("CreateExpedition", mock.Anything, int64(12), mock.Anything).
		Return(int64(0), models.NewNotFoundError("Arrival City ID: 2"))

	router := setupExpeditionRouter(expeditions, new(mockAvailabilityChecker), 12)
	w := performRequest(router, http.MethodPost, "/expeditions", createBody())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Arrival City ID: 2 not found", decodeBody(w)["message"])
}

func TestGetExpedition(t *testing.T) {
	expeditions := new(mockExpeditionManager)
	expeditions.On("GetExpedition", mock.Anything, int64(45)).Return(&models.ExpeditionView{ExpeditionID: 45, Price: "1250.50"}, nil)
	expeditions.On("GetExpedition", mock.Anything, int64(46)).Return(nil, models.NewNotFoundError("Expedition ID: 46"))
	router := setupExpeditionRouter(expeditions, new(mockAvailabilityChecker), 0)

	w := performRequest(router, http.MethodGet, "/expeditions/45", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":"1250.50"`)
	assert.NotContains(t, w.Body.String(), "profit")

	w = performRequest(router, http.MethodGet, "/expeditions/46", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodGet, "/expeditions/-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSeats(t *testing.T) {
	expeditions := new(mockExpeditionManager)
	expeditions.On("ListSeats", mock.Anything, int64(45)).Return([]models.SeatView{
		{SeatNo: 1, Status: models.SeatStatusAvailable},
		{SeatNo: 2, Status: models.SeatStatusReserved},
	}, nil)
	router := setupExpeditionRouter(expeditions, new(mockAvailabilityChecker), 0)

	w := performRequest(router, http.MethodGet, "/expeditions/45/seats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"RESERVED"`)
}

func TestGetAvailability(t *testing.T) {
	availability := new(mockAvailabilityChecker)
	availability.On("Check", mock.Anything, int64(45), 8).Return(&models.AvailabilityResponse{
		ExpeditionID:     45,
		SeatNo:           8,
		ExpeditionStatus: models.AvailabilitySuccess,
		SeatStatus:       models.AvailabilityAlreadyBooked,
	}, nil)
	router := setupExpeditionRouter(new(mockExpeditionManager), availability, 0)

	w := performRequest(router, http.MethodGet, "/expeditions/45/availability?seat_no=8", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ALREADY_BOOKED", decodeBody(w)["seatStatus"])

	w = performRequest(router, http.MethodGet, "/expeditions/45/availability?seat_no=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchExpeditions(t *testing.T) {
	expeditions := new(mockExpeditionManager)
	expeditions.On("Search", mock.Anything, int64(1), int64(2), "2026-06-01").
		Return([]models.ExpeditionView{{ExpeditionID: 45}}, nil)
	router := setupExpeditionRouter(expeditions, new(mockAvailabilityChecker), 0)

	w := performRequest(router, http.MethodGet, "/expeditions?departure_city_id=1&arrival_city_id=2&date=2026-06-01", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"expeditionId":45`)

	w = performRequest(router, http.MethodGet, "/expeditions?departure_city_id=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCompanyExpeditions(t *testing.T) {
	expeditions := new(mockExpeditionManager)
	expeditions.On("ListCompanyExpeditions", mock.Anything, int64(12)).
		Return([]models.ExpeditionView{{ExpeditionID: 45, Profit: "30.00"}}, nil)
	router := setupExpeditionRouter(expeditions, new(mockAvailabilityChecker), 12)

	w := performRequest(router, http.MethodGet, "/company/expeditions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"profit":"30.00"`)
}
