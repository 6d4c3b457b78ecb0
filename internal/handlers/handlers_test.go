package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/shubilet/expedition-service/internal/middleware"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/shubilet/expedition-service/pkg/payment"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

// withCompany stands in for AuthMiddleware
func withCompany(companyID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CompanyContextKey, middleware.CompanyContext{CompanyID: companyID})
		c.Next()
	}
}

type mockReservationService struct{ mock.Mock }

func (m *mockReservationService) BuyTicket(ctx context.Context, req models.BuyTicketRequest) (*models.BuyTicketResponse, error) {
	args := m.Called(ctx, req)
	response, _ := args.Get(0).(*models.BuyTicketResponse)
	return response, args.Error(1)
}

func (m *mockReservationService) ListCustomerCards(ctx context.Context, customerID int64) ([]payment.CardSummary, error) {
	args := m.Called(ctx, customerID)
	cards, _ := args.Get(0).([]payment.CardSummary)
	return cards, args.Error(1)
}

type mockTicketReader struct{ mock.Mock }

func (m *mockTicketReader) GetTicketDetails(ctx context.Context, pnr string) (*models.TicketDetails, error) {
	args := m.Called(ctx, pnr)
	details, _ := args.Get(0).(*models.TicketDetails)
	return details, args.Error(1)
}

func (m *mockTicketReader) GetTicketsByCustomerID(ctx context.Context, customerID int64) ([]models.TicketDetails, error) {
	args := m.Called(ctx, customerID)
	tickets, _ := args.Get(0).([]models.TicketDetails)
	return tickets, args.Error(1)
}

type mockExpeditionManager struct{ mock.Mock }

func (m *mockExpeditionManager) CreateExpedition(ctx context.Context, companyID int64, req *models.CreateExpeditionRequest) (int64, error) {
	args := m.Called(ctx, companyID, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockExpeditionManager) GetExpedition(ctx context.Context, id int64) (*models.ExpeditionView, error) {
	args := m.Called(ctx, id)
	view, _ := args.Get(0).(*models.ExpeditionView)
	return view, args.Error(1)
}

func (m *mockExpeditionManager) ListSeats(ctx context.Context, expeditionID int64) ([]models.SeatView, error) {
	args := m.Called(ctx, expeditionID)
	seats, _ := args.Get(0).([]models.SeatView)
	return seats, args.Error(1)
}

func (m *mockExpeditionManager) ListCompanyExpeditions(ctx context.Context, companyID int64) ([]models.ExpeditionView, error) {
	args := m.Called(ctx, companyID)
	views, _ := args.Get(0).([]models.ExpeditionView)
	return views, args.Error(1)
}

func (m *mockExpeditionManager) Search(ctx context.Context, departureCityID, arrivalCityID int64, date string) ([]models.ExpeditionView, error) {
	args := m.Called(ctx, departureCityID, arrivalCityID, date)
	views, _ := args.Get(0).([]models.ExpeditionView)
	return views, args.Error(1)
}

type mockAvailabilityChecker struct{ mock.Mock }

func (m *mockAvailabilityChecker) Check(ctx context.Context, expeditionID int64, seatNo int) (*models.AvailabilityResponse, error) {
	args := m.Called(ctx, expeditionID, seatNo)
	response, _ := args.Get(0).(*models.AvailabilityResponse)
	return response, args.Error(1)
}

var errBoom = errors.New("boom")
