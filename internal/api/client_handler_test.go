package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/logger"
	"gym360/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockCoachClientService struct {
	mock.Mock
}

func (m *mockCoachClientService) ListCoachClients(ctx context.Context, coachID primitive.ObjectID, query string, limit int) (*service.ClientPage, error) {
	args := m.Called(ctx, coachID, query, limit)
	if p := args.Get(0); p != nil {
		return p.(*service.ClientPage), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockBillingService struct {
	mock.Mock
}

func (m *mockBillingService) MySubscriptions(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *mockBillingService) MyPayments(ctx context.Context, userID primitive.ObjectID) ([]service.PaymentView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]service.PaymentView), args.Error(1)
}

func newClientTestRouter(clients service.CoachClientService, billing service.BillingService) *gin.Engine {
	log := logger.Discard()
	router := NewRouter(log, nil)
	SetupRoutes(router, testSecret, Services{CoachClient: clients, Billing: billing}, log)
	return router
}

func TestCoachClientsHandler(t *testing.T) {
	clients := new(mockCoachClientService)
	router := newClientTestRouter(clients, new(mockBillingService))
	coach := primitive.NewObjectID()
	contact := domain.ClientContact{
		Client: domain.Client{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()},
		Email:  "sam@gym.test",
	}
	clients.On("ListCoachClients", mock.Anything, coach, "sam", 0).
		Return(&service.ClientPage{Source: service.ClientsAssigned, Clients: []domain.ClientContact{contact}}, nil).Once()

	w := doRequest(router, http.MethodGet, "/api/coach/clients?q=sam&limit=abc", signToken(t, coach, domain.RoleCoach, time.Hour), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body []ClientContactResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, contact.ID.Hex(), body[0].ID)
	assert.Equal(t, "sam@gym.test", body[0].DisplayName, "email labels clients without a name")
	assert.Equal(t, service.ClientsAssigned, body[0].Source)

	w = doRequest(router, http.MethodGet, "/api/coach/clients", signToken(t, primitive.NewObjectID(), domain.RoleClient, time.Hour), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	clients.AssertExpectations(t)
}

func TestMyBillingHandlers(t *testing.T) {
	billing := new(mockBillingService)
	router := newClientTestRouter(new(mockCoachClientService), billing)
	user := primitive.NewObjectID()
	token := signToken(t, user, domain.RoleClient, time.Hour)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := domain.Subscription{ID: primitive.NewObjectID(), StartDate: start, EndDate: start.AddDate(1, 0, 0), Type: domain.SubscriptionYearly, Price: 400, Status: domain.SubscriptionActive}
	billing.On("MySubscriptions", mock.Anything, user).Return([]domain.Subscription{sub}, nil).Once()
	billing.On("MyPayments", mock.Anything, user).Return([]service.PaymentView{
		{Payment: domain.Payment{ID: primitive.NewObjectID(), SubscriptionID: sub.ID, Amount: 400, Date: start, Status: domain.PaymentPaid}, Subscription: &sub},
	}, nil).Once()

	w := doRequest(router, http.MethodGet, "/api/subscriptions/my", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var subs []SubscriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, "2024-03-01", subs[0].StartDate)
	assert.Equal(t, "2025-03-01", subs[0].EndDate)

	w = doRequest(router, http.MethodGet, "/api/payments/my", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payments []PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payments))
	require.Len(t, payments, 1)
	require.NotNil(t, payments[0].Subscription)
	assert.Equal(t, domain.SubscriptionYearly, payments[0].Subscription.Type)

	w = doRequest(router, http.MethodGet, "/api/payments/my", signToken(t, user, domain.RoleCoach, time.Hour), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	billing.AssertExpectations(t)
}
