package api

import (
	"net/http"
	"strconv"

	"gym360/backend/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// ClientHandler serves the coach's client picker and the client's own
// billing history.
type ClientHandler struct {
	coachClientService service.CoachClientService
	billingService     service.BillingService
	logger             *log.Logger
}

func NewClientHandler(coachClientService service.CoachClientService, billingService service.BillingService, logger *log.Logger) *ClientHandler {
	return &ClientHandler{
		coachClientService: coachClientService,
		billingService:     billingService,
		logger:             logger,
	}
}

// CoachClients godoc
// @Summary Clients a coach can put in a session request
// @Description Clients from the coach's sessions, else assigned clients, else any client.
// @Tags Coach
// @Security BearerAuth
// @Param q query string false "Name or email contains"
// @Param limit query int false "1-100, default 25"
// @Success 200 {array} ClientContactResponse
// @Router /coach/clients [get]
func (h *ClientHandler) CoachClients(c *gin.Context) {
	coachID, ok := callerID(c)
	if !ok {
		return
	}
	// Non-numeric limits fall back to the default, like an absent one
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.coachClientService.ListCoachClients(c.Request.Context(), coachID, c.Query("q"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapClientContactsToResponse(page.Clients, page.Source))
}

// MySubscriptions godoc
// @Summary Subscriptions of the authenticated client
// @Tags Client
// @Security BearerAuth
// @Success 200 {array} SubscriptionResponse "Empty for users without a client profile"
// @Router /subscriptions/my [get]
func (h *ClientHandler) MySubscriptions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	subs, err := h.billingService.MySubscriptions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapSubscriptionsToResponse(subs))
}

// MyPayments godoc
// @Summary Payments of the authenticated client, with their subscription
// @Tags Client
// @Security BearerAuth
// @Success 200 {array} PaymentResponse
// @Router /payments/my [get]
func (h *ClientHandler) MyPayments(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	payments, err := h.billingService.MyPayments(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapPaymentsToResponse(payments))
}
