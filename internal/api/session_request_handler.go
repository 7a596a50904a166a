package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"gym360/backend/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

type SessionRequestHandler struct {
	requestService service.SessionRequestService
	sessionService service.SessionService
	logger         *log.Logger
}

func NewSessionRequestHandler(requestService service.SessionRequestService, sessionService service.SessionService, logger *log.Logger) *SessionRequestHandler {
	return &SessionRequestHandler{
		requestService: requestService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// CreateSessionRequestRequest is validated by the service so that errors
// name the offending field.
type CreateSessionRequestRequest struct {
	ClientIDs []string `json:"clientIds"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Type      string   `json:"type"`
	Note      string   `json:"note"`
}

type DecisionRequest struct {
	DecisionNote string `json:"decisionNote"`
}

type requestListQuery struct {
	Status  string `form:"status"`
	CoachID string `form:"coachId"`
	From    string `form:"from"`
	To      string `form:"to"`
}

func (q requestListQuery) filter() service.RequestFilter {
	return service.RequestFilter{Status: q.Status, CoachID: q.CoachID, From: q.From, To: q.To}
}

type ApprovalResponse struct {
	Request SessionRequestResponse `json:"request"`
	Session SessionResponse        `json:"session"`
}

type NotificationsResponse struct {
	Count int64                    `json:"count"`
	Items []SessionRequestResponse `json:"items"`
}

type MarkReadResponse struct {
	SeenAt  time.Time `json:"seenAt"`
	Updated int64     `json:"updated"`
}

// CreateRequest godoc
// @Summary Propose a session for admin approval
// @Tags Requests
// @Security BearerAuth
// @Success 201 {object} SessionRequestResponse "possibleConflict is advisory"
// @Failure 400 {object} gin.H "Validation error, with invalidIds for unknown clients"
// @Router /requests [post]
func (h *SessionRequestHandler) CreateRequest(c *gin.Context) {
	coachID, ok := callerID(c)
	if !ok {
		return
	}
	var req CreateSessionRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	view, err := h.requestService.CreateRequest(c.Request.Context(), coachID, service.CreateRequestInput{
		ClientIDs: req.ClientIDs,
		Date:      req.Date,
		Time:      req.Time,
		Type:      req.Type,
		Note:      req.Note,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, MapRequestViewToResponse(view))
}

func (h *SessionRequestHandler) ListMine(c *gin.Context) {
	coachID, ok := callerID(c)
	if !ok {
		return
	}
	var q requestListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	reqs, err := h.requestService.ListMyRequests(c.Request.Context(), coachID, q.filter())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionRequestsToResponse(reqs))
}

func (h *SessionRequestHandler) CancelMine(c *gin.Context) {
	coachID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.requestService.CancelMyRequest(c.Request.Context(), coachID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Notifications godoc
// @Summary Decided requests the coach has not acknowledged
// @Tags Requests
// @Security BearerAuth
// @Param limit query int false "1-50, default 10"
// @Param unreadOnly query bool false "default true"
// @Success 200 {object} NotificationsResponse "count is the total unread, independent of limit"
// @Router /requests/notifications [get]
func (h *SessionRequestHandler) Notifications(c *gin.Context) {
	coachID, ok := callerID(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	unreadOnly, err := strconv.ParseBool(c.DefaultQuery("unreadOnly", "true"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "unreadOnly must be a boolean")
		return
	}

	n, err := h.requestService.ListNotifications(c.Request.Context(), coachID, limit, unreadOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NotificationsResponse{Count: n.Count, Items: MapSessionRequestsToResponse(n.Items)})
}

func (h *SessionRequestHandler) MarkNotificationsRead(c *gin.Context) {
	coachID, ok := callerID(c)
	if !ok {
		return
	}
	res, err := h.requestService.MarkNotificationsRead(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MarkReadResponse{SeenAt: res.SeenAt, Updated: res.Updated})
}

func (h *SessionRequestHandler) AdminList(c *gin.Context) {
	var q requestListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	views, err := h.requestService.AdminListRequests(c.Request.Context(), q.filter())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapRequestViewsToResponse(views))
}

// AdminApprove godoc
// @Summary Approve a pending request and schedule its session
// @Tags Admin
// @Security BearerAuth
// @Success 200 {object} ApprovalResponse
// @Failure 404 {object} gin.H "Request not found"
// @Failure 409 {object} gin.H "Request already decided"
// @Router /admin/requests/{id}/approve [post]
func (h *SessionRequestHandler) AdminApprove(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		return
	}
	note, ok := decisionNote(c)
	if !ok {
		return
	}
	req, session, err := h.requestService.AdminApprove(c.Request.Context(), adminID, c.Param("id"), note)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ApprovalResponse{
		Request: MapSessionRequestToResponse(req),
		Session: MapSessionToResponse(session),
	})
}

func (h *SessionRequestHandler) AdminReject(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		return
	}
	note, ok := decisionNote(c)
	if !ok {
		return
	}
	req, err := h.requestService.AdminReject(c.Request.Context(), adminID, c.Param("id"), note)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionRequestToResponse(req))
}

// OrphanSessions lists request-sourced sessions without a linking request.
// since is RFC3339; it defaults to the last 24 hours.
func (h *SessionRequestHandler) OrphanSessions(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
		since = t.UTC()
	}
	orphans, err := h.sessionService.FindOrphanSessions(c.Request.Context(), since)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionsToResponse(orphans))
}

// decisionNote reads the optional decision body. An empty body is allowed.
func decisionNote(c *gin.Context) (string, bool) {
	var body DecisionRequest
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return "", false
	}
	return body.DecisionNote, true
}
