package api

import (
	"net/http"

	"gym360/backend/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// SessionHandler serves schedule reads for coaches and clients.
type SessionHandler struct {
	sessionService service.SessionService
	logger         *log.Logger
}

func NewSessionHandler(sessionService service.SessionService, logger *log.Logger) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, logger: logger}
}

// sessionListQuery holds the optional list filters; dates are YYYY-MM-DD.
type sessionListQuery struct {
	Status string `form:"status"`
	From   string `form:"from"` // Inclusive
	To     string `form:"to"`   // Inclusive
}

func (q sessionListQuery) filter() service.SessionFilter {
	return service.SessionFilter{Status: q.Status, From: q.From, To: q.To}
}

// CoachSessions godoc
// @Summary List my sessions as a coach
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param status query string false "Session status"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {array} SessionResponse
// @Failure 400 {object} gin.H "Invalid filter"
// @Router /sessions/coach/mine [get]
func (h *SessionHandler) CoachSessions(c *gin.Context) {
	coachID, ok := callerID(c) // Coach sessions are keyed by the user ID
	if !ok {
		return
	}
	var q sessionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	sessions, err := h.sessionService.ListCoachSessions(c.Request.Context(), coachID, q.filter())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionsToResponse(sessions))
}

// ClientSessions godoc
// @Summary List the sessions I take part in
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param status query string false "Session status"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {array} SessionResponse
// @Router /sessions/mine [get]
func (h *SessionHandler) ClientSessions(c *gin.Context) {
	userID, ok := callerID(c) // Service resolves the client profile from this
	if !ok {
		return
	}
	var q sessionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	sessions, err := h.sessionService.ListClientSessions(c.Request.Context(), userID, q.filter())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionsToResponse(sessions))
}
