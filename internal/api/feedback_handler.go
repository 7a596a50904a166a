package api

import (
	"net/http"

	"gym360/backend/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// FeedbackHandler lets clients rate their past sessions.
type FeedbackHandler struct {
	feedbackService service.FeedbackService
	logger          *log.Logger
}

func NewFeedbackHandler(feedbackService service.FeedbackService, logger *log.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, logger: logger}
}

type SubmitFeedbackRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Rating    int    `json:"rating" binding:"required"` // 1 to 5, checked by the service
	Comment   string `json:"comment"`
}

// Submit godoc
// @Summary Rate a session I attended
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param feedback body SubmitFeedbackRequest true "Rating and optional comment"
// @Success 201 {object} FeedbackResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Not a participant of the session"
// @Failure 409 {object} gin.H "Session already rated"
// @Router /feedbacks [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	fb, err := h.feedbackService.Submit(c.Request.Context(), userID, req.SessionID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, MapFeedbackToResponse(fb))
}

// ListMine godoc
// @Summary List my feedbacks
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {array} FeedbackResponse
// @Router /feedbacks/my [get]
func (h *FeedbackHandler) ListMine(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	feedbacks, err := h.feedbackService.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapFeedbacksToResponse(feedbacks))
}
