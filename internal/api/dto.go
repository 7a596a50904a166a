package api

import (
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserResponse excludes the password hash and the raw avatar key.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	AvatarURL string      `json:"avatarUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{} // Return empty response if user is nil
	}
	return UserResponse{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func MapProfileToResponse(p *service.Profile) UserResponse {
	resp := MapUserToResponse(p.User)
	resp.AvatarURL = p.AvatarURL // Presigned, short-lived
	return resp
}

// SessionRequestResponse renders dates as calendar days and ids as hex.
type SessionRequestResponse struct {
	ID               string               `json:"id"`
	CoachID          string               `json:"coachId"`
	ClientIDs        []string             `json:"clientIds"`
	Date             string               `json:"date"`
	Time             string               `json:"time"`
	Type             domain.SessionType   `json:"type"`
	Note             string               `json:"note,omitempty"`
	Status           domain.RequestStatus `json:"status"`
	DecidedBy        *string              `json:"decidedBy,omitempty"`
	DecidedAt        *time.Time           `json:"decidedAt,omitempty"`
	DecisionNote     string               `json:"decisionNote,omitempty"`
	SessionID        *string              `json:"sessionId,omitempty"`
	CoachSeenAt      *time.Time           `json:"coachSeenAt"`
	StatusChangedAt  *time.Time           `json:"statusChangedAt"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
	PossibleConflict *bool                `json:"possibleConflict,omitempty"`
}

func MapSessionRequestToResponse(r *domain.SessionRequest) SessionRequestResponse {
	return SessionRequestResponse{
		ID:              r.ID.Hex(),
		CoachID:         r.CoachID.Hex(),
		ClientIDs:       hexIDs(r.ClientIDs),
		Date:            r.Date.UTC().Format(service.DayLayout),
		Time:            r.Time,
		Type:            r.Type,
		Note:            r.Note,
		Status:          r.Status,
		DecidedBy:       hexPtr(r.DecidedBy),
		DecidedAt:       r.DecidedAt,
		DecisionNote:    r.DecisionNote,
		SessionID:       hexPtr(r.SessionID),
		CoachSeenAt:     r.CoachSeenAt,
		StatusChangedAt: r.StatusChangedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func MapSessionRequestsToResponse(reqs []domain.SessionRequest) []SessionRequestResponse {
	out := make([]SessionRequestResponse, len(reqs))
	for i := range reqs {
		out[i] = MapSessionRequestToResponse(&reqs[i])
	}
	return out
}

func MapRequestViewToResponse(v *service.RequestView) SessionRequestResponse {
	resp := MapSessionRequestToResponse(&v.SessionRequest)
	conflict := v.PossibleConflict
	resp.PossibleConflict = &conflict // Always present on admin views
	return resp
}

func MapRequestViewsToResponse(views []service.RequestView) []SessionRequestResponse {
	out := make([]SessionRequestResponse, len(views))
	for i := range views {
		out[i] = MapRequestViewToResponse(&views[i])
	}
	return out
}

type SessionResponse struct {
	ID        string               `json:"id"`
	CoachID   string               `json:"coachId"`
	ClientIDs []string             `json:"clientIds"`
	Date      string               `json:"date"`
	Time      string               `json:"time"`
	Type      domain.SessionType   `json:"type"`
	Status    domain.SessionStatus `json:"status"`
	Source    domain.SessionSource `json:"source,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

func MapSessionToResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID.Hex(),
		CoachID:   s.CoachID.Hex(),
		ClientIDs: hexIDs(s.ClientIDs),
		Date:      s.Date.UTC().Format(service.DayLayout),
		Time:      s.Time,
		Type:      s.Type,
		Status:    s.Status,
		Source:    s.Source,
		CreatedAt: s.CreatedAt,
	}
}

func MapSessionsToResponse(sessions []domain.Session) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = MapSessionToResponse(&sessions[i])
	}
	return out
}

type FeedbackResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	CoachID   string    `json:"coachId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func MapFeedbackToResponse(fb *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        fb.ID.Hex(),
		SessionID: fb.SessionID.Hex(),
		CoachID:   fb.CoachID.Hex(),
		Rating:    fb.Rating,
		Comment:   fb.Comment,
		CreatedAt: fb.CreatedAt,
	}
}

func MapFeedbacksToResponse(feedbacks []domain.Feedback) []FeedbackResponse {
	out := make([]FeedbackResponse, len(feedbacks))
	for i := range feedbacks {
		out[i] = MapFeedbackToResponse(&feedbacks[i])
	}
	return out
}

// --- Helpers ---

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

func hexPtr(id *primitive.ObjectID) *string {
	if id == nil {
		return nil
	}
	h := id.Hex()
	return &h
}

// ClientContactResponse is one entry of the coach's client picker.
type ClientContactResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName"`
	FitnessGoal string `json:"fitnessGoal,omitempty"`
	// Source is how the picker found the client: sessions, assigned or any.
	Source service.ClientSource `json:"source"`
}

func MapClientContactsToResponse(contacts []domain.ClientContact, source service.ClientSource) []ClientContactResponse {
	out := make([]ClientContactResponse, len(contacts))
	for i := range contacts {
		c := &contacts[i]
		out[i] = ClientContactResponse{
			ID:          c.ID.Hex(),
			UserID:      c.UserID.Hex(),
			Name:        c.Name,
			Email:       c.Email,
			DisplayName: c.DisplayName(),
			FitnessGoal: c.FitnessGoal,
			Source:      source,
		}
	}
	return out
}

type SubscriptionResponse struct {
	ID        string                    `json:"id"`
	StartDate string                    `json:"startDate"`
	EndDate   string                    `json:"endDate"`
	Type      domain.SubscriptionType   `json:"type"`
	Price     float64                   `json:"price"`
	Status    domain.SubscriptionStatus `json:"status"`
}

func MapSubscriptionToResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        s.ID.Hex(),
		StartDate: s.StartDate.UTC().Format(service.DayLayout),
		EndDate:   s.EndDate.UTC().Format(service.DayLayout),
		Type:      s.Type,
		Price:     s.Price,
		Status:    s.Status,
	}
}

func MapSubscriptionsToResponse(subs []domain.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		out[i] = MapSubscriptionToResponse(&subs[i])
	}
	return out
}

type PaymentResponse struct {
	ID             string                `json:"id"`
	SubscriptionID string                `json:"subscriptionId"`
	Amount         float64               `json:"amount"`
	Date           time.Time             `json:"date"`
	Status         domain.PaymentStatus  `json:"status"`
	Subscription   *SubscriptionResponse `json:"subscription,omitempty"`
}

func MapPaymentsToResponse(payments []service.PaymentView) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		p := &payments[i]
		out[i] = PaymentResponse{
			ID:             p.ID.Hex(),
			SubscriptionID: p.SubscriptionID.Hex(),
			Amount:         p.Amount,
			Date:           p.Date,
			Status:         p.Status,
		}
		if p.Subscription != nil {
			sub := MapSubscriptionToResponse(p.Subscription)
			out[i].Subscription = &sub
		}
	}
	return out
}
