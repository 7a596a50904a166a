package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus is the state of a SessionRequest.
// Pending is the only non-terminal state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestRejected RequestStatus = "Rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// Decided reports whether s is a terminal status.
func (s RequestStatus) Decided() bool {
	return s == RequestApproved || s == RequestRejected
}

// SessionRequest is a coach's proposal for a session, awaiting an admin
// decision. Decision fields are written exactly once, on the transition out
// of Pending.
type SessionRequest struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CoachID   primitive.ObjectID   `bson:"coachId" json:"coachId"`
	ClientIDs []primitive.ObjectID `bson:"clientIds" json:"clientIds"`
	Date      time.Time            `bson:"date" json:"date"`
	Time      string               `bson:"time" json:"time"`
	Type      SessionType          `bson:"type" json:"type"`
	Note      string               `bson:"note,omitempty" json:"note,omitempty"`

	Status       RequestStatus       `bson:"status" json:"status"`
	DecidedBy    *primitive.ObjectID `bson:"decidedBy,omitempty" json:"decidedBy,omitempty"`
	DecidedAt    *time.Time          `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
	DecisionNote string              `bson:"decisionNote,omitempty" json:"decisionNote,omitempty"`
	SessionID    *primitive.ObjectID `bson:"sessionId,omitempty" json:"sessionId,omitempty"`

	// Notification watermark pair. Both are stored as explicit nulls until
	// set so the unread query can match on them.
	CoachSeenAt     *time.Time `bson:"coachSeenAt" json:"coachSeenAt"`
	StatusChangedAt *time.Time `bson:"statusChangedAt" json:"statusChangedAt"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsUnread reports whether the owning coach has not yet acknowledged the
// decision on this request.
func (r *SessionRequest) IsUnread() bool {
	if !r.Status.Decided() || r.StatusChangedAt == nil {
		return false
	}
	return r.CoachSeenAt == nil || r.CoachSeenAt.Before(*r.StatusChangedAt)
}

// Consistent checks the decision invariants: decidedBy, decidedAt and
// statusChangedAt are present iff the request is decided, and sessionId is
// present iff it was approved.
func (r *SessionRequest) Consistent() bool {
	decided := r.Status.Decided()
	stamped := r.DecidedBy != nil && r.DecidedAt != nil && r.StatusChangedAt != nil
	unstamped := r.DecidedBy == nil && r.DecidedAt == nil && r.StatusChangedAt == nil
	if decided && !stamped || !decided && !unstamped {
		return false
	}
	return (r.Status == RequestApproved) == (r.SessionID != nil)
}

// Decision is the terminal transition applied to a pending request.
type Decision struct {
	Status    RequestStatus
	AdminID   primitive.ObjectID
	Note      string
	At        time.Time
	SessionID *primitive.ObjectID
}

// Approval builds an approving decision linked to the materialized session.
func Approval(adminID, sessionID primitive.ObjectID, note string, at time.Time) Decision {
	return Decision{Status: RequestApproved, AdminID: adminID, Note: note, At: at, SessionID: &sessionID}
}

// Rejection builds a rejecting decision.
func Rejection(adminID primitive.ObjectID, note string, at time.Time) Decision {
	return Decision{Status: RequestRejected, AdminID: adminID, Note: note, At: at}
}

// Apply stamps d onto r. It returns false and leaves r untouched when r is
// no longer pending.
func (r *SessionRequest) Apply(d Decision) bool {
	if r.Status != RequestPending {
		return false
	}
	at := d.At
	admin := d.AdminID
	r.Status = d.Status
	r.DecidedBy = &admin
	r.DecidedAt = &at
	r.StatusChangedAt = &at
	r.DecisionNote = d.Note
	if d.SessionID != nil {
		sid := *d.SessionID
		r.SessionID = &sid
	}
	r.UpdatedAt = at
	return true
}

// Fields returns the stored fields a decision writes, keyed by their
// document names. The values come from Apply on a pending request, so the
// store update and the in-memory transition stamp the same data.
func (d Decision) Fields() map[string]interface{} {
	r := SessionRequest{Status: RequestPending}
	r.Apply(d)
	fields := map[string]interface{}{
		"status":          r.Status,
		"decidedBy":       *r.DecidedBy,
		"decidedAt":       *r.DecidedAt,
		"decisionNote":    r.DecisionNote,
		"statusChangedAt": *r.StatusChangedAt,
		"updatedAt":       r.UpdatedAt,
	}
	if r.SessionID != nil {
		fields["sessionId"] = *r.SessionID
	}
	return fields
}

// ToSession materializes the scheduled session described by the request.
func (r *SessionRequest) ToSession() *Session {
	clients := make([]primitive.ObjectID, len(r.ClientIDs))
	copy(clients, r.ClientIDs)
	return &Session{
		CoachID:   r.CoachID,
		ClientIDs: clients,
		Date:      r.Date,
		Time:      r.Time,
		Type:      r.Type,
		Status:    SessionScheduled,
		Source:    SourceRequest,
	}
}
