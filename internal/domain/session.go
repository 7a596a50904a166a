package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionType is the kind of training proposed or scheduled.
type SessionType string

const (
	SessionCardio SessionType = "Cardio"
	SessionMuscu  SessionType = "Muscu"
	SessionYoga   SessionType = "Yoga"
	SessionOther  SessionType = "Autre"
)

// DefaultSessionType is used when a request omits the type.
const DefaultSessionType = SessionCardio

func (t SessionType) Valid() bool {
	switch t {
	case SessionCardio, SessionMuscu, SessionYoga, SessionOther:
		return true
	}
	return false
}

// SessionStatus type for the lifecycle of a scheduled session
type SessionStatus string

const (
	SessionScheduled SessionStatus = "Scheduled"
	SessionDone      SessionStatus = "Done"
	SessionCancelled SessionStatus = "Cancelled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionDone, SessionCancelled:
		return true
	}
	return false
}

// SessionSource records how a session came to exist.
type SessionSource string

// SourceRequest marks sessions materialized by an approved SessionRequest.
// Orphan detection only considers sessions with this source.
const SourceRequest SessionSource = "request"

// Session is a real, scheduled training event.
type Session struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CoachID   primitive.ObjectID   `bson:"coachId" json:"coachId"`
	ClientIDs []primitive.ObjectID `bson:"clientIds" json:"clientIds"`
	Date      time.Time            `bson:"date" json:"date"` // UTC midnight of the calendar day
	Time      string               `bson:"time" json:"time"` // "HH:mm"
	Type      SessionType          `bson:"type" json:"type"`
	Status    SessionStatus        `bson:"status" json:"status"`
	Source    SessionSource        `bson:"source,omitempty" json:"source,omitempty"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasClient reports whether clientID participates in the session.
func (s *Session) HasClient(clientID primitive.ObjectID) bool {
	for _, id := range s.ClientIDs {
		if id == clientID {
			return true
		}
	}
	return false
}

// SameSlot reports whether the session occupies the given coach slot.
func (s *Session) SameSlot(coachID primitive.ObjectID, date time.Time, hhmm string) bool {
	return s.CoachID == coachID && s.Date.Equal(date) && s.Time == hhmm
}
