package repository

import (
	"context"
	"time"

	"gym360/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = RepositoryError("not found")
	// ErrStatusConflict is returned by status-guarded writes when the
	// document exists but is no longer in the required state.
	ErrStatusConflict = RepositoryError("status conflict")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name string) error
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	SetImageKey(ctx context.Context, id primitive.ObjectID, key string) error
}

// ProfileRepository manages the Client and Coach documents attached to users.
type ProfileRepository interface {
	EnsureClient(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error)
	EnsureCoach(ctx context.Context, userID primitive.ObjectID) (*domain.Coach, error)
	GetClientByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error)
	GetCoachByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Coach, error)
	// ListClientContacts returns clients joined with their user's name and
	// email, filtered and capped by f.
	ListClientContacts(ctx context.Context, f ClientContactFilter) ([]domain.ClientContact, error)
	// ExistingClientIDs returns the subset of ids that reference a Client.
	ExistingClientIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)
}

// ClientContactFilter narrows client contact listings.
type ClientContactFilter struct {
	// IDs restricts the result to these clients. Nil means any client.
	IDs []primitive.ObjectID
	// Query matches name or email, case-insensitively. Empty matches all.
	Query string
	Limit int64
}

// SessionFilter narrows session listings. Zero values mean "any".
type SessionFilter struct {
	CoachID  *primitive.ObjectID
	ClientID *primitive.ObjectID
	Status   domain.SessionStatus
	From     *time.Time
	To       *time.Time
}

// SessionRepository defines the interface for interacting with session data.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter SessionFilter) ([]domain.Session, error)
	// FindInSlots returns sessions of the given coaches on the given days.
	// Callers match the exact time themselves.
	FindInSlots(ctx context.Context, coachIDs []primitive.ObjectID, dates []time.Time) ([]domain.Session, error)
	// DistinctClientIDs returns every client that took part in a session
	// of the coach.
	DistinctClientIDs(ctx context.Context, coachID primitive.ObjectID) ([]primitive.ObjectID, error)
	// CreatedSince returns sessions with the given source created at or after since.
	CreatedSince(ctx context.Context, source domain.SessionSource, since time.Time) ([]domain.Session, error)
}

// SessionRequestFilter narrows request listings. Zero values mean "any".
type SessionRequestFilter struct {
	CoachID *primitive.ObjectID
	Status  domain.RequestStatus
	From    *time.Time
	To      *time.Time
}

// SessionRequestRepository defines the store operations of the approval
// workflow. Every state change is guarded on the Pending status inside the
// store, so concurrent callers cannot both transition the same request.
type SessionRequestRepository interface {
	Create(ctx context.Context, req *domain.SessionRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SessionRequest, error)
	// List returns matching requests, newest created first.
	List(ctx context.Context, filter SessionRequestFilter) ([]domain.SessionRequest, error)
	// DeletePending removes the coach's request if it is still pending.
	// Returns ErrNotFound when missing or owned by someone else and
	// ErrStatusConflict when already decided.
	DeletePending(ctx context.Context, id, coachID primitive.ObjectID) error
	// Decide applies d if the request is still pending and returns the
	// updated document. Returns ErrNotFound or ErrStatusConflict.
	Decide(ctx context.Context, id primitive.ObjectID, d domain.Decision) (*domain.SessionRequest, error)
	// ListDecided returns the coach's decided requests, most recently
	// decided first, capped at limit.
	ListDecided(ctx context.Context, coachID primitive.ObjectID, unreadOnly bool, limit int64) ([]domain.SessionRequest, error)
	CountUnread(ctx context.Context, coachID primitive.ObjectID) (int64, error)
	// MarkSeen sets coachSeenAt on every unread request of the coach and
	// returns the number of documents changed.
	MarkSeen(ctx context.Context, coachID primitive.ObjectID, seenAt time.Time) (int64, error)
	FindBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.SessionRequest, error)
}

// FeedbackRepository defines the interface for interacting with feedback data.
type FeedbackRepository interface {
	// Create returns ErrDuplicate when the client already rated the session.
	Create(ctx context.Context, fb *domain.Feedback) (primitive.ObjectID, error)
	ListByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Feedback, error)
}

// SubscriptionRepository reads client subscriptions.
type SubscriptionRepository interface {
	// ListByClientID returns the client's subscriptions, latest start first.
	ListByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Subscription, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Subscription, error)
}

// PaymentRepository reads client payments.
type PaymentRepository interface {
	// ListByClientID returns the client's payments, most recent first.
	ListByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Payment, error)
}

// Transactor runs fn as one unit of work when the store supports it, and
// as plain sequential calls otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
