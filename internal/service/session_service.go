package service

import (
	"context"
	"errors"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultOrphanWindow is how far back orphan detection looks by default.
const DefaultOrphanWindow = 24 * time.Hour

// SessionFilter narrows session listings.
type SessionFilter struct {
	Status string
	From   string
	To     string
}

// SessionService serves the read side of scheduled sessions.
type SessionService interface {
	ListCoachSessions(ctx context.Context, coachID primitive.ObjectID, f SessionFilter) ([]domain.Session, error)
	ListClientSessions(ctx context.Context, userID primitive.ObjectID, f SessionFilter) ([]domain.Session, error)
	// FindOrphanSessions returns request-sourced sessions created since the
	// given instant that no request links to. Zero since means the last
	// DefaultOrphanWindow.
	FindOrphanSessions(ctx context.Context, since time.Time) ([]domain.Session, error)
}

type sessionService struct {
	sessions repository.SessionRepository
	requests repository.SessionRequestRepository
	profiles repository.ProfileRepository
	logger   *log.Logger
}

func NewSessionService(
	sessions repository.SessionRepository,
	requests repository.SessionRequestRepository,
	profiles repository.ProfileRepository,
	logger *log.Logger,
) SessionService {
	return &sessionService{
		sessions: sessions,
		requests: requests,
		profiles: profiles,
		logger:   logger.WithPrefix("sessions"),
	}
}

func (s *sessionService) ListCoachSessions(ctx context.Context, coachID primitive.ObjectID, f SessionFilter) ([]domain.Session, error) {
	filter, err := buildSessionFilter(f)
	if err != nil {
		return nil, err
	}
	filter.CoachID = &coachID

	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list coach sessions", err)
	}
	return sessions, nil
}

// ListClientSessions resolves the caller's client profile first; sessions
// reference participants by client id.
func (s *sessionService) ListClientSessions(ctx context.Context, userID primitive.ObjectID, f SessionFilter) ([]domain.Session, error) {
	filter, err := buildSessionFilter(f)
	if err != nil {
		return nil, err
	}
	client, err := s.profiles.GetClientByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("client profile")
		}
		return nil, storeErr("load client profile", err)
	}
	filter.ClientID = &client.ID

	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list client sessions", err)
	}
	return sessions, nil
}

func (s *sessionService) FindOrphanSessions(ctx context.Context, since time.Time) ([]domain.Session, error) {
	if since.IsZero() {
		since = time.Now().UTC().Add(-DefaultOrphanWindow)
	}

	candidates, err := s.sessions.CreatedSince(ctx, domain.SourceRequest, since)
	if err != nil {
		return nil, storeErr("list request sessions", err)
	}
	if len(candidates) == 0 {
		return []domain.Session{}, nil
	}

	ids := make([]primitive.ObjectID, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID
	}
	linked, err := s.requests.FindBySessionIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("find linking requests", err)
	}
	referenced := make(map[primitive.ObjectID]bool, len(linked))
	for _, r := range linked {
		if r.SessionID != nil {
			referenced[*r.SessionID] = true
		}
	}

	orphans := []domain.Session{}
	for _, sess := range candidates {
		if !referenced[sess.ID] {
			orphans = append(orphans, sess)
		}
	}
	if len(orphans) > 0 {
		s.logger.Warn("orphan sessions found", "count", len(orphans), "since", since)
	}
	return orphans, nil
}

func buildSessionFilter(f SessionFilter) (repository.SessionFilter, error) {
	var filter repository.SessionFilter
	if f.Status != "" {
		status := domain.SessionStatus(f.Status)
		if !status.Valid() {
			return filter, invalid("status", "must be one of Scheduled, Done, Cancelled")
		}
		filter.Status = status
	}
	from, err := parseOptionalDay("from", f.From)
	if err != nil {
		return filter, err
	}
	to, err := parseOptionalDay("to", f.To)
	if err != nil {
		return filter, err
	}
	filter.From, filter.To = from, to
	return filter, nil
}
