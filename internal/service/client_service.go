package service

import (
	"context"
	"errors"
	"strings"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client picker bounds.
const (
	DefaultClientPickerLimit = 25
	MaxClientPickerLimit     = 100
)

// ClientSource tells which fallback produced a client picker page.
type ClientSource string

const (
	ClientsFromSessions ClientSource = "sessions"
	ClientsAssigned     ClientSource = "assigned"
	ClientsAny          ClientSource = "any"
)

// ClientPage is the coach's client picker result.
type ClientPage struct {
	Source  ClientSource
	Clients []domain.ClientContact
}

// CoachClientService feeds the client picker used when a coach builds a
// session request.
type CoachClientService interface {
	// ListCoachClients returns the clients the coach has trained, falling
	// back to the coach's assigned clients and then to any client so the
	// picker is never empty for a new coach.
	ListCoachClients(ctx context.Context, coachID primitive.ObjectID, query string, limit int) (*ClientPage, error)
}

type coachClientService struct {
	profiles repository.ProfileRepository
	sessions repository.SessionRepository
	logger   *log.Logger
}

func NewCoachClientService(profiles repository.ProfileRepository, sessions repository.SessionRepository, logger *log.Logger) CoachClientService {
	return &coachClientService{
		profiles: profiles,
		sessions: sessions,
		logger:   logger.WithPrefix("clients"),
	}
}

func (s *coachClientService) ListCoachClients(ctx context.Context, coachID primitive.ObjectID, query string, limit int) (*ClientPage, error) {
	switch {
	case limit <= 0:
		limit = DefaultClientPickerLimit
	case limit > MaxClientPickerLimit:
		limit = MaxClientPickerLimit
	}

	source, ids, err := s.candidates(ctx, coachID)
	if err != nil {
		return nil, err
	}

	contacts, err := s.profiles.ListClientContacts(ctx, repository.ClientContactFilter{
		IDs:   ids,
		Query: strings.TrimSpace(query),
		Limit: int64(limit),
	})
	if err != nil {
		return nil, storeErr("list client contacts", err)
	}
	s.logger.Debug("client picker", "coachId", coachID.Hex(), "source", source, "count", len(contacts))
	return &ClientPage{Source: source, Clients: contacts}, nil
}

// candidates picks the first non-empty client set. A nil id list means
// any client.
func (s *coachClientService) candidates(ctx context.Context, coachID primitive.ObjectID) (ClientSource, []primitive.ObjectID, error) {
	trained, err := s.sessions.DistinctClientIDs(ctx, coachID)
	if err != nil {
		return "", nil, storeErr("list session clients", err)
	}
	if len(trained) > 0 {
		return ClientsFromSessions, trained, nil
	}

	coach, err := s.profiles.GetCoachByUserID(ctx, coachID)
	switch {
	case err == nil && len(coach.AssignedClients) > 0:
		return ClientsAssigned, coach.AssignedClients, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return "", nil, storeErr("load coach profile", err)
	}
	return ClientsAny, nil, nil
}
