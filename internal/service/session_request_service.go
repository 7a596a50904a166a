package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification listing bounds.
const (
	DefaultNotificationLimit = 10
	MaxNotificationLimit     = 50
)

// CreateRequestInput is the raw coach input of a new session request.
type CreateRequestInput struct {
	ClientIDs []string
	Date      string
	Time      string
	Type      string
	Note      string
}

// RequestFilter narrows request listings. CoachID is honored for admin
// listings only.
type RequestFilter struct {
	Status  string
	CoachID string
	From    string
	To      string
}

// RequestView is a request with the advisory slot conflict flag. The flag
// is informational and never blocks creation or approval.
type RequestView struct {
	domain.SessionRequest
	PossibleConflict bool
}

// Notifications is a page of decided requests plus the total unread count,
// which is independent of the page size.
type Notifications struct {
	Count int64
	Items []domain.SessionRequest
}

// MarkReadResult reports the watermark written and how many rows it moved.
type MarkReadResult struct {
	SeenAt  time.Time
	Updated int64
}

// SessionRequestService runs the coach proposal / admin decision workflow
// and the coach-side notification read tracking.
type SessionRequestService interface {
	CreateRequest(ctx context.Context, coachID primitive.ObjectID, in CreateRequestInput) (*RequestView, error)
	ListMyRequests(ctx context.Context, coachID primitive.ObjectID, f RequestFilter) ([]domain.SessionRequest, error)
	CancelMyRequest(ctx context.Context, coachID primitive.ObjectID, requestID string) error
	AdminListRequests(ctx context.Context, f RequestFilter) ([]RequestView, error)
	AdminApprove(ctx context.Context, adminID primitive.ObjectID, requestID, note string) (*domain.SessionRequest, *domain.Session, error)
	AdminReject(ctx context.Context, adminID primitive.ObjectID, requestID, note string) (*domain.SessionRequest, error)
	ListNotifications(ctx context.Context, coachID primitive.ObjectID, limit int, unreadOnly bool) (*Notifications, error)
	MarkNotificationsRead(ctx context.Context, coachID primitive.ObjectID) (*MarkReadResult, error)
}

type sessionRequestService struct {
	requests repository.SessionRequestRepository
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	tx       repository.Transactor
	logger   *log.Logger
	now      func() time.Time
}

// NewSessionRequestService creates a SessionRequestService.
func NewSessionRequestService(
	requests repository.SessionRequestRepository,
	sessions repository.SessionRepository,
	profiles repository.ProfileRepository,
	tx repository.Transactor,
	logger *log.Logger,
) SessionRequestService {
	return &sessionRequestService{
		requests: requests,
		sessions: sessions,
		profiles: profiles,
		tx:       tx,
		logger:   logger.WithPrefix("requests"),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *sessionRequestService) CreateRequest(ctx context.Context, coachID primitive.ObjectID, in CreateRequestInput) (*RequestView, error) {
	date, err := parseDay("date", in.Date)
	if err != nil {
		return nil, err
	}
	clock, err := parseClock("time", in.Time)
	if err != nil {
		return nil, err
	}
	sessionType := domain.DefaultSessionType
	if strings.TrimSpace(in.Type) != "" {
		sessionType = domain.SessionType(strings.TrimSpace(in.Type))
		if !sessionType.Valid() {
			return nil, invalid("type", "must be one of Cardio, Muscu, Yoga, Autre")
		}
	}
	clientIDs, err := s.resolveClients(ctx, in.ClientIDs)
	if err != nil {
		return nil, err
	}

	req := &domain.SessionRequest{
		CoachID:   coachID,
		ClientIDs: clientIDs,
		Date:      date,
		Time:      clock,
		Type:      sessionType,
		Note:      strings.TrimSpace(in.Note),
	}

	conflict, err := s.slotTaken(ctx, coachID, date, clock)
	if err != nil {
		return nil, err
	}

	id, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, storeErr("create session request", err)
	}
	req.ID = id

	s.logger.Info("request created", "requestId", id.Hex(), "coachId", coachID.Hex(), "possibleConflict", conflict)
	return &RequestView{SessionRequest: *req, PossibleConflict: conflict}, nil
}

// resolveClients de-duplicates ids preserving order and checks each one
// against the client profiles. Every malformed or unknown id is reported.
func (s *sessionRequestService) resolveClients(ctx context.Context, raw []string) ([]primitive.ObjectID, error) {
	if len(raw) == 0 {
		return nil, invalid("clientIds", "at least one client is required")
	}

	var (
		ids  []primitive.ObjectID
		bad  []string
		seen = map[string]bool{}
	)
	for _, r := range raw {
		key := strings.TrimSpace(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		id, err := primitive.ObjectIDFromHex(key)
		if err != nil {
			bad = append(bad, r)
			continue
		}
		ids = append(ids, id)
	}

	existing, err := s.profiles.ExistingClientIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("check client ids", err)
	}
	found := make(map[primitive.ObjectID]bool, len(existing))
	for _, id := range existing {
		found[id] = true
	}
	for _, id := range ids {
		if !found[id] {
			bad = append(bad, id.Hex())
		}
	}

	if len(bad) > 0 {
		return nil, &ValidationError{Field: "clientIds", Message: "unknown or malformed client ids", InvalidIDs: bad}
	}
	return ids, nil
}

func (s *sessionRequestService) slotTaken(ctx context.Context, coachID primitive.ObjectID, date time.Time, clock string) (bool, error) {
	sessions, err := s.sessions.FindInSlots(ctx, []primitive.ObjectID{coachID}, []time.Time{date})
	if err != nil {
		return false, storeErr("conflict lookup", err)
	}
	for i := range sessions {
		if sessions[i].SameSlot(coachID, date, clock) {
			return true, nil
		}
	}
	return false, nil
}

func (s *sessionRequestService) ListMyRequests(ctx context.Context, coachID primitive.ObjectID, f RequestFilter) ([]domain.SessionRequest, error) {
	filter, err := buildRequestFilter(f, false)
	if err != nil {
		return nil, err
	}
	filter.CoachID = &coachID

	reqs, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list coach requests", err)
	}
	return reqs, nil
}

func (s *sessionRequestService) CancelMyRequest(ctx context.Context, coachID primitive.ObjectID, requestID string) error {
	id, err := parseObjectID("id", requestID)
	if err != nil {
		return err
	}

	err = s.requests.DeletePending(ctx, id, coachID)
	switch {
	case err == nil:
		s.logger.Info("request cancelled", "requestId", id.Hex(), "coachId", coachID.Hex())
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound("session request")
	case errors.Is(err, repository.ErrStatusConflict):
		return invalidState("only pending requests can be cancelled")
	default:
		return storeErr("cancel session request", err)
	}
}

func (s *sessionRequestService) AdminListRequests(ctx context.Context, f RequestFilter) ([]RequestView, error) {
	filter, err := buildRequestFilter(f, true)
	if err != nil {
		return nil, err
	}

	reqs, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list session requests", err)
	}

	conflicts, err := s.pendingConflicts(ctx, reqs)
	if err != nil {
		return nil, err
	}
	views := make([]RequestView, len(reqs))
	for i := range reqs {
		views[i] = RequestView{SessionRequest: reqs[i], PossibleConflict: conflicts[reqs[i].ID]}
	}
	return views, nil
}

// pendingConflicts flags pending requests whose slot already holds a
// session, using one lookup for the whole page.
func (s *sessionRequestService) pendingConflicts(ctx context.Context, reqs []domain.SessionRequest) (map[primitive.ObjectID]bool, error) {
	var (
		coaches []primitive.ObjectID
		dates   []time.Time
		seenC   = map[primitive.ObjectID]bool{}
		seenD   = map[time.Time]bool{}
	)
	for i := range reqs {
		r := &reqs[i]
		if r.Status != domain.RequestPending {
			continue
		}
		if !seenC[r.CoachID] {
			seenC[r.CoachID] = true
			coaches = append(coaches, r.CoachID)
		}
		if !seenD[r.Date] {
			seenD[r.Date] = true
			dates = append(dates, r.Date)
		}
	}
	out := map[primitive.ObjectID]bool{}
	if len(coaches) == 0 {
		return out, nil
	}

	sessions, err := s.sessions.FindInSlots(ctx, coaches, dates)
	if err != nil {
		return nil, storeErr("conflict lookup", err)
	}
	for i := range reqs {
		r := &reqs[i]
		if r.Status != domain.RequestPending {
			continue
		}
		for j := range sessions {
			if sessions[j].SameSlot(r.CoachID, r.Date, r.Time) {
				out[r.ID] = true
				break
			}
		}
	}
	return out, nil
}

// AdminApprove materializes the session and then flips the request with a
// status-guarded write. Both steps run inside the Transactor; without
// transaction support a crash between them leaves an orphan session, which
// SessionService.FindOrphanSessions reports.
func (s *sessionRequestService) AdminApprove(ctx context.Context, adminID primitive.ObjectID, requestID, note string) (*domain.SessionRequest, *domain.Session, error) {
	id, err := parseObjectID("id", requestID)
	if err != nil {
		return nil, nil, err
	}
	req, err := s.pendingRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var (
		approved *domain.SessionRequest
		session  *domain.Session
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session = req.ToSession()
		sessionID, err := s.sessions.Create(ctx, session)
		if err != nil {
			return storeErr("create session", err)
		}
		session.ID = sessionID

		approved, err = s.requests.Decide(ctx, id, domain.Approval(adminID, sessionID, strings.TrimSpace(note), s.now()))
		if err == nil {
			return nil
		}
		decideErr := s.decisionError(err)
		if errors.Is(decideErr, ErrStore) {
			return decideErr
		}
		// Lost the race to another decision: drop the session we just made.
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			s.logger.Error("orphan session left after lost approval race",
				"sessionId", sessionID.Hex(), "requestId", id.Hex(), "err", delErr)
		} else {
			s.logger.Warn("approval lost race, session removed", "sessionId", sessionID.Hex(), "requestId", id.Hex())
		}
		return decideErr
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("request approved", "requestId", id.Hex(), "sessionId", session.ID.Hex(), "adminId", adminID.Hex())
	return approved, session, nil
}

func (s *sessionRequestService) AdminReject(ctx context.Context, adminID primitive.ObjectID, requestID, note string) (*domain.SessionRequest, error) {
	id, err := parseObjectID("id", requestID)
	if err != nil {
		return nil, err
	}

	rejected, err := s.requests.Decide(ctx, id, domain.Rejection(adminID, strings.TrimSpace(note), s.now()))
	if err != nil {
		return nil, s.decisionError(err)
	}
	s.logger.Info("request rejected", "requestId", id.Hex(), "adminId", adminID.Hex())
	return rejected, nil
}

// pendingRequest loads a request and fails early when it is already
// decided, so that most lost races never create a session at all.
func (s *sessionRequestService) pendingRequest(ctx context.Context, id primitive.ObjectID) (*domain.SessionRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("session request")
		}
		return nil, storeErr("load session request", err)
	}
	if req.Status != domain.RequestPending {
		return nil, invalidState("request already decided")
	}
	return req, nil
}

func (s *sessionRequestService) decisionError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound("session request")
	case errors.Is(err, repository.ErrStatusConflict):
		return invalidState("request already decided")
	default:
		return storeErr("decide session request", err)
	}
}

func (s *sessionRequestService) ListNotifications(ctx context.Context, coachID primitive.ObjectID, limit int, unreadOnly bool) (*Notifications, error) {
	switch {
	case limit <= 0:
		limit = DefaultNotificationLimit
	case limit > MaxNotificationLimit:
		limit = MaxNotificationLimit
	}

	items, err := s.requests.ListDecided(ctx, coachID, unreadOnly, int64(limit))
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	count, err := s.requests.CountUnread(ctx, coachID)
	if err != nil {
		return nil, storeErr("count unread", err)
	}
	return &Notifications{Count: count, Items: items}, nil
}

func (s *sessionRequestService) MarkNotificationsRead(ctx context.Context, coachID primitive.ObjectID) (*MarkReadResult, error) {
	seenAt := s.now()
	n, err := s.requests.MarkSeen(ctx, coachID, seenAt)
	if err != nil {
		return nil, storeErr("mark notifications read", err)
	}
	s.logger.Debug("notifications read", "coachId", coachID.Hex(), "updated", n)
	return &MarkReadResult{SeenAt: seenAt, Updated: n}, nil
}

func buildRequestFilter(f RequestFilter, admin bool) (repository.SessionRequestFilter, error) {
	var filter repository.SessionRequestFilter
	if f.Status != "" {
		status := domain.RequestStatus(f.Status)
		if !status.Valid() {
			return filter, invalid("status", "must be one of Pending, Approved, Rejected")
		}
		filter.Status = status
	}
	if admin && f.CoachID != "" {
		coachID, err := parseObjectID("coachId", f.CoachID)
		if err != nil {
			return filter, err
		}
		filter.CoachID = &coachID
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
