package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("connection refused")

// memRequests is an in-memory SessionRequestRepository. The status guard
// runs under the mutex, matching the single-document atomicity of the store.
type memRequests struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*domain.SessionRequest
	seq  int
	fail error
}

func newMemRequests() *memRequests {
	return &memRequests{docs: map[primitive.ObjectID]*domain.SessionRequest{}}
}

func cloneRequest(r *domain.SessionRequest) domain.SessionRequest {
	c := *r
	c.ClientIDs = append([]primitive.ObjectID(nil), r.ClientIDs...)
	return c
}

func (m *memRequests) Create(_ context.Context, req *domain.SessionRequest) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return primitive.NilObjectID, m.fail
	}
	m.seq++
	req.ID = primitive.NewObjectID()
	req.Status = domain.RequestPending
	req.DecidedBy, req.DecidedAt, req.SessionID = nil, nil, nil
	req.CoachSeenAt, req.StatusChangedAt = nil, nil
	// Distinct creation instants keep newest-first ordering deterministic.
	req.CreatedAt = time.Date(2024, 1, 1, 0, 0, m.seq, 0, time.UTC)
	req.UpdatedAt = req.CreatedAt
	stored := cloneRequest(req)
	m.docs[req.ID] = &stored
	return req.ID, nil
}

func (m *memRequests) GetByID(_ context.Context, id primitive.ObjectID) (*domain.SessionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneRequest(doc)
	return &c, nil
}

func (m *memRequests) List(_ context.Context, f repository.SessionRequestFilter) ([]domain.SessionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := []domain.SessionRequest{}
	for _, doc := range m.docs {
		if f.CoachID != nil && doc.CoachID != *f.CoachID {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if f.From != nil && doc.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && doc.Date.After(*f.To) {
			continue
		}
		out = append(out, cloneRequest(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRequests) DeletePending(_ context.Context, id, coachID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.CoachID != coachID {
		return repository.ErrNotFound
	}
	if doc.Status != domain.RequestPending {
		return repository.ErrStatusConflict
	}
	delete(m.docs, id)
	return nil
}

func (m *memRequests) Decide(_ context.Context, id primitive.ObjectID, d domain.Decision) (*domain.SessionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !doc.Apply(d) {
		return nil, repository.ErrStatusConflict
	}
	c := cloneRequest(doc)
	return &c, nil
}

func (m *memRequests) ListDecided(_ context.Context, coachID primitive.ObjectID, unreadOnly bool, limit int64) ([]domain.SessionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.SessionRequest{}
	for _, doc := range m.docs {
		if doc.CoachID != coachID || !doc.Status.Decided() {
			continue
		}
		if unreadOnly && !doc.IsUnread() {
			continue
		}
		out = append(out, cloneRequest(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StatusChangedAt.After(*out[j].StatusChangedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRequests) CountUnread(_ context.Context, coachID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, doc := range m.docs {
		if doc.CoachID == coachID && doc.IsUnread() {
			n++
		}
	}
	return n, nil
}

func (m *memRequests) MarkSeen(_ context.Context, coachID primitive.ObjectID, seenAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, doc := range m.docs {
		if doc.CoachID == coachID && doc.IsUnread() {
			at := seenAt
			doc.CoachSeenAt = &at
			n++
		}
	}
	return n, nil
}

func (m *memRequests) FindBySessionIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.SessionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []domain.SessionRequest{}
	for _, doc := range m.docs {
		if doc.SessionID != nil && want[*doc.SessionID] {
			out = append(out, cloneRequest(doc))
		}
	}
	return out, nil
}

func (m *memRequests) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// memSessions is an in-memory SessionRepository.
type memSessions struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*domain.Session
	fail error
}

func newMemSessions() *memSessions {
	return &memSessions{docs: map[primitive.ObjectID]*domain.Session{}}
}

func (m *memSessions) Create(_ context.Context, s *domain.Session) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return primitive.NilObjectID, m.fail
	}
	s.ID = primitive.NewObjectID()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.UpdatedAt = s.CreatedAt
	if s.Status == "" {
		s.Status = domain.SessionScheduled
	}
	stored := *s
	m.docs[s.ID] = &stored
	return s.ID, nil
}

func (m *memSessions) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *doc
	return &c, nil
}

func (m *memSessions) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memSessions) List(_ context.Context, f repository.SessionFilter) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Session{}
	for _, doc := range m.docs {
		if f.CoachID != nil && doc.CoachID != *f.CoachID {
			continue
		}
		if f.ClientID != nil && !doc.HasClient(*f.ClientID) {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if f.From != nil && doc.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && doc.Date.After(*f.To) {
			continue
		}
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memSessions) FindInSlots(_ context.Context, coachIDs []primitive.ObjectID, dates []time.Time) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := []domain.Session{}
	for _, doc := range m.docs {
		coachOK, dateOK := false, false
		for _, c := range coachIDs {
			coachOK = coachOK || doc.CoachID == c
		}
		for _, d := range dates {
			dateOK = dateOK || doc.Date.Equal(d)
		}
		if coachOK && dateOK {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m *memSessions) DistinctClientIDs(_ context.Context, coachID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	seen := map[primitive.ObjectID]bool{}
	out := []primitive.ObjectID{}
	for _, doc := range m.docs {
		if doc.CoachID != coachID {
			continue
		}
		for _, id := range doc.ClientIDs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (m *memSessions) CreatedSince(_ context.Context, source domain.SessionSource, since time.Time) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Session{}
	for _, doc := range m.docs {
		if doc.Source == source && !doc.CreatedAt.Before(since) {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// memProfiles holds client profiles keyed by client id.
type memProfiles struct {
	mu       sync.Mutex
	clients  map[primitive.ObjectID]domain.Client
	coaches  map[primitive.ObjectID]domain.Coach
	contacts map[primitive.ObjectID][2]string // client id -> name, email
	fail     error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{
		clients:  map[primitive.ObjectID]domain.Client{},
		coaches:  map[primitive.ObjectID]domain.Coach{},
		contacts: map[primitive.ObjectID][2]string{},
	}
}

// addNamedClient is addClient with a user name and email for searches.
func (m *memProfiles) addNamedClient(name, email string) domain.Client {
	c := m.addClient()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[c.ID] = [2]string{name, email}
	return c
}

// addCoach registers a coach profile for userID with assigned clients.
func (m *memProfiles) addCoach(userID primitive.ObjectID, assigned ...primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Coach{ID: primitive.NewObjectID(), UserID: userID, AssignedClients: assigned}
	m.coaches[c.ID] = c
}

func (m *memProfiles) GetCoachByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Coach, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, c := range m.coaches {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memProfiles) ListClientContacts(_ context.Context, f repository.ClientContactFilter) ([]domain.ClientContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var want map[primitive.ObjectID]bool
	if f.IDs != nil {
		want = map[primitive.ObjectID]bool{}
		for _, id := range f.IDs {
			want[id] = true
		}
	}
	q := strings.ToLower(f.Query)
	out := []domain.ClientContact{}
	for id, c := range m.clients {
		if want != nil && !want[id] {
			continue
		}
		info := m.contacts[id]
		if q != "" && !strings.Contains(strings.ToLower(info[0]), q) && !strings.Contains(strings.ToLower(info[1]), q) {
			continue
		}
		out = append(out, domain.ClientContact{Client: c, Name: info[0], Email: info[1]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// addClient registers a client profile for a fresh user and returns it.
func (m *memProfiles) addClient() domain.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Client{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
	m.clients[c.ID] = c
	return c
}

func (m *memProfiles) EnsureClient(_ context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.UserID == userID {
			return &c, nil
		}
	}
	c := domain.Client{ID: primitive.NewObjectID(), UserID: userID}
	m.clients[c.ID] = c
	return &c, nil
}

func (m *memProfiles) EnsureCoach(_ context.Context, userID primitive.ObjectID) (*domain.Coach, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coaches {
		if c.UserID == userID {
			return &c, nil
		}
	}
	c := domain.Coach{ID: primitive.NewObjectID(), UserID: userID}
	m.coaches[c.ID] = c
	return &c, nil
}

func (m *memProfiles) GetClientByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memProfiles) ExistingClientIDs(_ context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []primitive.ObjectID
	for _, id := range ids {
		if _, ok := m.clients[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// memFeedbacks enforces one feedback per (client, session).
type memFeedbacks struct {
	mu   sync.Mutex
	docs []domain.Feedback
}

func (m *memFeedbacks) Create(_ context.Context, fb *domain.Feedback) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ClientID == fb.ClientID && d.SessionID == fb.SessionID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	fb.ID = primitive.NewObjectID()
	fb.CreatedAt = time.Now().UTC()
	m.docs = append(m.docs, *fb)
	return fb.ID, nil
}

func (m *memFeedbacks) ListByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Feedback{}
	for _, d := range m.docs {
		if d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out, nil
}

// memBilling is an in-memory SubscriptionRepository and PaymentRepository.
type memBilling struct {
	subs     []domain.Subscription
	payments []domain.Payment
	fail     error
}

func (m *memBilling) ListByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Subscription, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	out := []domain.Subscription{}
	for _, s := range m.subs {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *memBilling) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Subscription, error) {
	out := []domain.Subscription{}
	for _, s := range m.subs {
		for _, id := range ids {
			if s.ID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// memPayments adapts memBilling to PaymentRepository.
type memPayments struct{ *memBilling }

func (m memPayments) ListByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Payment, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	out := []domain.Payment{}
	for _, p := range m.payments {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

type directTransactor struct{}

func (directTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// tickingClock returns strictly increasing instants one second apart.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}
