package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func pendingRequest() *SessionRequest {
	return &SessionRequest{
		ID:        primitive.NewObjectID(),
		CoachID:   primitive.NewObjectID(),
		ClientIDs: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
		Date:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Time:      "10:00",
		Type:      SessionYoga,
		Status:    RequestPending,
	}
}

func TestPendingRequestIsConsistentAndNotUnread(t *testing.T) {
	r := pendingRequest()
	assert.True(t, r.Consistent())
	assert.False(t, r.IsUnread())
}

func TestApplyApprovalStampsSingleInstant(t *testing.T) {
	r := pendingRequest()
	admin := primitive.NewObjectID()
	sid := primitive.NewObjectID()
	at := time.Date(2024, 4, 20, 9, 30, 0, 0, time.UTC)

	assert.True(t, r.Apply(Approval(admin, sid, "ok", at)))

	assert.Equal(t, RequestApproved, r.Status)
	assert.Equal(t, admin, *r.DecidedBy)
	assert.Equal(t, at, *r.DecidedAt)
	assert.Equal(t, at, *r.StatusChangedAt)
	assert.Equal(t, sid, *r.SessionID)
	assert.Equal(t, "ok", r.DecisionNote)
	assert.True(t, r.Consistent())
	assert.True(t, r.IsUnread())
}

func TestApplyIsOneWay(t *testing.T) {
	r := pendingRequest()
	first := time.Now().UTC()
	assert.True(t, r.Apply(Rejection(primitive.NewObjectID(), "full", first)))

	assert.False(t, r.Apply(Approval(primitive.NewObjectID(), primitive.NewObjectID(), "", first.Add(time.Minute))))
	assert.False(t, r.Apply(Rejection(primitive.NewObjectID(), "", first.Add(time.Minute))))

	assert.Equal(t, RequestRejected, r.Status)
	assert.Nil(t, r.SessionID)
	assert.Equal(t, first, *r.StatusChangedAt)
	assert.True(t, r.Consistent())
}

func TestIsUnreadWatermark(t *testing.T) {
	changed := time.Date(2024, 4, 20, 9, 30, 0, 0, time.UTC)
	before := changed.Add(-time.Second)
	after := changed.Add(time.Second)

	tests := []struct {
		name   string
		seenAt *time.Time
		want   bool
	}{
		{"never seen", nil, true},
		{"seen before decision", &before, true},
		{"seen at decision", &changed, false},
		{"seen after decision", &after, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pendingRequest()
			r.Apply(Rejection(primitive.NewObjectID(), "", changed))
			r.CoachSeenAt = tt.seenAt
			assert.Equal(t, tt.want, r.IsUnread())
		})
	}
}

func TestConsistentDetectsPartialStamps(t *testing.T) {
	r := pendingRequest()
	now := time.Now()
	r.DecidedAt = &now
	assert.False(t, r.Consistent())

	r = pendingRequest()
	r.Apply(Rejection(primitive.NewObjectID(), "", now))
	sid := primitive.NewObjectID()
	r.SessionID = &sid
	assert.False(t, r.Consistent())
}

func TestToSessionCopiesSlot(t *testing.T) {
	r := pendingRequest()
	s := r.ToSession()

	assert.Equal(t, r.CoachID, s.CoachID)
	assert.Equal(t, r.ClientIDs, s.ClientIDs)
	assert.Equal(t, r.Date, s.Date)
	assert.Equal(t, "10:00", s.Time)
	assert.Equal(t, SessionYoga, s.Type)
	assert.Equal(t, SessionScheduled, s.Status)
	assert.Equal(t, SourceRequest, s.Source)
	assert.True(t, s.SameSlot(r.CoachID, r.Date, r.Time))

	s.ClientIDs[0] = primitive.NewObjectID()
	assert.NotEqual(t, r.ClientIDs[0], s.ClientIDs[0])
}

func TestEnumsValidate(t *testing.T) {
	assert.True(t, SessionOther.Valid())
	assert.False(t, SessionType("Pilates").Valid())
	assert.True(t, RequestRejected.Decided())
	assert.False(t, RequestPending.Decided())
	assert.False(t, RequestStatus("Cancelled").Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("trainer").Valid())
}

func toDoc(t *testing.T, v interface{}) bson.M {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

// The store update must write exactly what Apply changes, under the same
// document names and with the same values.
func TestDecisionFieldsMatchApply(t *testing.T) {
	at := time.Date(2024, 4, 20, 9, 30, 0, 0, time.UTC)
	decisions := map[string]Decision{
		"approval":  Approval(primitive.NewObjectID(), primitive.NewObjectID(), "see you", at),
		"rejection": Rejection(primitive.NewObjectID(), "slot full", at),
	}
	for name, d := range decisions {
		t.Run(name, func(t *testing.T) {
			r := pendingRequest()
			before := toDoc(t, r)
			require.True(t, r.Apply(d))
			after := toDoc(t, r)
			fields := toDoc(t, d.Fields())

			for key, value := range fields {
				assert.Contains(t, after, key, "field %q is not a stored field", key)
				assert.Equal(t, after[key], value, "field %q", key)
			}
			for key, value := range after {
				if prev, ok := before[key]; ok && assert.ObjectsAreEqual(prev, value) {
					continue
				}
				assert.Contains(t, fields, key, "Apply changed %q but the update does not write it", key)
			}
		})
	}
}
