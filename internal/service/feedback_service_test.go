package service

import (
	"context"
	"testing"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFeedbackService(t *testing.T) {
	ctx := context.Background()
	profiles := newMemProfiles()
	sessions := newMemSessions()
	svc := NewFeedbackService(&memFeedbacks{}, sessions, profiles, logger.Discard())

	participant := profiles.addClient()
	outsider := profiles.addClient()
	coach := primitive.NewObjectID()
	session := &domain.Session{
		CoachID:   coach,
		ClientIDs: []primitive.ObjectID{participant.ID},
		Date:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Time:      "10:00",
	}
	_, err := sessions.Create(ctx, session)
	require.NoError(t, err)

	fb, err := svc.Submit(ctx, participant.UserID, session.ID.Hex(), 5, " great ")
	require.NoError(t, err)
	assert.Equal(t, coach, fb.CoachID, "coach is taken from the session")
	assert.Equal(t, "great", fb.Comment)

	_, err = svc.Submit(ctx, participant.UserID, session.ID.Hex(), 4, "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Submit(ctx, outsider.UserID, session.ID.Hex(), 4, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Submit(ctx, participant.UserID, session.ID.Hex(), 6, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(ctx, participant.UserID, primitive.NewObjectID().Hex(), 3, "")
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := svc.ListMine(ctx, participant.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 5, mine[0].Rating)

	_, err = svc.ListMine(ctx, coach)
	assert.ErrorIs(t, err, ErrNotFound, "non-clients have no client profile")
}
