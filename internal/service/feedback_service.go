package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackService lets clients rate sessions they took part in.
type FeedbackService interface {
	Submit(ctx context.Context, userID primitive.ObjectID, sessionID string, rating int, comment string) (*domain.Feedback, error)
	ListMine(ctx context.Context, userID primitive.ObjectID) ([]domain.Feedback, error)
}

type feedbackService struct {
	feedbacks repository.FeedbackRepository
	sessions  repository.SessionRepository
	profiles  repository.ProfileRepository
	logger    *log.Logger
}

func NewFeedbackService(
	feedbacks repository.FeedbackRepository,
	sessions repository.SessionRepository,
	profiles repository.ProfileRepository,
	logger *log.Logger,
) FeedbackService {
	return &feedbackService{
		feedbacks: feedbacks,
		sessions:  sessions,
		profiles:  profiles,
		logger:    logger.WithPrefix("feedback"),
	}
}

func (s *feedbackService) Submit(ctx context.Context, userID primitive.ObjectID, sessionID string, rating int, comment string) (*domain.Feedback, error) {
	sid, err := parseObjectID("sessionId", sessionID)
	if err != nil {
		return nil, err
	}
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, invalid("rating", "must be between 1 and 5")
	}

	client, err := s.clientOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByID(ctx, sid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("session")
		}
		return nil, storeErr("load session", err)
	}
	if !session.HasClient(client.ID) {
		return nil, fmt.Errorf("%w: not a participant of this session", ErrForbidden)
	}

	fb := &domain.Feedback{
		ClientID:  client.ID,
		CoachID:   session.CoachID,
		SessionID: session.ID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	}
	id, err := s.feedbacks.Create(ctx, fb)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: session already rated", ErrConflict)
		}
		return nil, storeErr("create feedback", err)
	}
	fb.ID = id
	s.logger.Info("feedback submitted", "sessionId", sid.Hex(), "clientId", client.ID.Hex(), "rating", rating)
	return fb, nil
}

func (s *feedbackService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]domain.Feedback, error) {
	client, err := s.clientOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	feedbacks, err := s.feedbacks.ListByClientID(ctx, client.ID)
	if err != nil {
		return nil, storeErr("list feedback", err)
	}
	return feedbacks, nil
}

func (s *feedbackService) clientOf(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	client, err := s.profiles.GetClientByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("client profile")
		}
		return nil, storeErr("load client profile", err)
	}
	return client, nil
}
