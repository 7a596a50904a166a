package service

import (
	"context"
	"errors"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentView is a payment with the subscription it settles, when that
// subscription still exists.
type PaymentView struct {
	domain.Payment
	Subscription *domain.Subscription
}

// BillingService serves a client's own subscriptions and payments.
type BillingService interface {
	MySubscriptions(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error)
	MyPayments(ctx context.Context, userID primitive.ObjectID) ([]PaymentView, error)
}

type billingService struct {
	subscriptions repository.SubscriptionRepository
	payments      repository.PaymentRepository
	profiles      repository.ProfileRepository
	logger        *log.Logger
}

func NewBillingService(
	subscriptions repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	profiles repository.ProfileRepository,
	logger *log.Logger,
) BillingService {
	return &billingService{
		subscriptions: subscriptions,
		payments:      payments,
		profiles:      profiles,
		logger:        logger.WithPrefix("billing"),
	}
}

// clientID maps the caller to a client profile. ok is false for users
// without one; they simply have nothing billed yet.
func (s *billingService) clientID(ctx context.Context, userID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	client, err := s.profiles.GetClientByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, false, nil
		}
		return primitive.NilObjectID, false, storeErr("load client profile", err)
	}
	return client.ID, true, nil
}

func (s *billingService) MySubscriptions(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	clientID, ok, err := s.clientID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Subscription{}, nil
	}
	subs, err := s.subscriptions.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, storeErr("list subscriptions", err)
	}
	return subs, nil
}

func (s *billingService) MyPayments(ctx context.Context, userID primitive.ObjectID) ([]PaymentView, error) {
	clientID, ok, err := s.clientID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []PaymentView{}, nil
	}
	payments, err := s.payments.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, storeErr("list payments", err)
	}

	var ids []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, p := range payments {
		if !seen[p.SubscriptionID] {
			seen[p.SubscriptionID] = true
			ids = append(ids, p.SubscriptionID)
		}
	}
	subs, err := s.subscriptions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("load payment subscriptions", err)
	}
	byID := make(map[primitive.ObjectID]domain.Subscription, len(subs))
	for _, sub := range subs {
		byID[sub.ID] = sub
	}

	views := make([]PaymentView, len(payments))
	for i, p := range payments {
		views[i] = PaymentView{Payment: p}
		if sub, ok := byID[p.SubscriptionID]; ok {
			views[i].Subscription = &sub
		}
	}
	return views, nil
}
