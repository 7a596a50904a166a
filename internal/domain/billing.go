package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionType is the billing period of a subscription.
type SubscriptionType string

const (
	SubscriptionMonthly SubscriptionType = "Mensuel"
	SubscriptionYearly  SubscriptionType = "Annuel"
)

// SubscriptionStatus type for subscription validity
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "Active"
	SubscriptionExpired SubscriptionStatus = "Expired"
)

// Subscription is a client's gym membership over a date range.
type Subscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	StartDate time.Time          `bson:"startDate" json:"startDate"`
	EndDate   time.Time          `bson:"endDate" json:"endDate"`
	Type      SubscriptionType   `bson:"type" json:"type"`
	Price     float64            `bson:"price" json:"price"`
	Status    SubscriptionStatus `bson:"status" json:"status"`
}

// PaymentStatus type for the settlement state of a payment
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
)

// Payment settles (part of) a subscription for a client.
type Payment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID       primitive.ObjectID `bson:"clientId" json:"clientId"`
	SubscriptionID primitive.ObjectID `bson:"subscriptionId" json:"subscriptionId"`
	Amount         float64            `bson:"amount" json:"amount"`
	Date           time.Time          `bson:"date" json:"date"`
	Status         PaymentStatus      `bson:"status" json:"status"`
}
