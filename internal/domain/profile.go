package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client is the client profile attached to a user with RoleClient.
// Session participants are referenced by Client ID, not by user ID.
type Client struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"userId" json:"userId"`
	SubscriptionID *primitive.ObjectID `bson:"subscriptionId,omitempty" json:"subscriptionId,omitempty"`
	FitnessGoal    string              `bson:"fitnessGoal,omitempty" json:"fitnessGoal,omitempty"`
}

// Coach is the coach profile attached to a user with RoleCoach.
type Coach struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID   `bson:"userId" json:"userId"`
	Speciality      string               `bson:"speciality,omitempty" json:"speciality,omitempty"`
	AssignedClients []primitive.ObjectID `bson:"assignedClients,omitempty" json:"assignedClients,omitempty"`
}

// ClientContact is a client profile joined with its user's name and email.
type ClientContact struct {
	Client `bson:",inline"`
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email" json:"email"`
}

// DisplayName is the best human label available for the client.
func (c *ClientContact) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	default:
		return c.ID.Hex()
	}
}
