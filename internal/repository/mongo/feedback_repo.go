package mongo

import (
	"context"
	"errors"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoFeedbackRepository implements repository.FeedbackRepository
type mongoFeedbackRepository struct {
	collection *mongo.Collection
}

// NewMongoFeedbackRepository creates a new Feedback repository backed by MongoDB.
func NewMongoFeedbackRepository(db *mongo.Database) repository.FeedbackRepository {
	return &mongoFeedbackRepository{
		collection: db.Collection(feedbackCollectionName),
	}
}

// Create inserts a feedback. The unique (clientId, sessionId) index turns a
// second rating of the same session into repository.ErrDuplicate.
func (r *mongoFeedbackRepository) Create(ctx context.Context, fb *domain.Feedback) (primitive.ObjectID, error) {
	if fb.ClientID == primitive.NilObjectID || fb.SessionID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("feedback requires clientId and sessionId")
	}

	fb.ID = primitive.NewObjectID() // Generate new ObjectID
	now := time.Now().UTC()
	fb.CreatedAt = now
	fb.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, fb)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate // Session already rated by this client
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted feedback ID")
	}
	return insertedID, nil
}

func (r *mongoFeedbackRepository) ListByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Feedback, error) {
	// Newest rating first
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	feedbacks := []domain.Feedback{} // Initialize as empty slice
	if err = cursor.All(ctx, &feedbacks); err != nil {
		return nil, err
	}
	return feedbacks, nil
}

func ensureFeedbackIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "coachId", Value: 1}}}, // Coach rating lookups
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
