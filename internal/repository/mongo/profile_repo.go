package mongo

import (
	"context"
	"errors"
	"regexp"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoProfileRepository implements repository.ProfileRepository over the
// clients and coaches collections.
type mongoProfileRepository struct {
	clients *mongo.Collection
	coaches *mongo.Collection
}

// NewMongoProfileRepository creates a new profile repository backed by MongoDB.
func NewMongoProfileRepository(db *mongo.Database) repository.ProfileRepository {
	return &mongoProfileRepository{
		clients: db.Collection(clientCollectionName),
		coaches: db.Collection(coachCollectionName),
	}
}

// upsertOpts creates the profile on first call and returns the stored
// document on every call.
var upsertOpts = options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

// EnsureClient returns the user's client profile, creating it if needed.
func (r *mongoProfileRepository) EnsureClient(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	var client domain.Client
	err := r.clients.FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		bson.M{"$setOnInsert": bson.M{"userId": userID}}, // Only written on first insert
		upsertOpts,
	).Decode(&client)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// EnsureCoach returns the user's coach profile, creating it if needed.
func (r *mongoProfileRepository) EnsureCoach(ctx context.Context, userID primitive.ObjectID) (*domain.Coach, error) {
	var coach domain.Coach
	err := r.coaches.FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		bson.M{"$setOnInsert": bson.M{"userId": userID}},
		upsertOpts,
	).Decode(&coach)
	if err != nil {
		return nil, err
	}
	return &coach, nil
}

// GetClientByUserID retrieves the client profile of a user.
func (r *mongoProfileRepository) GetClientByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	var client domain.Client
	err := r.clients.FindOne(ctx, bson.M{"userId": userID}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound // User has no client profile
		}
		return nil, err
	}
	return &client, nil
}

// GetCoachByUserID retrieves the coach profile of a user.
func (r *mongoProfileRepository) GetCoachByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Coach, error) {
	var coach domain.Coach
	err := r.coaches.FindOne(ctx, bson.M{"userId": userID}).Decode(&coach)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound // Specific error for not found
		}
		return nil, err // Other potential errors
	}
	return &coach, nil
}

// ListClientContacts joins clients with their users so the caller can
// search and label them by name and email.
func (r *mongoProfileRepository) ListClientContacts(ctx context.Context, f repository.ClientContactFilter) ([]domain.ClientContact, error) {
	pipeline := mongo.Pipeline{}
	// nil IDs means any client, an empty slice means none
	if f.IDs != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"_id": bson.M{"$in": f.IDs}}}})
	}
	pipeline = append(pipeline,
		// Pull name and email from the owning user document
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         userCollectionName,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "user",
		}}},
		// A client whose user is gone is still listed, labelled by id
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$addFields", Value: bson.M{"name": "$user.name", "email": "$user.email"}}},
		bson.D{{Key: "$project", Value: bson.M{"user": 0}}},
	)
	if f.Query != "" {
		// Literal, case-insensitive match on either field
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"name": rx},
			bson.M{"email": rx},
		}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}}})
	if f.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: f.Limit}})
	}

	cursor, err := r.clients.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	contacts := []domain.ClientContact{}
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// ExistingClientIDs returns which of ids reference a client document.
func (r *mongoProfileRepository) ExistingClientIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(ids) == 0 {
		return nil, nil // Nothing to check
	}
	cursor, err := r.clients.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}), // Only the IDs are needed
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	found := make([]primitive.ObjectID, len(rows))
	for i, row := range rows {
		found[i] = row.ID
	}
	return found, nil
}

// ensureProfileIndexes enforces one profile per user; shared by clients and coaches.
func ensureProfileIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
