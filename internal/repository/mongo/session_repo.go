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

// mongoSessionRepository implements repository.SessionRepository
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new Session repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new session into the database.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error) {
	// Basic sanity check, slot validation happens in the service layer
	if session.CoachID == primitive.NilObjectID || session.Time == "" || session.Date.IsZero() {
		return primitive.NilObjectID, errors.New("session requires coachId, date and time")
	}

	session.ID = primitive.NewObjectID() // Generate new ObjectID
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = domain.SessionScheduled // Default status for new sessions
	}

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound // Specific error for not found
		}
		return nil, err
	}
	return &session, nil
}

// Delete removes a session by ID.
func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound // Nothing was deleted
	}
	return nil
}

// List returns sessions matching filter, latest slot first.
func (r *mongoSessionRepository) List(ctx context.Context, filter repository.SessionFilter) ([]domain.Session, error) {
	query := bson.M{} // Empty filter matches everything
	if filter.CoachID != nil {
		query["coachId"] = *filter.CoachID
	}
	if filter.ClientID != nil {
		// Matches array membership.
		query["clientIds"] = *filter.ClientID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if dr := dateRange(filter.From, filter.To); dr != nil {
		query["date"] = dr
	}

	// Latest slot first; "HH:mm" strings sort chronologically
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}})
	return r.find(ctx, query, opts)
}

// FindInSlots returns the sessions of any of coachIDs on any of dates.
func (r *mongoSessionRepository) FindInSlots(ctx context.Context, coachIDs []primitive.ObjectID, dates []time.Time) ([]domain.Session, error) {
	if len(coachIDs) == 0 || len(dates) == 0 {
		return nil, nil // An empty $in would match nothing anyway
	}
	query := bson.M{
		"coachId": bson.M{"$in": coachIDs},
		"date":    bson.M{"$in": dates},
	}
	return r.find(ctx, query)
}

// DistinctClientIDs lists every client that appears in one of the coach's sessions.
func (r *mongoSessionRepository) DistinctClientIDs(ctx context.Context, coachID primitive.ObjectID) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "clientIds", bson.M{"coachId": coachID})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		// Skip anything that is not an ObjectID rather than failing the list
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CreatedSince returns sessions of the given source created at or after since.
func (r *mongoSessionRepository) CreatedSince(ctx context.Context, source domain.SessionSource, since time.Time) ([]domain.Session, error) {
	query := bson.M{
		"source":    source,
		"createdAt": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, query, opts)
}

func (r *mongoSessionRepository) find(ctx context.Context, query bson.M, opts ...*options.FindOptions) ([]domain.Session, error) {
	cursor, err := r.collection.Find(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.Session{} // Initialize as empty slice
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// dateRange builds an inclusive range on a calendar-day field.
func dateRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	dr := bson.M{}
	if from != nil {
		dr["$gte"] = *from
	}
	if to != nil {
		dr["$lte"] = *to
	}
	return dr
}

func ensureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "coachId", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}}},
		{Keys: bson.D{{Key: "clientIds", Value: 1}}}, // Multikey, for client schedules
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
