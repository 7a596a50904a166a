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

// mongoSessionRequestRepository implements repository.SessionRequestRepository
type mongoSessionRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRequestRepository creates a new SessionRequest repository backed by MongoDB.
func NewMongoSessionRequestRepository(db *mongo.Database) repository.SessionRequestRepository {
	return &mongoSessionRequestRepository{
		collection: db.Collection(sessionRequestCollectionName),
	}
}

// decidedStatuses matches requests that left the pending state.
var decidedStatuses = bson.M{"$in": bson.A{domain.RequestApproved, domain.RequestRejected}}

// unreadFilter selects decided requests the coach has not acknowledged:
// coachSeenAt is null or older than statusChangedAt.
func unreadFilter(coachID primitive.ObjectID) bson.M {
	return bson.M{
		"coachId": coachID,
		"status":  decidedStatuses,
		"$or": bson.A{
			bson.M{"coachSeenAt": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$coachSeenAt", "$statusChangedAt"}}},
		},
	}
}

// Create inserts a new pending request.
func (r *mongoSessionRequestRepository) Create(ctx context.Context, req *domain.SessionRequest) (primitive.ObjectID, error) {
	if req.CoachID == primitive.NilObjectID || len(req.ClientIDs) == 0 || req.Time == "" || req.Date.IsZero() {
		return primitive.NilObjectID, errors.New("session request requires coachId, clientIds, date and time")
	}

	req.ID = primitive.NewObjectID() // Generate new ObjectID
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	// A new request always starts pending, whatever the caller set
	req.Status = domain.RequestPending
	req.DecidedBy, req.DecidedAt, req.SessionID = nil, nil, nil
	req.DecisionNote = ""
	req.CoachSeenAt, req.StatusChangedAt = nil, nil

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session request ID")
	}
	return insertedID, nil
}

// GetByID retrieves a request by its ID.
func (r *mongoSessionRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SessionRequest, error) {
	var req domain.SessionRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound // Specific error for not found
		}
		return nil, err
	}
	return &req, nil
}

// List returns requests matching filter, newest created first.
func (r *mongoSessionRequestRepository) List(ctx context.Context, filter repository.SessionRequestFilter) ([]domain.SessionRequest, error) {
	query := bson.M{}
	if filter.CoachID != nil {
		query["coachId"] = *filter.CoachID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if dr := dateRange(filter.From, filter.To); dr != nil {
		query["date"] = dr
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, query, opts)
}

// DeletePending removes a pending request owned by coachID.
func (r *mongoSessionRequestRepository) DeletePending(ctx context.Context, id, coachID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":     id,
		"coachId": coachID,
		"status":  domain.RequestPending,
	})
	if err != nil {
		return err
	}
	if result.DeletedCount == 1 {
		return nil // Deleted
	}
	return r.missReason(ctx, bson.M{"_id": id, "coachId": coachID})
}

// Decide transitions a pending request. The status predicate in the filter
// makes the transition exclusive: of two concurrent calls only one matches.
func (r *mongoSessionRequestRepository) Decide(ctx context.Context, id primitive.ObjectID, d domain.Decision) (*domain.SessionRequest, error) {
	// Same fields domain.SessionRequest.Apply stamps in memory.
	set := bson.M(d.Fields())

	var updated domain.SessionRequest
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": domain.RequestPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err // Driver or network error
	}
	// Nothing matched: either gone or no longer pending
	return nil, r.missReason(ctx, bson.M{"_id": id})
}

// missReason tells apart a missing document from one that failed the
// status guard.
func (r *mongoSessionRequestRepository) missReason(ctx context.Context, filter bson.M) error {
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStatusConflict
}

// ListDecided returns the coach's decided requests, most recently changed first.
func (r *mongoSessionRequestRepository) ListDecided(ctx context.Context, coachID primitive.ObjectID, unreadOnly bool, limit int64) ([]domain.SessionRequest, error) {
	query := bson.M{"coachId": coachID, "status": decidedStatuses}
	if unreadOnly {
		query = unreadFilter(coachID)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "statusChangedAt", Value: -1}}).
		SetLimit(limit)
	return r.find(ctx, query, opts)
}

// CountUnread counts decided requests the coach has not seen yet.
func (r *mongoSessionRequestRepository) CountUnread(ctx context.Context, coachID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, unreadFilter(coachID))
}

// MarkSeen stamps coachSeenAt on every unread request and reports how many changed.
func (r *mongoSessionRequestRepository) MarkSeen(ctx context.Context, coachID primitive.ObjectID, seenAt time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		unreadFilter(coachID),
		bson.M{"$set": bson.M{"coachSeenAt": seenAt}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// FindBySessionIDs returns the approved requests that produced the given sessions.
func (r *mongoSessionRequestRepository) FindBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.SessionRequest, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"sessionId": bson.M{"$in": sessionIDs}})
}

func (r *mongoSessionRequestRepository) find(ctx context.Context, query bson.M, opts ...*options.FindOptions) ([]domain.SessionRequest, error) {
	cursor, err := r.collection.Find(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reqs := []domain.SessionRequest{} // Initialize as empty slice
	if err = cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func ensureSessionRequestIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "coachId", Value: 1}, {Key: "status", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "date", Value: -1}, {Key: "time", Value: 1}}}, // Admin listing by slot
		// Notification listing per coach.
		{Keys: bson.D{{Key: "coachId", Value: 1}, {Key: "statusChangedAt", Value: -1}}},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetSparse(true), // Only approved requests carry a sessionId
		},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
