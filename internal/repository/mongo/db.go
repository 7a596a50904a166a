package mongo

import (
	"context"
	"time"

	"gym360/backend/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names.
const (
	userCollectionName           = "users"
	clientCollectionName         = "clients"
	coachCollectionName          = "coaches"
	sessionCollectionName        = "sessions"
	sessionRequestCollectionName = "sessionrequests"
	feedbackCollectionName       = "feedbacks"
	subscriptionCollectionName   = "subscriptions"
	paymentCollectionName        = "payments"
)

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err // Bad URI or unreachable server
	}

	// Connect is lazy; ping to make sure the server is actually there

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx) // Best effort, the ping error is what matters
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are
// returned per collection name so the caller can log them without aborting.
func EnsureIndexes(ctx context.Context, db *mongo.Database) map[string]error {
	failures := map[string]error{}
	steps := map[string]func(context.Context, *mongo.Collection) error{
		userCollectionName:           ensureUserIndexes,
		clientCollectionName:         ensureProfileIndexes,
		coachCollectionName:          ensureProfileIndexes,
		sessionCollectionName:        ensureSessionIndexes,
		sessionRequestCollectionName: ensureSessionRequestIndexes,
		feedbackCollectionName:       ensureFeedbackIndexes,
		subscriptionCollectionName:   ensureSubscriptionIndexes,
		paymentCollectionName:        ensurePaymentIndexes,
	}
	for name, ensure := range steps {
		if err := ensure(ctx, db.Collection(name)); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// mongoTransactor implements repository.Transactor.
type mongoTransactor struct {
	client  *mongo.Client
	enabled bool
}

// NewTransactor returns a Transactor backed by client. With enabled false,
// fn runs directly; multi-document transactions need a replica set.
func NewTransactor(client *mongo.Client, enabled bool) repository.Transactor {
	return &mongoTransactor{client: client, enabled: enabled}
}

func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx) // Standalone server, no transaction support
	}
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	// WithTransaction retries on transient errors and commits on success
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
