// Package mongostore implements the document store on MongoDB. Every
// RunInTransaction call becomes a multi-document transaction, so the
// server must run as a replica set.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/eduland/eduland-server/internal/config"
	"github.com/eduland/eduland-server/internal/store"
)

// Compile-time contract assertion
var _ store.Store = (*Store)(nil)

// Collection names
const (
	colPlayers         = "players"
	colTrades          = "trades"
	colMissions        = "playerMissions"
	colDomains         = "outerDomains"
	colTasks           = "tasks"
	colSubmissions     = "submissions"
	colMessages        = "messages"
	colSurveys         = "surveys"
	colSurveyResponses = "surveyResponses"
)

// Store is a MongoDB-backed document store
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	logger  zerolog.Logger
}

// Connect dials MongoDB, verifies the connection and ensures indexes
func Connect(ctx context.Context, cfg config.MongoConfig, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "mongo_store").Logger()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: cfg.Timeout,
		logger:  logger,
	}
	if err := s.EnsureIndexes(dialCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info().Str("database", cfg.Database).Msg("Connected to MongoDB")
	return s, nil
}

// EnsureIndexes creates the secondary indexes used by list queries
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colPlayers:  {{Keys: bson.D{{Key: "group", Value: 1}, {Key: "name", Value: 1}}}},
		colTrades:   {{Keys: bson.D{{Key: "from_player", Value: 1}}}, {Keys: bson.D{{Key: "to_player", Value: 1}}}},
		colMissions: {{Keys: bson.D{{Key: "player_id", Value: 1}}}},
		colDomains:  {{Keys: bson.D{{Key: "owner_id", Value: 1}}}},
		colTasks:    {{Keys: bson.D{{Key: "group", Value: 1}, {Key: "created_at", Value: -1}}}},
		colSubmissions: {
			{Keys: bson.D{{Key: "task_id", Value: 1}}},
		},
		colMessages: {{Keys: bson.D{{Key: "to", Value: 1}, {Key: "created_at", Value: -1}}}},
	}
	for name, models := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// RunInTransaction runs fn inside a MongoDB transaction. The driver retries
// fn on transient transaction errors.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&tx{ctx: sc, db: s.db})
	})
	return err
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Database exposes the underlying database for maintenance tooling
func (s *Store) Database() *mongo.Database {
	return s.db
}
