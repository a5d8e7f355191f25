// Package mongo provides the MongoDB backend. Collection and field names
// follow the document layout of existing recipe-app databases so those can
// be served without conversion.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/prn-tf/recipebook/internal/config"
)

// Collection names.
const (
	usersCollection    = "users"
	recipesCollection  = "recipes"
	commentsCollection = "comments"
	sharingCollection  = "sharedrecipes"
)

// schemaVersion is reported once every index exists.
const schemaVersion = 1

// DB wraps a MongoDB client bound to one database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

// NewDB connects to MongoDB and verifies the connection.
func NewDB(ctx context.Context, cfg config.MongoConfig, logger zerolog.Logger) (*DB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info().
		Str("database", cfg.Database).
		Msg("connected to MongoDB")

	return &DB{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// Close disconnects the client.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	db.logger.Info().Msg("MongoDB connection closed")
	return nil
}

// Ping checks the connection to the primary.
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

func indexSpecs() []indexSpec {
	return []indexSpec{
		{usersCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		}},
		{usersCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		}},
		{recipesCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at"),
		}},
		{commentsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "recipeId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("recipe_created_at"),
		}},
		{sharingCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "recipeId", Value: 1}, {Key: "ownerId", Value: 1}},
			Options: options.Index().SetName("recipe_owner_unique").SetUnique(true),
		}},
		{sharingCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "sharedWith.userId", Value: 1}},
			Options: options.Index().SetName("shared_with_user"),
		}},
		{sharingCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("owner_created_at"),
		}},
	}
}

// Migrate ensures every index exists. Creating an existing index is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	byCollection := make(map[string][]mongo.IndexModel)
	var order []string
	for _, spec := range indexSpecs() {
		if _, ok := byCollection[spec.collection]; !ok {
			order = append(order, spec.collection)
		}
		byCollection[spec.collection] = append(byCollection[spec.collection], spec.model)
	}

	for _, name := range order {
		names, err := db.collection(name).Indexes().CreateMany(ctx, byCollection[name])
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
		db.logger.Info().Str("collection", name).Strs("indexes", names).Msg("ensured indexes")
	}
	return nil
}

// MigrationVersion reports 1 when every index exists and 0 otherwise.
func (db *DB) MigrationVersion(ctx context.Context) (int, error) {
	existing := make(map[string]map[string]bool)
	for _, spec := range indexSpecs() {
		if _, ok := existing[spec.collection]; ok {
			continue
		}
		names, err := db.indexNames(ctx, spec.collection)
		if err != nil {
			return 0, err
		}
		existing[spec.collection] = names
	}

	for _, spec := range indexSpecs() {
		if !existing[spec.collection][*spec.model.Options.Name] {
			return 0, nil
		}
	}
	return schemaVersion, nil
}

func (db *DB) indexNames(ctx context.Context, collection string) (map[string]bool, error) {
	cursor, err := db.collection(collection).Indexes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes on %s: %w", collection, err)
	}
	var specs []struct {
		Name string `bson:"name"`
	}
	if err := cursor.All(ctx, &specs); err != nil {
		return nil, fmt.Errorf("failed to decode indexes on %s: %w", collection, err)
	}
	names := make(map[string]bool, len(specs))
	for _, s := range specs {
		names[s.Name] = true
	}
	return names, nil
}
