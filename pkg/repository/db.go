package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Master record sets. Tenant collections live in the same database under the
// org_ prefix, so these names must stay outside that namespace.
const (
	organizationsCollection = "organizations"
	adminsCollection        = "admins"
	migrationsCollection    = "migrations"
)

// Config holds master store connection settings.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// NewDB connects to the master store and verifies the connection.
func NewDB(cfg Config) (*mongo.Database, error) {
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, storageErr(err)
	}
	return client.Database(cfg.Database), nil
}

// EnsureIndexes creates the unique constraints the registry relies on.
// Uniqueness of organization name and admin email is enforced here, in the
// store, so a concurrent check-then-insert cannot slip through.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(organizationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return storageErr(fmt.Errorf("creating organizations name index: %w", err))
	}

	_, err = db.Collection(adminsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "org_id", Value: 1}},
		},
	})
	if err != nil {
		return storageErr(fmt.Errorf("creating admins indexes: %w", err))
	}
	return nil
}

// storageErr maps driver transport failures to the retryable sentinel.
// Everything else passes through untouched.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return err
}
