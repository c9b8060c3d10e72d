package repository

import (
	"context"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MigrationsRepository persists durable migration-in-progress markers, keyed
// by organization id.
type MigrationsRepository struct {
	db *mongo.Database
}

// NewMigrationsRepository creates a new migrations repository.
func NewMigrationsRepository(db *mongo.Database) *MigrationsRepository {
	return &MigrationsRepository{db: db}
}

func (r *MigrationsRepository) collection() *mongo.Collection {
	return r.db.Collection(migrationsCollection)
}

// Put writes the marker, replacing any existing one for the same org.
func (r *MigrationsRepository) Put(ctx context.Context, marker *domain.MigrationMarker) error {
	_, err := r.collection().ReplaceOne(ctx,
		bson.M{"_id": marker.OrgID},
		marker,
		options.Replace().SetUpsert(true),
	)
	return storageErr(err)
}

// Delete removes the marker for an organization. Removing an absent marker is
// not an error.
func (r *MigrationsRepository) Delete(ctx context.Context, orgID primitive.ObjectID) error {
	_, err := r.collection().DeleteOne(ctx, bson.M{"_id": orgID})
	return storageErr(err)
}

// List returns all outstanding markers.
func (r *MigrationsRepository) List(ctx context.Context) ([]domain.MigrationMarker, error) {
	cur, err := r.collection().Find(ctx, bson.D{})
	if err != nil {
		return nil, storageErr(err)
	}
	defer cur.Close(ctx)

	var markers []domain.MigrationMarker
	if err := cur.All(ctx, &markers); err != nil {
		return nil, storageErr(err)
	}
	return markers, nil
}
