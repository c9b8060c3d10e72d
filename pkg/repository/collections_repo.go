package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// namespaceExistsCode is the server error for creating a collection whose
// name is already taken.
const namespaceExistsCode = 48

// copyBatchSize bounds memory while copying a collection document-by-document.
const copyBatchSize = 500

// CollectionsRepository is the physical-collection capability: it creates,
// drops, copies and counts the dynamically named per-tenant collections.
type CollectionsRepository struct {
	db *mongo.Database
}

// NewCollectionsRepository creates a new collections repository.
func NewCollectionsRepository(db *mongo.Database) *CollectionsRepository {
	return &CollectionsRepository{db: db}
}

// Create materializes an empty collection.
func (r *CollectionsRepository) Create(ctx context.Context, id domain.CollectionID) error {
	err := r.db.CreateCollection(ctx, id.String())
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode {
			return domain.ErrCollectionExists
		}
		return storageErr(err)
	}
	return nil
}

// Drop removes a collection. The server treats dropping an absent collection
// as a no-op, matching the CollectionStore contract.
func (r *CollectionsRepository) Drop(ctx context.Context, id domain.CollectionID) error {
	if err := r.db.Collection(id.String()).Drop(ctx); err != nil {
		return storageErr(err)
	}
	return nil
}

// Exists reports whether a collection with this name is present.
func (r *CollectionsRepository) Exists(ctx context.Context, id domain.CollectionID) (bool, error) {
	names, err := r.db.ListCollectionNames(ctx, bson.M{"name": id.String()})
	if err != nil {
		return false, storageErr(err)
	}
	return len(names) > 0, nil
}

// Copy inserts every document of src into dst, preserving _id so document
// identity survives the migration. Documents are moved in batches.
func (r *CollectionsRepository) Copy(ctx context.Context, src, dst domain.CollectionID) (int64, error) {
	cur, err := r.db.Collection(src.String()).Find(ctx, bson.D{})
	if err != nil {
		return 0, storageErr(err)
	}
	defer cur.Close(ctx)

	dstCol := r.db.Collection(dst.String())
	var copied int64
	batch := make([]interface{}, 0, copyBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := dstCol.InsertMany(ctx, batch); err != nil {
			return storageErr(err)
		}
		copied += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for cur.Next(ctx) {
		// cur.Current is reused between iterations; keep a copy.
		doc := make(bson.Raw, len(cur.Current))
		copy(doc, cur.Current)
		batch = append(batch, doc)
		if len(batch) == copyBatchSize {
			if err := flush(); err != nil {
				return copied, err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return copied, storageErr(fmt.Errorf("reading %q: %w", src, err))
	}
	if err := flush(); err != nil {
		return copied, err
	}
	return copied, nil
}

// Count returns the number of documents in a collection.
func (r *CollectionsRepository) Count(ctx context.Context, id domain.CollectionID) (int64, error) {
	n, err := r.db.Collection(id.String()).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}
