package repository

import (
	"context"
	"errors"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OrganizationsRepository handles organization metadata persistence.
type OrganizationsRepository struct {
	db *mongo.Database
}

// NewOrganizationsRepository creates a new organizations repository.
func NewOrganizationsRepository(db *mongo.Database) *OrganizationsRepository {
	return &OrganizationsRepository{db: db}
}

func (r *OrganizationsRepository) collection() *mongo.Collection {
	return r.db.Collection(organizationsCollection)
}

// Insert stores a new organization record and assigns its ID.
func (r *OrganizationsRepository) Insert(ctx context.Context, org *domain.Organization) error {
	res, err := r.collection().InsertOne(ctx, org)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateName
		}
		return storageErr(err)
	}
	org.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByName retrieves an organization by normalized name.
func (r *OrganizationsRepository) FindByName(ctx context.Context, name string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.collection().FindOne(ctx, bson.M{"name": name}).Decode(&org)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &org, nil
}

// FindByID retrieves an organization by id.
func (r *OrganizationsRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &org, nil
}

// UpdateCAS writes the record only if the stored version still equals
// expectedVersion. The version filter is what makes concurrent rename and
// delete on the same organization resolve deterministically.
func (r *OrganizationsRepository) UpdateCAS(ctx context.Context, org *domain.Organization, expectedVersion int64) error {
	filter := bson.M{"_id": org.ID, "version": expectedVersion}
	update := bson.M{
		"$set": bson.M{
			"name":          org.Name,
			"collection_id": org.CollectionID,
			"status":        org.Status,
			"updated_at":    org.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateName
		}
		return storageErr(err)
	}
	if res.MatchedCount == 0 {
		// Version moved or the record is gone; look to tell which.
		if _, err := r.FindByID(ctx, org.ID); err != nil {
			return err
		}
		return domain.ErrConflict
	}
	org.Version = expectedVersion + 1
	return nil
}

// Delete removes an organization record unconditionally.
func (r *OrganizationsRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storageErr(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
