package repository

import (
	"context"
	"errors"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdminsRepository handles administrator persistence.
type AdminsRepository struct {
	db *mongo.Database
}

// NewAdminsRepository creates a new admins repository.
func NewAdminsRepository(db *mongo.Database) *AdminsRepository {
	return &AdminsRepository{db: db}
}

func (r *AdminsRepository) collection() *mongo.Collection {
	return r.db.Collection(adminsCollection)
}

// Insert stores a new administrator record and assigns its ID.
func (r *AdminsRepository) Insert(ctx context.Context, admin *domain.Administrator) error {
	res, err := r.collection().InsertOne(ctx, admin)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return storageErr(err)
	}
	admin.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByEmail retrieves an administrator by normalized email.
func (r *AdminsRepository) FindByEmail(ctx context.Context, email string) (*domain.Administrator, error) {
	var admin domain.Administrator
	err := r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &admin, nil
}

// FindFirstByOrgID returns the oldest admin of an organization.
func (r *AdminsRepository) FindFirstByOrgID(ctx context.Context, orgID primitive.ObjectID) (*domain.Administrator, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	var admin domain.Administrator
	err := r.collection().FindOne(ctx, bson.M{"org_id": orgID}, opts).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &admin, nil
}

// DeleteByOrgID removes every administrator owned by the organization.
func (r *AdminsRepository) DeleteByOrgID(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	res, err := r.collection().DeleteMany(ctx, bson.M{"org_id": orgID})
	if err != nil {
		return 0, storageErr(err)
	}
	return res.DeletedCount, nil
}
