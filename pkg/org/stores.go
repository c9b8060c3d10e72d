package org

import (
	"context"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrgStore persists organization metadata records. Name uniqueness is
// enforced by the store itself (unique index), not by callers, so a
// check-then-insert race always resolves to domain.ErrDuplicateName.
type OrgStore interface {
	// Insert stores a new record and assigns its ID.
	// Returns domain.ErrDuplicateName on a normalized-name collision.
	Insert(ctx context.Context, org *domain.Organization) error

	// FindByName looks up a record by normalized name.
	FindByName(ctx context.Context, name string) (*domain.Organization, error)

	// FindByID looks up a record by id.
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Organization, error)

	// UpdateCAS writes the record only if its stored version still equals
	// expectedVersion, incrementing the version on success (org.Version is
	// updated to match). Returns domain.ErrConflict if the version moved,
	// domain.ErrNotFound if the record is gone, domain.ErrDuplicateName if
	// the new name collides.
	UpdateCAS(ctx context.Context, org *domain.Organization, expectedVersion int64) error

	// Delete removes a record unconditionally.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AdminStore persists administrator records. Email uniqueness is system-wide
// and enforced by the store (unique index).
type AdminStore interface {
	// Insert stores a new record and assigns its ID.
	// Returns domain.ErrDuplicateEmail on an email collision.
	Insert(ctx context.Context, admin *domain.Administrator) error

	// FindByEmail looks up a record by normalized email.
	FindByEmail(ctx context.Context, email string) (*domain.Administrator, error)

	// FindFirstByOrgID returns the oldest admin of an organization.
	FindFirstByOrgID(ctx context.Context, orgID primitive.ObjectID) (*domain.Administrator, error)

	// DeleteByOrgID removes every admin owned by the organization.
	DeleteByOrgID(ctx context.Context, orgID primitive.ObjectID) (int64, error)
}

// CollectionStore is the physical-collection capability of the document
// store: create, drop, copy and count dynamically named collections.
type CollectionStore interface {
	// Create materializes an empty collection.
	// Returns domain.ErrCollectionExists if the name is taken.
	Create(ctx context.Context, id domain.CollectionID) error

	// Drop removes a collection. Dropping an absent collection is not an
	// error at this level; Exists is how callers distinguish.
	Drop(ctx context.Context, id domain.CollectionID) error

	// Exists reports whether a collection with this name is present.
	Exists(ctx context.Context, id domain.CollectionID) (bool, error)

	// Copy inserts every document of src into dst preserving document
	// identity, returning the number of documents copied.
	Copy(ctx context.Context, src, dst domain.CollectionID) (int64, error)

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, id domain.CollectionID) (int64, error)
}

// MarkerStore persists durable migration-in-progress markers, at most one per
// organization.
type MarkerStore interface {
	// Put writes the marker, replacing any existing one for the same org.
	Put(ctx context.Context, marker *domain.MigrationMarker) error

	// Delete removes the marker for an organization, if any.
	Delete(ctx context.Context, orgID primitive.ObjectID) error

	// List returns all outstanding markers.
	List(ctx context.Context) ([]domain.MigrationMarker, error)
}
