package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrgStatus is the durable lifecycle state of an organization record.
type OrgStatus string

const (
	OrgStatusLive      OrgStatus = "live"
	OrgStatusMigrating OrgStatus = "migrating"
	OrgStatusDeleting  OrgStatus = "deleting"
)

// Organization represents a tenant. Each live organization owns exactly one
// physical collection, identified by CollectionID, plus its admin records.
type Organization struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	CollectionID CollectionID       `bson:"collection_id"`
	Status       OrgStatus          `bson:"status"`
	// Version is the update token used to resolve concurrent rename/delete:
	// every committed update increments it, and updates carry the expected
	// value in their filter.
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
