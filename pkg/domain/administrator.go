package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Administrator is an admin account scoped to one organization. It is created
// together with its organization, never re-parented, and removed when the
// organization is deleted. Email is unique across the whole system because
// login carries no organization hint.
type Administrator struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OrgID          primitive.ObjectID `bson:"org_id"`
	Email          string             `bson:"email"`
	PasswordDigest string             `bson:"password_digest"`
	IsSuperAdmin   bool               `bson:"is_super_admin"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}
