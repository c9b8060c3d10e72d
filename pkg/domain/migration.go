package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MigrationMarker records an in-flight copy-then-drop migration. It is written
// before any physical work starts and removed only after the registry commits
// the rename (or a reconciliation sweep resolves it), so a crash mid-migration
// is always detectable.
type MigrationMarker struct {
	OrgID         primitive.ObjectID `bson:"_id"`
	OldCollection CollectionID       `bson:"old_collection"`
	NewCollection CollectionID       `bson:"new_collection"`
	StartedAt     time.Time          `bson:"started_at"`
}
