package org

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CollectionManager orchestrates the physical per-tenant collection in
// lockstep with registry state. Renames are copy-then-drop rather than an
// in-place rename: the store's rename primitive is not assumed portable
// across deployment targets, so the manager trades atomicity for portability
// and accepts a window where both collections transiently coexist. Every
// migration is bracketed by a durable marker so a crash mid-flight can be
// resolved by the registry's reconcile sweep.
type CollectionManager struct {
	collections CollectionStore
	markers     MarkerStore
	logger      *slog.Logger
}

// NewCollectionManager creates a collection lifecycle manager.
func NewCollectionManager(collections CollectionStore, markers MarkerStore, logger *slog.Logger) *CollectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectionManager{
		collections: collections,
		markers:     markers,
		logger:      logger,
	}
}

// CreateCollection materializes the collection for a new organization.
// Returns domain.ErrCollectionExists if the identifier is already taken,
// which the naming policy plus registry uniqueness should make impossible.
func (m *CollectionManager) CreateCollection(ctx context.Context, id domain.CollectionID) error {
	return m.collections.Create(ctx, id)
}

// MigrateCollection moves an organization's data from oldID to newID:
// write marker, create newID, copy every document preserving identity,
// verify counts, drop oldID. A copy or verification failure drops newID and
// fails with domain.ErrMigrationFailed, leaving oldID untouched - callers
// must not commit the rename to metadata until this returns nil.
//
// On success the marker is left in place; the registry removes it with
// RemoveMarker after committing metadata, so the marker lifetime covers the
// whole non-atomic window.
func (m *CollectionManager) MigrateCollection(ctx context.Context, orgID primitive.ObjectID, oldID, newID domain.CollectionID) error {
	marker := &domain.MigrationMarker{
		OrgID:         orgID,
		OldCollection: oldID,
		NewCollection: newID,
		StartedAt:     time.Now(),
	}
	if err := m.markers.Put(ctx, marker); err != nil {
		return fmt.Errorf("writing migration marker: %w", err)
	}

	if err := m.collections.Create(ctx, newID); err != nil {
		m.abortMigration(ctx, orgID, newID, false)
		return fmt.Errorf("%w: creating %q: %v", domain.ErrMigrationFailed, newID, err)
	}

	copied, err := m.collections.Copy(ctx, oldID, newID)
	if err != nil {
		m.abortMigration(ctx, orgID, newID, true)
		return fmt.Errorf("%w: copying %q to %q: %v", domain.ErrMigrationFailed, oldID, newID, err)
	}

	srcCount, err := m.collections.Count(ctx, oldID)
	if err != nil {
		m.abortMigration(ctx, orgID, newID, true)
		return fmt.Errorf("%w: counting %q: %v", domain.ErrMigrationFailed, oldID, err)
	}
	dstCount, err := m.collections.Count(ctx, newID)
	if err != nil {
		m.abortMigration(ctx, orgID, newID, true)
		return fmt.Errorf("%w: counting %q: %v", domain.ErrMigrationFailed, newID, err)
	}
	if srcCount != dstCount {
		m.abortMigration(ctx, orgID, newID, true)
		return fmt.Errorf("%w: document count mismatch after copy: %q has %d, %q has %d",
			domain.ErrMigrationFailed, oldID, srcCount, newID, dstCount)
	}

	m.logger.Info("collection copied",
		"org_id", orgID.Hex(),
		"old_collection", oldID,
		"new_collection", newID,
		"documents", copied,
	)

	if err := m.collections.Drop(ctx, oldID); err != nil {
		// The copy is complete and verified, so the migration stands; the
		// stale source collection is swept by reconciliation.
		m.logger.Error("failed to drop source collection after migration",
			"org_id", orgID.Hex(),
			"collection", oldID,
			"error", err,
		)
	}

	return nil
}

// abortMigration undoes a failed migration: the destination collection is
// dropped and the marker removed. If the drop itself fails, the marker stays
// behind so the reconcile sweep can finish the rollback.
func (m *CollectionManager) abortMigration(ctx context.Context, orgID primitive.ObjectID, newID domain.CollectionID, dropNew bool) {
	if dropNew {
		if err := m.collections.Drop(ctx, newID); err != nil {
			m.logger.Error("failed to drop destination collection during rollback",
				"org_id", orgID.Hex(),
				"collection", newID,
				"error", err,
			)
			return
		}
	}
	if err := m.markers.Delete(ctx, orgID); err != nil {
		m.logger.Error("failed to remove migration marker during rollback",
			"org_id", orgID.Hex(),
			"error", err,
		)
	}
}

// DropCollection removes an organization's collection. Dropping an absent
// collection is safe: the repeat call is logged but is not an error in the
// external contract.
func (m *CollectionManager) DropCollection(ctx context.Context, id domain.CollectionID) error {
	exists, err := m.collections.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		m.logger.Warn("drop requested for absent collection", "collection", id)
		return nil
	}
	return m.collections.Drop(ctx, id)
}

// CollectionExists reports whether the physical collection is present.
func (m *CollectionManager) CollectionExists(ctx context.Context, id domain.CollectionID) (bool, error) {
	return m.collections.Exists(ctx, id)
}

// RemoveMarker deletes the migration marker once the registry has committed
// the rename to metadata.
func (m *CollectionManager) RemoveMarker(ctx context.Context, orgID primitive.ObjectID) error {
	return m.markers.Delete(ctx, orgID)
}

// Markers returns all outstanding migration markers.
func (m *CollectionManager) Markers(ctx context.Context) ([]domain.MigrationMarker, error) {
	return m.markers.List(ctx)
}
