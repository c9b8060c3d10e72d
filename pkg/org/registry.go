package org

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/org-mgmt/pkg/auth"
	"github.com/tendant/org-mgmt/pkg/domain"
)

// Registry manages organization metadata records and keeps them consistent
// with admin records and the physical per-tenant collection across create,
// rename, and delete. The store offers no multi-collection transactions, so
// partial failures are handled with compensating actions, and rename/delete
// mutual exclusion rides on the record's version token plus its status field.
type Registry struct {
	orgs      OrgStore
	creds     *CredentialStore
	lifecycle *CollectionManager
	cache     *Cache
	logger    *slog.Logger
}

// NewRegistry creates an organization registry. cache may be nil.
func NewRegistry(orgs OrgStore, creds *CredentialStore, lifecycle *CollectionManager, cache *Cache, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		orgs:      orgs,
		creds:     creds,
		lifecycle: lifecycle,
		cache:     cache,
		logger:    logger,
	}
}

// Create provisions a new organization: the metadata record, its first
// administrator, and the physical collection. The three effects either all
// succeed or the partially created metadata is compensated away.
func (r *Registry) Create(ctx context.Context, name, adminEmail, adminPassword string) (*domain.Organization, error) {
	collectionID, err := domain.DeriveCollectionID(name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	org := &domain.Organization{
		Name:         domain.NormalizeName(name),
		CollectionID: collectionID,
		Status:       domain.OrgStatusLive,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.orgs.Insert(ctx, org); err != nil {
		return nil, err
	}

	if _, err := r.creds.CreateAdmin(ctx, org.ID, adminEmail, adminPassword); err != nil {
		r.compensateCreate(ctx, org, false)
		return nil, err
	}

	if err := r.lifecycle.CreateCollection(ctx, collectionID); err != nil {
		r.compensateCreate(ctx, org, true)
		return nil, err
	}

	r.logger.Info("organization created",
		"org_id", org.ID.Hex(),
		"name", org.Name,
		"collection", org.CollectionID,
	)
	return org, nil
}

func (r *Registry) compensateCreate(ctx context.Context, org *domain.Organization, deleteAdmins bool) {
	if deleteAdmins {
		if _, err := r.creds.DeleteByOrg(ctx, org.ID); err != nil {
			r.logger.Error("compensation failed: admin records not removed",
				"org_id", org.ID.Hex(), "error", err)
		}
	}
	if err := r.orgs.Delete(ctx, org.ID); err != nil {
		r.logger.Error("compensation failed: organization record not removed",
			"org_id", org.ID.Hex(), "error", err)
	}
}

// Get returns the live organization with the given name (case-insensitive).
func (r *Registry) Get(ctx context.Context, name string) (*domain.Organization, error) {
	normalized := domain.NormalizeName(name)
	if org, ok := r.cache.get(normalized); ok {
		return org, nil
	}

	org, err := r.orgs.FindByName(ctx, normalized)
	if err != nil {
		return nil, err
	}
	r.cache.put(org)
	return org, nil
}

// Rename changes an organization's name and migrates its physical collection
// to the identifier derived from the new name. The record is first claimed by
// compare-and-swapping its status from live to migrating - a concurrent
// rename or delete loses that race with domain.ErrConflict. Metadata is only
// committed after the copy-then-drop migration fully succeeds.
func (r *Registry) Rename(ctx context.Context, name, newName string, claims *auth.Claims) (*domain.Organization, error) {
	org, err := r.orgs.FindByName(ctx, domain.NormalizeName(name))
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(claims, org.ID.Hex()); err != nil {
		return nil, err
	}

	newCollectionID, err := domain.DeriveCollectionID(newName)
	if err != nil {
		return nil, err
	}
	newNormalized := domain.NormalizeName(newName)
	if newNormalized == org.Name {
		return org, nil
	}

	// Early duplicate check; the unique index still closes the race at commit.
	if _, err := r.orgs.FindByName(ctx, newNormalized); err == nil {
		return nil, domain.ErrDuplicateName
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	oldName := org.Name
	oldCollectionID := org.CollectionID

	// Claim the record. The version filter makes a concurrent rename/delete
	// lose deterministically instead of being silently overwritten.
	org.Status = domain.OrgStatusMigrating
	org.UpdatedAt = time.Now()
	if err := r.orgs.UpdateCAS(ctx, org, org.Version); err != nil {
		return nil, err
	}

	if err := r.lifecycle.MigrateCollection(ctx, org.ID, oldCollectionID, newCollectionID); err != nil {
		r.releaseClaim(ctx, org)
		return nil, err
	}

	org.Name = newNormalized
	org.CollectionID = newCollectionID
	org.Status = domain.OrgStatusLive
	org.UpdatedAt = time.Now()
	if err := r.orgs.UpdateCAS(ctx, org, org.Version); err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			// Lost a late name race after the physical move: migrate the data
			// back and restore the old metadata.
			r.rollbackRename(ctx, org, oldName, oldCollectionID, newCollectionID)
			return nil, domain.ErrDuplicateName
		}
		// Marker stays behind; the reconcile sweep resolves the record.
		r.logger.Error("rename commit failed after migration",
			"org_id", org.ID.Hex(), "error", err)
		return nil, err
	}

	if err := r.lifecycle.RemoveMarker(ctx, org.ID); err != nil {
		r.logger.Error("failed to remove migration marker after rename",
			"org_id", org.ID.Hex(), "error", err)
	}

	r.cache.invalidate(oldName, newNormalized)
	r.logger.Info("organization renamed",
		"org_id", org.ID.Hex(),
		"old_name", oldName,
		"new_name", org.Name,
		"collection", org.CollectionID,
	)
	return org, nil
}

// releaseClaim resets a claimed record back to live after a failed operation.
func (r *Registry) releaseClaim(ctx context.Context, org *domain.Organization) {
	org.Status = domain.OrgStatusLive
	org.UpdatedAt = time.Now()
	if err := r.orgs.UpdateCAS(ctx, org, org.Version); err != nil {
		r.logger.Error("failed to release claim on organization",
			"org_id", org.ID.Hex(), "error", err)
	}
}

func (r *Registry) rollbackRename(ctx context.Context, org *domain.Organization, oldName string, oldCollectionID, newCollectionID domain.CollectionID) {
	if err := r.lifecycle.MigrateCollection(ctx, org.ID, newCollectionID, oldCollectionID); err != nil {
		r.logger.Error("failed to migrate collection back after rename rollback",
			"org_id", org.ID.Hex(), "error", err)
		return
	}
	org.Name = oldName
	org.CollectionID = oldCollectionID
	org.Status = domain.OrgStatusLive
	org.UpdatedAt = time.Now()
	if err := r.orgs.UpdateCAS(ctx, org, org.Version); err != nil {
		r.logger.Error("failed to restore metadata after rename rollback",
			"org_id", org.ID.Hex(), "error", err)
		return
	}
	if err := r.lifecycle.RemoveMarker(ctx, org.ID); err != nil {
		r.logger.Error("failed to remove migration marker after rename rollback",
			"org_id", org.ID.Hex(), "error", err)
	}
}

// Delete removes an organization: its admin records, its metadata record, and
// finally its physical collection. Metadata deletion is the commit point - a
// physical drop failure afterwards is reported in the log but the
// organization is still deleted, and the orphaned collection is left to the
// out-of-band sweep.
func (r *Registry) Delete(ctx context.Context, name string, claims *auth.Claims) error {
	org, err := r.orgs.FindByName(ctx, domain.NormalizeName(name))
	if err != nil {
		return err
	}
	if err := auth.Authorize(claims, org.ID.Hex()); err != nil {
		return err
	}

	// Claim the record so a concurrent rename observes ErrConflict.
	org.Status = domain.OrgStatusDeleting
	org.UpdatedAt = time.Now()
	if err := r.orgs.UpdateCAS(ctx, org, org.Version); err != nil {
		return err
	}

	if _, err := r.creds.DeleteByOrg(ctx, org.ID); err != nil {
		r.releaseClaim(ctx, org)
		return err
	}

	if err := r.orgs.Delete(ctx, org.ID); err != nil {
		r.releaseClaim(ctx, org)
		return err
	}

	r.cache.invalidate(org.Name)

	if err := r.lifecycle.DropCollection(ctx, org.CollectionID); err != nil {
		r.logger.Error("organization deleted but collection drop failed; collection orphaned",
			"org_id", org.ID.Hex(),
			"collection", org.CollectionID,
			"error", err,
		)
		return nil
	}

	r.logger.Info("organization deleted", "org_id", org.ID.Hex(), "name", org.Name)
	return nil
}

// Reconcile resolves migrations interrupted by a crash. It walks the durable
// markers and either rolls the migration forward (metadata already committed)
// or back (metadata still on the old collection), so no record is left
// pointing at a missing collection and no copied collection is left orphaned.
// Intended to run at startup before the service accepts requests.
func (r *Registry) Reconcile(ctx context.Context) error {
	markers, err := r.lifecycle.Markers(ctx)
	if err != nil {
		return fmt.Errorf("listing migration markers: %w", err)
	}

	var errs []error
	for _, marker := range markers {
		if err := r.reconcileMarker(ctx, marker); err != nil {
			r.logger.Error("failed to reconcile migration marker",
				"org_id", marker.OrgID.Hex(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) reconcileMarker(ctx context.Context, marker domain.MigrationMarker) error {
	org, err := r.orgs.FindByID(ctx, marker.OrgID)
	if errors.Is(err, domain.ErrNotFound) {
		// Organization is gone; remove whatever the migration left behind.
		if err := r.lifecycle.DropCollection(ctx, marker.NewCollection); err != nil {
			return err
		}
		if err := r.lifecycle.DropCollection(ctx, marker.OldCollection); err != nil {
			return err
		}
		return r.lifecycle.RemoveMarker(ctx, marker.OrgID)
	}
	if err != nil {
		return err
	}

	if org.CollectionID == marker.NewCollection {
		// Rename committed; only the stale source may remain.
		if err := r.lifecycle.DropCollection(ctx, marker.OldCollection); err != nil {
			return err
		}
		r.logger.Info("rolled interrupted migration forward",
			"org_id", org.ID.Hex(), "collection", org.CollectionID)
		return r.lifecycle.RemoveMarker(ctx, marker.OrgID)
	}

	// Rename never committed: restore the pre-rename state.
	oldExists, err := r.lifecycle.CollectionExists(ctx, marker.OldCollection)
	if err != nil {
		return err
	}
	if !oldExists {
		newExists, err := r.lifecycle.CollectionExists(ctx, marker.NewCollection)
		if err != nil {
			return err
		}
		if newExists {
			// The copy completed and the source was dropped before the
			// commit; move the data back under the referenced identifier.
			if err := r.lifecycle.MigrateCollection(ctx, org.ID, marker.NewCollection, marker.OldCollection); err != nil {
				return err
			}
		} else {
			// Neither collection survived. Recreate the referenced one empty
			// so the registry invariant holds, and say so loudly.
			r.logger.Error("reconcile found no surviving collection; recreating empty",
				"org_id", org.ID.Hex(), "collection", marker.OldCollection)
			if err := r.lifecycle.CreateCollection(ctx, marker.OldCollection); err != nil {
				return err
			}
		}
	} else {
		if err := r.lifecycle.DropCollection(ctx, marker.NewCollection); err != nil {
			return err
		}
	}

	if org.Status == domain.OrgStatusMigrating {
		org.Status = domain.OrgStatusLive
		org.UpdatedAt = time.Now()
		if err := r.orgs.UpdateCAS(ctx, org, org.Version); err != nil {
			return err
		}
	}

	r.cache.invalidate(org.Name)
	r.logger.Info("rolled interrupted migration back",
		"org_id", org.ID.Hex(), "collection", org.CollectionID)
	return r.lifecycle.RemoveMarker(ctx, marker.OrgID)
}
