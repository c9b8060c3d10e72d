package org

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedMarker(env *testEnv, orgID primitive.ObjectID, oldID, newID domain.CollectionID) {
	_ = env.markers.Put(context.Background(), &domain.MigrationMarker{
		OrgID:         orgID,
		OldCollection: oldID,
		NewCollection: newID,
		StartedAt:     time.Now(),
	})
}

func TestReconcile_RollsBackUncommittedMigration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	org, err := env.registry.Create(ctx, "acme", "a@x.com", "Secret123")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.collections.seed(org.CollectionID, fakeDoc{ID: 1}, fakeDoc{ID: 2})

	// Crash scenario: marker written, destination created and partially
	// copied, record claimed as migrating, nothing committed.
	env.collections.seed("org_acmenew", fakeDoc{ID: 1})
	seedMarker(env, org.ID, org.CollectionID, "org_acmenew")
	org.Status = domain.OrgStatusMigrating
	if err := env.orgs.UpdateCAS(ctx, org, org.Version); err != nil {
		t.Fatalf("seeding migrating status failed: %v", err)
	}

	if err := env.registry.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	got, err := env.registry.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.OrgStatusLive {
		t.Errorf("Status = %q, want live", got.Status)
	}
	if got.CollectionID != "org_acme" {
		t.Errorf("CollectionID = %q, want org_acme", got.CollectionID)
	}
	if docs := env.collections.docs("org_acme"); len(docs) != 2 {
		t.Errorf("source collection has %d documents, want 2", len(docs))
	}
	if exists, _ := env.collections.Exists(ctx, "org_acmenew"); exists {
		t.Error("half-copied destination not dropped")
	}
	if env.markers.has(org.ID) {
		t.Error("marker not cleared")
	}
}

func TestReconcile_RollsForwardCommittedMigration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	org, err := env.registry.Create(ctx, "acmenew", "a@x.com", "Secret123")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Crash scenario: metadata committed to the new collection but the crash
	// hit before the stale source was dropped and the marker removed.
	env.collections.seed("org_acme", fakeDoc{ID: 1})
	seedMarker(env, org.ID, "org_acme", org.CollectionID)

	if err := env.registry.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if exists, _ := env.collections.Exists(ctx, "org_acme"); exists {
		t.Error("stale source collection not dropped")
	}
	if exists, _ := env.collections.Exists(ctx, org.CollectionID); !exists {
		t.Error("live collection removed by reconcile")
	}
	if env.markers.has(org.ID) {
		t.Error("marker not cleared")
	}
}

func TestReconcile_RestoresDroppedSource(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	org, err := env.registry.Create(ctx, "acme", "a@x.com", "Secret123")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Crash scenario: copy verified and the source dropped, but the rename
	// was never committed - the record still references the old identifier.
	docs := []fakeDoc{{ID: 1, Body: "alpha"}, {ID: 2, Body: "beta"}}
	_ = env.collections.Drop(ctx, org.CollectionID)
	env.collections.seed("org_acmenew", docs...)
	seedMarker(env, org.ID, org.CollectionID, "org_acmenew")

	if err := env.registry.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	restored := env.collections.docs("org_acme")
	if len(restored) != len(docs) {
		t.Fatalf("restored collection has %d documents, want %d", len(restored), len(docs))
	}
	for i, doc := range docs {
		if restored[i] != doc {
			t.Errorf("document %d = %+v, want %+v", i, restored[i], doc)
		}
	}
	if exists, _ := env.collections.Exists(ctx, "org_acmenew"); exists {
		t.Error("uncommitted destination not removed after restore")
	}
	if env.markers.has(org.ID) {
		t.Error("marker not cleared")
	}
}

func TestReconcile_CleansUpAfterDeletedOrg(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	orgID := primitive.NewObjectID()
	env.collections.seed("org_ghostnew", fakeDoc{ID: 1})
	seedMarker(env, orgID, "org_ghost", "org_ghostnew")

	if err := env.registry.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if exists, _ := env.collections.Exists(ctx, "org_ghostnew"); exists {
		t.Error("orphaned destination of a deleted org not dropped")
	}
	if env.markers.has(orgID) {
		t.Error("marker not cleared")
	}
}

func TestReconcile_NoMarkersIsANoOp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	if _, err := env.registry.Create(ctx, "acme", "a@x.com", "Secret123"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := env.registry.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if _, err := env.registry.Get(ctx, "acme"); err != nil {
		t.Errorf("Get after no-op reconcile failed: %v", err)
	}
}

func TestReconcile_SurfacesStoreErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	org, err := env.registry.Create(ctx, "acme", "a@x.com", "Secret123")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.collections.seed("org_acmenew", fakeDoc{ID: 1})
	seedMarker(env, org.ID, org.CollectionID, "org_acmenew")
	env.collections.nextDropErr = domain.ErrStorageUnavailable

	if err := env.registry.Reconcile(ctx); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("Reconcile error = %v, want ErrStorageUnavailable", err)
	}
	// The marker survives so the next sweep can retry.
	if !env.markers.has(org.ID) {
		t.Error("marker removed despite failed cleanup")
	}
}
