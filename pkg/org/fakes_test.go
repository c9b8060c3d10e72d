package org

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory store implementations mirroring the MongoDB repositories'
// contracts, with one-shot error injection for failure-path tests.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOrgStore struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]domain.Organization
	insertErr error
}

func newFakeOrgStore() *fakeOrgStore {
	return &fakeOrgStore{byID: make(map[primitive.ObjectID]domain.Organization)}
}

func (s *fakeOrgStore) Insert(ctx context.Context, org *domain.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErr; err != nil {
		s.insertErr = nil
		return err
	}
	for _, existing := range s.byID {
		if existing.Name == org.Name {
			return domain.ErrDuplicateName
		}
	}
	org.ID = primitive.NewObjectID()
	s.byID[org.ID] = *org
	return nil
}

func (s *fakeOrgStore) FindByName(ctx context.Context, name string) (*domain.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Name == name {
			cp := existing
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeOrgStore) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := existing
	return &cp, nil
}

func (s *fakeOrgStore) UpdateCAS(ctx context.Context, org *domain.Organization, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[org.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrConflict
	}
	for id, existing := range s.byID {
		if id != org.ID && existing.Name == org.Name {
			return domain.ErrDuplicateName
		}
	}
	org.Version = expectedVersion + 1
	s.byID[org.ID] = *org
	return nil
}

func (s *fakeOrgStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// bumpVersion simulates a concurrent committed update on the stored record.
func (s *fakeOrgStore) bumpVersion(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.byID[id]
	existing.Version++
	s.byID[id] = existing
}

type fakeAdminStore struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]domain.Administrator
	insertErr error
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{byID: make(map[primitive.ObjectID]domain.Administrator)}
}

func (s *fakeAdminStore) Insert(ctx context.Context, admin *domain.Administrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErr; err != nil {
		s.insertErr = nil
		return err
	}
	for _, existing := range s.byID {
		if existing.Email == admin.Email {
			return domain.ErrDuplicateEmail
		}
	}
	admin.ID = primitive.NewObjectID()
	s.byID[admin.ID] = *admin
	return nil
}

func (s *fakeAdminStore) FindByEmail(ctx context.Context, email string) (*domain.Administrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == email {
			cp := existing
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeAdminStore) FindFirstByOrgID(ctx context.Context, orgID primitive.ObjectID) (*domain.Administrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first *domain.Administrator
	for _, existing := range s.byID {
		if existing.OrgID != orgID {
			continue
		}
		if first == nil || existing.CreatedAt.Before(first.CreatedAt) {
			cp := existing
			first = &cp
		}
	}
	if first == nil {
		return nil, domain.ErrNotFound
	}
	return first, nil
}

func (s *fakeAdminStore) DeleteByOrgID(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, existing := range s.byID {
		if existing.OrgID == orgID {
			delete(s.byID, id)
			removed++
		}
	}
	return removed, nil
}

type fakeDoc struct {
	ID   int
	Body string
}

type fakeCollectionStore struct {
	mu          sync.Mutex
	collections map[domain.CollectionID][]fakeDoc

	nextCreateErr error
	nextCopyErr   error
	nextDropErr   error
	// copyShortfall drops this many documents from the next copy, simulating
	// a partial copy that the count verification must catch.
	copyShortfall int
}

func newFakeCollectionStore() *fakeCollectionStore {
	return &fakeCollectionStore{collections: make(map[domain.CollectionID][]fakeDoc)}
}

func (s *fakeCollectionStore) Create(ctx context.Context, id domain.CollectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nextCreateErr; err != nil {
		s.nextCreateErr = nil
		return err
	}
	if _, ok := s.collections[id]; ok {
		return domain.ErrCollectionExists
	}
	s.collections[id] = nil
	return nil
}

func (s *fakeCollectionStore) Drop(ctx context.Context, id domain.CollectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nextDropErr; err != nil {
		s.nextDropErr = nil
		return err
	}
	delete(s.collections, id)
	return nil
}

func (s *fakeCollectionStore) Exists(ctx context.Context, id domain.CollectionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collections[id]
	return ok, nil
}

func (s *fakeCollectionStore) Copy(ctx context.Context, src, dst domain.CollectionID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nextCopyErr; err != nil {
		s.nextCopyErr = nil
		return 0, err
	}
	docs := s.collections[src]
	n := len(docs)
	if s.copyShortfall > 0 {
		n -= s.copyShortfall
		if n < 0 {
			n = 0
		}
		s.copyShortfall = 0
	}
	s.collections[dst] = append(s.collections[dst], docs[:n]...)
	return int64(n), nil
}

func (s *fakeCollectionStore) Count(ctx context.Context, id domain.CollectionID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.collections[id])), nil
}

func (s *fakeCollectionStore) seed(id domain.CollectionID, docs ...fakeDoc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[id] = append(s.collections[id], docs...)
}

func (s *fakeCollectionStore) docs(id domain.CollectionID) []fakeDoc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fakeDoc(nil), s.collections[id]...)
}

type fakeMarkerStore struct {
	mu      sync.Mutex
	markers map[primitive.ObjectID]domain.MigrationMarker
}

func newFakeMarkerStore() *fakeMarkerStore {
	return &fakeMarkerStore{markers: make(map[primitive.ObjectID]domain.MigrationMarker)}
}

func (s *fakeMarkerStore) Put(ctx context.Context, marker *domain.MigrationMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[marker.OrgID] = *marker
	return nil
}

func (s *fakeMarkerStore) Delete(ctx context.Context, orgID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, orgID)
	return nil
}

func (s *fakeMarkerStore) List(ctx context.Context) ([]domain.MigrationMarker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MigrationMarker, 0, len(s.markers))
	for _, marker := range s.markers {
		out = append(out, marker)
	}
	return out, nil
}

func (s *fakeMarkerStore) has(orgID primitive.ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.markers[orgID]
	return ok
}
