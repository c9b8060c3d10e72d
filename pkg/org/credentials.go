package org

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tendant/org-mgmt/pkg/auth"
	"github.com/tendant/org-mgmt/pkg/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CredentialStore manages administrator records scoped to an organization.
type CredentialStore struct {
	admins AdminStore
}

// NewCredentialStore creates a credential store over the given admin store.
func NewCredentialStore(admins AdminStore) *CredentialStore {
	return &CredentialStore{admins: admins}
}

// CreateAdmin creates an administrator for the organization. Email uniqueness
// is system-wide: login is by email alone, without an organization hint.
func (s *CredentialStore) CreateAdmin(ctx context.Context, orgID primitive.ObjectID, email, password string) (*domain.Administrator, error) {
	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	admin := &domain.Administrator{
		OrgID:          orgID,
		Email:          normalizeEmail(email),
		PasswordDigest: digest,
		IsSuperAdmin:   true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.admins.Insert(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// VerifyLogin checks an email/password pair. Unknown email and wrong password
// return the identical domain.ErrInvalidCredentials so a caller cannot probe
// which emails exist.
func (s *CredentialStore) VerifyLogin(ctx context.Context, email, password string) (*domain.Administrator, error) {
	admin, err := s.admins.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(password, admin.PasswordDigest) {
		return nil, domain.ErrInvalidCredentials
	}
	return admin, nil
}

// FindByEmail looks up an administrator by email.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.Administrator, error) {
	return s.admins.FindByEmail(ctx, normalizeEmail(email))
}

// FirstForOrg returns the organization's first administrator.
func (s *CredentialStore) FirstForOrg(ctx context.Context, orgID primitive.ObjectID) (*domain.Administrator, error) {
	return s.admins.FindFirstByOrgID(ctx, orgID)
}

// DeleteByOrg removes every administrator owned by the organization.
func (s *CredentialStore) DeleteByOrg(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	return s.admins.DeleteByOrgID(ctx, orgID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
