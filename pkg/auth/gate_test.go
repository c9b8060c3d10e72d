package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tendant/org-mgmt/pkg/domain"
)

func claimsFor(orgID string, expiresIn time.Duration) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
		Email: "a@x.com",
		OrgID: orgID,
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		claims  *Claims
		target  string
		wantErr error
	}{
		{
			name:   "matching org",
			claims: claimsFor("org-a", time.Hour),
			target: "org-a",
		},
		{
			name:    "different org",
			claims:  claimsFor("org-a", time.Hour),
			target:  "org-b",
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "expired token",
			claims:  claimsFor("org-a", -time.Minute),
			target:  "org-a",
			wantErr: domain.ErrTokenExpired,
		},
		{
			name:    "expired token for other org reports expiry first",
			claims:  claimsFor("org-a", -time.Minute),
			target:  "org-b",
			wantErr: domain.ErrTokenExpired,
		},
		{
			name:    "nil claims",
			claims:  nil,
			target:  "org-a",
			wantErr: domain.ErrInvalidToken,
		},
		{
			name:    "missing expiry",
			claims:  &Claims{Email: "a@x.com", OrgID: "org-a"},
			target:  "org-a",
			wantErr: domain.ErrTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.claims, tt.target)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Authorize returned %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
