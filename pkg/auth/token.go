package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tendant/org-mgmt/pkg/domain"
)

// DefaultTokenTTL matches the original deployment default of two hours.
const DefaultTokenTTL = 2 * time.Hour

// Claims is the verified payload of an access token. Possession of valid,
// unexpired claims for an organization is the sole authorization basis for
// mutating that organization.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	OrgID string `json:"org_id"`
}

// ExpiryTime returns the token expiry, or the zero time if unset.
func (c *Claims) ExpiryTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenConfig holds token service configuration.
type TokenConfig struct {
	Secret    []byte
	Algorithm string // HS256, HS384 or HS512
	TTL       time.Duration
	Issuer    string
}

// TokenService issues and verifies access tokens.
type TokenService struct {
	config TokenConfig
	method jwt.SigningMethod
}

// NewTokenService creates a token service. Only HMAC signing methods are
// accepted; anything else is a configuration error.
func NewTokenService(config TokenConfig) (*TokenService, error) {
	if len(config.Secret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if config.Algorithm == "" {
		config.Algorithm = "HS256"
	}
	if config.TTL == 0 {
		config.TTL = DefaultTokenTTL
	}

	method := jwt.GetSigningMethod(config.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", config.Algorithm)
	}

	return &TokenService{config: config, method: method}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs a token for the given admin email and organization id.
func (s *TokenService) Issue(email, orgID string) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
		},
		Email: email,
		OrgID: orgID,
	}

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify parses and validates a token string, returning its claims.
// Expired tokens report domain.ErrTokenExpired; every other failure is
// domain.ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.config.Secret, nil
	}, jwt.WithValidMethods([]string{s.config.Algorithm}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
