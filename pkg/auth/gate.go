package auth

import (
	"time"

	"github.com/tendant/org-mgmt/pkg/domain"
)

// Authorize checks that the presented claims permit mutating the target
// organization. There is no role hierarchy beyond organization scoping: the
// claims must name exactly the organization being mutated.
func Authorize(claims *Claims, targetOrgID string) error {
	if claims == nil {
		return domain.ErrInvalidToken
	}
	if exp := claims.ExpiryTime(); exp.IsZero() || time.Now().After(exp) {
		return domain.ErrTokenExpired
	}
	if claims.OrgID != targetOrgID {
		return domain.ErrUnauthorized
	}
	return nil
}
