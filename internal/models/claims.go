package models

import "github.com/golang-jwt/jwt/v5"

// Caller roles accepted on the referral endpoints
const (
	RoleService = "service"
	RoleAdmin   = "admin"
)

// ServiceClaims are carried by tokens issued to internal callers such as the
// order service that settles purchases.
type ServiceClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// HasRole checks the caller role against the allowed set.
func (c *ServiceClaims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
