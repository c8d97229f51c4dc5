package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTClaims carries the account identity at the time the token was issued
type JWTClaims struct {
	jwt.RegisteredClaims
	TenantID   string `json:"tid,omitempty"`
	Name       string `json:"name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Email      string `json:"email,omitempty"`
	UserRole   string `json:"role,omitempty"`
}

// NewJWTClaims snapshots the principal into claims. Registered claims other
// than the subject are filled in by the issuer.
func NewJWTClaims(p Principal) *JWTClaims {
	c := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: p.AccountID.String(),
		},
		Name:       p.Name,
		FamilyName: p.Surname,
		Email:      p.Email,
		UserRole:   p.Role.String(),
	}
	if p.HasTenant() {
		c.TenantID = p.TenantID.UUID.String()
	}
	return c
}

// Principal resolves the claims back into a request identity
func (c *JWTClaims) Principal() (Principal, error) {
	id, err := uuid.Parse(c.RegisteredClaims.Subject)
	if err != nil || id == uuid.Nil {
		return Principal{}, withDetails(ErrTokenMalformed, map[string]any{"claim": "sub"})
	}

	role, err := ParseRole(c.UserRole)
	if err != nil {
		return Principal{}, withDetails(ErrTokenMalformed, map[string]any{"claim": "role"})
	}

	p := Principal{
		AccountID: id,
		Role:      role,
		Name:      c.Name,
		Surname:   c.FamilyName,
		Email:     c.Email,
	}

	if c.TenantID != "" {
		tid, err := uuid.Parse(c.TenantID)
		if err != nil {
			return Principal{}, withDetails(ErrTokenMalformed, map[string]any{"claim": "tid"})
		}
		p.TenantID = uuid.NullUUID{UUID: tid, Valid: true}
	}

	return p, nil
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
