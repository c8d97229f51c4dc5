package auth

import "github.com/google/uuid"

// Principal is the authenticated identity of a single request. It is
// resolved once from the bearer token and passed explicitly afterwards.
type Principal struct {
	AccountID uuid.UUID     `json:"accountId"`
	TenantID  uuid.NullUUID `json:"tenantId"`
	Role      Role          `json:"role"`
	Name      string        `json:"name"`
	Surname   string        `json:"surname"`
	Email     string        `json:"email"`
}

// IsZero reports whether no account is bound to the principal
func (p Principal) IsZero() bool {
	return p.AccountID == uuid.Nil
}

// HasTenant reports whether the principal belongs to a company
func (p Principal) HasTenant() bool {
	return p.TenantID.Valid && p.TenantID.UUID != uuid.Nil
}

// Self is the principal's own account as an authorization target
func (p Principal) Self() Target {
	return Target{ID: p.AccountID, TenantID: p.TenantID}
}
