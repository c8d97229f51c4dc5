package auth

import (
	"strings"
)

// Operation is the resource operation a decision is made against
type Operation uint8

const (
	OperationCreate Operation = iota + 1
	OperationRead
	OperationUpdate
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "create"
	case OperationRead:
		return "read"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a single authorization check
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// ProfileChangeOperations must all be allowed before a caller can change
// their own password or email.
var ProfileChangeOperations = []Operation{OperationUpdate, OperationCreate, OperationRead}

// TenantAuthorizer allows self service and same tenant actions. The
// operation does not change the rule, every operation is evaluated alike.
type TenantAuthorizer struct{}

var _ Authorizer = TenantAuthorizer{}

func NewTenantAuthorizer() TenantAuthorizer {
	return TenantAuthorizer{}
}

// Authorize returns Allow when the principal is the target account, or when
// both belong to the same non empty tenant.
func (TenantAuthorizer) Authorize(principal Principal, target Target, op Operation) Decision {
	if principal.IsZero() || op < OperationCreate || op > OperationDelete {
		return Deny
	}

	if principal.AccountID == target.ID {
		return Allow
	}

	if principal.HasTenant() && target.TenantID.Valid && principal.TenantID.UUID == target.TenantID.UUID {
		return Allow
	}

	return Deny
}

// Require evaluates every operation on its own and fails with ErrForbidden
// when any of them is denied. An empty operation list is denied.
func (a TenantAuthorizer) Require(principal Principal, target Target, ops ...Operation) error {
	if len(ops) == 0 {
		return withDetails(ErrForbidden, map[string]any{"target": target.ID.String()})
	}

	var denied []string
	for _, op := range ops {
		if a.Authorize(principal, target, op) == Deny {
			denied = append(denied, op.String())
		}
	}

	if len(denied) > 0 {
		return withDetails(ErrForbidden, map[string]any{
			"target":     target.ID.String(),
			"operations": strings.Join(denied, ","),
		})
	}

	return nil
}
