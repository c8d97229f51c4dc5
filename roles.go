package auth

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is the closed set of account roles
type Role uint8

const (
	// RoleUnknown is the zero value and never valid on a persisted account
	RoleUnknown Role = iota
	// RoleCompanyOwner registered the company and owns the tenant
	RoleCompanyOwner
	// RoleEmployee was provisioned by an owner inside the tenant
	RoleEmployee
)

var roleNames = map[Role]string{
	RoleCompanyOwner: "CompanyOwner",
	RoleEmployee:     "Employee",
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}

// ParseRole parses the textual form of a role, case insensitive
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for role, name := range roleNames {
		if strings.EqualFold(name, s) {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Value stores the role by name so the column stays readable
func (r Role) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = RoleUnknown
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}
