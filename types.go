package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenConfig holds the token signing options
type TokenConfig interface {
	GetSigningKey() string
	GetIssuer() string
	GetTokenExpirationDays() int
}

// StaticTokenConfig is a TokenConfig with fixed values
type StaticTokenConfig struct {
	SigningKey     string
	Issuer         string
	ExpirationDays int
}

func (c StaticTokenConfig) GetSigningKey() string       { return c.SigningKey }
func (c StaticTokenConfig) GetIssuer() string           { return c.Issuer }
func (c StaticTokenConfig) GetTokenExpirationDays() int { return c.ExpirationDays }

// PasswordVerification is the outcome of comparing a password with a digest
type PasswordVerification uint8

const (
	PasswordVerificationFailed PasswordVerification = iota
	PasswordVerificationSuccess
)

func (v PasswordVerification) String() string {
	if v == PasswordVerificationSuccess {
		return "success"
	}
	return "failed"
}

// PasswordHasher hashes and verifies account passwords
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, digest, password string) (PasswordVerification, error)
}

// RandomDigester produces a digest nobody knows the password for
type RandomDigester interface {
	RandomPasswordHash(ctx context.Context) (string, error)
}

// TokenIssuer mints signed tokens for a principal
type TokenIssuer interface {
	Issue(principal Principal) (string, error)
}

// Authorizer decides whether a principal may run an operation on a target
type Authorizer interface {
	Authorize(principal Principal, target Target, op Operation) Decision
	Require(principal Principal, target Target, ops ...Operation) error
}

// Target is the account an operation is evaluated against
type Target struct {
	ID       uuid.UUID
	TenantID uuid.NullUUID
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Print("[ERR] AUTH " + line(format, args))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Print("[WRN] AUTH " + line(format, args))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Print("[INF] AUTH " + line(format, args))
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Print("[DBG] AUTH " + line(format, args))
}

// line renders printf style messages as is and appends key=value pairs
// otherwise.
func line(format string, args []any) string {
	if strings.Contains(format, "%") {
		return newline(fmt.Sprintf(format, args...))
	}

	var b strings.Builder
	b.WriteString(format)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
