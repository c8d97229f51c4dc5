package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeAccountNotFound      = "account_not_found"
	TextCodeCompanyNotFound      = "company_not_found"
	TextCodeOfferNotFound        = "offer_not_found"
	TextCodePaymentNotFound      = "payment_not_found"
	TextCodeInvalidCredentials   = "invalid_credentials"
	TextCodeForbidden            = "forbidden"
	TextCodeValidationFailed     = "validation_failed"
	TextCodeEmailTaken           = "email_taken"
	TextCodeUnauthenticated      = "unauthenticated"
	TextCodeTokenExpired         = "token_expired"
	TextCodeTokenMalformed       = "token_malformed"
	TextCodeInvalidConfiguration = "invalid_configuration"
	TextCodeEmptyPassword        = "empty_password"
)

// ErrAccountNotFound is returned when the target account does not exist.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrCompanyNotFound is returned when the caller tenant cannot be resolved.
var ErrCompanyNotFound = errors.New("company not found", errors.CategoryNotFound).
	WithTextCode(TextCodeCompanyNotFound).
	WithCode(errors.CodeNotFound)

// ErrOfferNotFound is returned when an offer does not exist.
var ErrOfferNotFound = errors.New("offer not found", errors.CategoryNotFound).
	WithTextCode(TextCodeOfferNotFound).
	WithCode(errors.CodeNotFound)

// ErrPaymentNotFound is returned when a payment does not exist.
var ErrPaymentNotFound = errors.New("payment not found", errors.CategoryNotFound).
	WithTextCode(TextCodePaymentNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials is the single login failure. Unknown email and
// wrong password both return this exact value.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrForbidden is returned when an authorization check denies an operation.
var ErrForbidden = errors.New("operation not permitted", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrValidationFailed wraps field level validation errors.
var ErrValidationFailed = errors.New("validation failed", errors.CategoryValidation).
	WithTextCode(TextCodeValidationFailed).
	WithCode(errors.CodeBadRequest)

// ErrEmailTaken is returned when an account with the email already exists.
var ErrEmailTaken = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrUnauthenticated is returned when a request carries no usable credential.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiration.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or verification.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidConfiguration is only raised while wiring components at startup.
var ErrInvalidConfiguration = errors.New("invalid configuration", errors.CategoryInternal).
	WithTextCode(TextCodeInvalidConfiguration).
	WithCode(errors.CodeInternal)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// withDetails clones base, keeps it reachable through errors.Is and attaches
// metadata for the HTTP boundary and logs.
func withDetails(base *errors.Error, meta map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Source = base
	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}
	return clone
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed")
}
