package auth

import "time"

// TokenValidator validates tokens and resolves the principal without tying
// callers to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (Principal, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (Principal, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (Principal, error) {
	if f == nil {
		return Principal{}, ErrTokenMalformed
	}
	return f(tokenString)
}

// MultiTokenValidator tries validators in order until one succeeds. It is
// used to keep tokens signed with a retired key valid until they expire.
// Malformed errors move on to the next validator, any other error is final.
type MultiTokenValidator struct {
	validators []TokenValidator
}

var _ TokenValidator = (*MultiTokenValidator)(nil)

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Validate satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Validate(tokenString string) (Principal, error) {
	var lastErr error
	for _, v := range m.validators {
		principal, err := v.Validate(tokenString)
		if err == nil {
			return principal, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return Principal{}, err
	}
	if lastErr != nil {
		return Principal{}, lastErr
	}
	return Principal{}, ErrTokenMalformed
}

// NewRotatingTokenValidator validates with the active service first and
// then with one service per retired signing key.
func NewRotatingTokenValidator(active *TokenService, retiredKeys []string, opts ...TokenServiceOption) (*MultiTokenValidator, error) {
	validators := []TokenValidator{active}
	for _, key := range retiredKeys {
		if key == "" {
			continue
		}
		retired, err := NewTokenService(StaticTokenConfig{
			SigningKey:     key,
			Issuer:         active.issuer,
			ExpirationDays: int(active.expiration / (24 * time.Hour)),
		}, opts...)
		if err != nil {
			return nil, err
		}
		validators = append(validators, retired)
	}
	return NewMultiTokenValidator(validators...), nil
}
