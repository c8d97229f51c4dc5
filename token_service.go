package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// MinSigningKeyLength is the shortest HMAC-SHA256 secret we accept
const MinSigningKeyLength = 32

// TokenService issues and validates HS256 tokens. It holds no state
// besides its configuration, so tokens stay valid until they expire.
type TokenService struct {
	signingKey []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
	logger     Logger
}

var (
	_ TokenIssuer    = (*TokenService)(nil)
	_ TokenValidator = (*TokenService)(nil)
)

type TokenServiceOption func(*TokenService)

func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithTokenClock overrides the clock used for issuance and expiry checks
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTokenService creates a new TokenService. It fails with
// ErrInvalidConfiguration when the secret is missing or too short.
func NewTokenService(cfg TokenConfig, opts ...TokenServiceOption) (*TokenService, error) {
	if cfg == nil {
		return nil, withDetails(ErrInvalidConfiguration, map[string]any{"reason": "token config is required"})
	}

	key := cfg.GetSigningKey()
	if strings.TrimSpace(key) == "" {
		return nil, withDetails(ErrInvalidConfiguration, map[string]any{"reason": "signing key is required"})
	}

	if len(key) < MinSigningKeyLength {
		return nil, withDetails(ErrInvalidConfiguration, map[string]any{
			"reason":     "signing key is too short",
			"min_length": MinSigningKeyLength,
		})
	}

	if strings.TrimSpace(cfg.GetIssuer()) == "" {
		return nil, withDetails(ErrInvalidConfiguration, map[string]any{"reason": "issuer is required"})
	}

	days := cfg.GetTokenExpirationDays()
	if days < 1 {
		return nil, withDetails(ErrInvalidConfiguration, map[string]any{
			"reason": "token expiration must be at least one day",
			"days":   days,
		})
	}

	ts := &TokenService{
		signingKey: []byte(key),
		issuer:     cfg.GetIssuer(),
		expiration: time.Duration(days) * 24 * time.Hour,
		now:        time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// Issue creates a signed token for the principal. The issuer doubles as
// the audience.
func (ts *TokenService) Issue(principal Principal) (string, error) {
	if principal.IsZero() {
		return "", errors.New("principal must have an account id", errors.CategoryBadInput)
	}

	now := ts.now()
	claims := NewJWTClaims(principal)
	claims.Issuer = ts.issuer
	claims.Audience = jwt.ClaimStrings{ts.issuer}
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ts.expiration))

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate checks algorithm, signature, issuer, audience and expiry and
// returns the principal the token was issued for.
func (ts *TokenService) Validate(tokenString string) (Principal, error) {
	claims, err := ts.ParseClaims(tokenString)
	if err != nil {
		return Principal{}, err
	}
	return claims.Principal()
}

// ParseClaims verifies the token and returns its raw claims
func (ts *TokenService) ParseClaims(tokenString string) (*JWTClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ts.issuer),
		jwt.WithAudience(ts.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("TokenService rejected token", "error", err)
		return nil, withDetails(ErrTokenMalformed, map[string]any{"reason": err.Error()})
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}
