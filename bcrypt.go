package auth

import (
	"context"
	"errors"
	"runtime"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptHasher hashes passwords with bcrypt on a bounded set of worker
// goroutines so callers can give up waiting when their context ends.
type BcryptHasher struct {
	cost    int
	workers *semaphore.Weighted
	logger  Logger
}

var (
	_ PasswordHasher = (*BcryptHasher)(nil)
	_ RandomDigester = (*BcryptHasher)(nil)
)

type BcryptOption func(*BcryptHasher)

// WithBcryptCost overrides the work factor. Out of range values are ignored.
func WithBcryptCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithBcryptWorkers bounds the number of concurrent hash operations
func WithBcryptWorkers(n int) BcryptOption {
	return func(h *BcryptHasher) {
		if n > 0 {
			h.workers = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithBcryptLogger(logger Logger) BcryptOption {
	return func(h *BcryptHasher) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{
		cost:    passwordHashCost(),
		workers: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		logger:  defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Hash will generate a password hash
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	var digest []byte
	err := h.run(ctx, func() error {
		var err error
		digest, err = bcrypt.GenerateFromPassword([]byte(password), h.cost)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled while hashing password")
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return string(digest), nil
}

// Verify checks the cleartext password against the digest. A malformed
// digest is reported as a failed verification, never as an error.
func (h *BcryptHasher) Verify(ctx context.Context, digest, password string) (PasswordVerification, error) {
	var cmpErr error
	err := h.run(ctx, func() error {
		cmpErr = bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
		return nil
	})
	if err != nil {
		return PasswordVerificationFailed, err
	}

	if cmpErr != nil {
		if !errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
			h.logger.Warn("password digest could not be compared", "error", cmpErr)
		}
		return PasswordVerificationFailed, nil
	}

	return PasswordVerificationSuccess, nil
}

func (h *BcryptHasher) run(ctx context.Context, fn func() error) error {
	if err := h.workers.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer h.workers.Release(1)
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RandomPasswordHash returns a digest nobody knows the password for. Logins
// for unknown emails verify against it.
func (h *BcryptHasher) RandomPasswordHash(ctx context.Context) (string, error) {
	return h.Hash(ctx, uuid.NewString())
}
