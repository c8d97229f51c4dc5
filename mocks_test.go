package auth_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/database"
)

const testSigningKey = "test-signing-key-with-at-least-32-bytes"

type tokenConfig struct {
	key    string
	issuer string
	days   int
}

func (c tokenConfig) GetSigningKey() string       { return c.key }
func (c tokenConfig) GetIssuer() string           { return c.issuer }
func (c tokenConfig) GetTokenExpirationDays() int { return c.days }

func newTokenConfig() tokenConfig {
	return tokenConfig{key: testSigningKey, issuer: "jobboard-test", days: 15}
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) { m.Called(format, args) }
func (m *MockLogger) Info(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Warn(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Error(format string, args ...any) { m.Called(format, args) }

// recordingLogger keeps every rendered line
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) record(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprint(level, " ", msg, " ", fmt.Sprint(args...)))
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.record("DBG", msg, args) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.record("INF", msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record("WRN", msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record("ERR", msg, args) }

func (r *recordingLogger) contains(s string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

// MockHasher implements auth.PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(ctx context.Context, password string) (string, error) {
	args := m.Called(ctx, password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(ctx context.Context, digest, password string) (auth.PasswordVerification, error) {
	args := m.Called(ctx, digest, password)
	return args.Get(0).(auth.PasswordVerification), args.Error(1)
}

// fixture is a migrated in memory store with the services wired
type fixture struct {
	db       *bun.DB
	repo     auth.RepositoryManager
	tokens   *auth.TokenService
	accounts *auth.AccountService
	offers   *auth.OfferService
	payments *auth.PaymentService
	logger   *recordingLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := &recordingLogger{}

	_, err = auth.Migrate(ctx, db, logger)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(newTokenConfig(), auth.WithTokenLogger(logger))
	require.NoError(t, err)

	repo := auth.NewRepositoryManager(db)
	hasher := auth.NewBcryptHasher(auth.WithBcryptCost(bcrypt.MinCost), auth.WithBcryptLogger(logger))

	return &fixture{
		db:       db,
		repo:     repo,
		tokens:   tokens,
		accounts: auth.NewAccountService(repo, hasher, tokens, auth.WithAccountLogger(logger)),
		offers:   auth.NewOfferService(repo).WithLogger(logger),
		payments: auth.NewPaymentService(repo).WithLogger(logger),
		logger:   logger,
	}
}

func companyInfo() *auth.CompanyInfo {
	return &auth.CompanyInfo{
		Name:  "Acme",
		Nip:   "1234567890",
		Regon: "123456789",
		Phone: "+48 601 234 567",
		Address: auth.AddressInfo{
			Country:        "Poland",
			City:           "Krakow",
			Street:         "Florianska",
			BuildingNumber: "12",
			PostalCode:     "31-019",
		},
	}
}

// registerOwner registers an owner with a company and returns its principal
func (f *fixture) registerOwner(t *testing.T, email string) auth.Principal {
	t.Helper()
	ctx := context.Background()

	_, err := f.accounts.RegisterCompanyAccount(ctx, auth.RegisterCompanyAccountMessage{
		Name:        "Jan",
		LastName:    "Kowalski",
		Email:       email,
		Password:    "secret",
		CompanyInfo: companyInfo(),
	})
	require.NoError(t, err)

	return f.login(t, email, "secret")
}

func (f *fixture) registerEmployee(t *testing.T, owner auth.Principal, email string) auth.Principal {
	t.Helper()

	_, err := f.accounts.RegisterEmployee(context.Background(), owner, auth.RegisterEmployeeMessage{
		Name:     "Anna",
		LastName: "Nowak",
		Email:    email,
		Password: "secret",
	})
	require.NoError(t, err)

	return f.login(t, email, "secret")
}

func (f *fixture) login(t *testing.T, email, password string) auth.Principal {
	t.Helper()

	token, err := f.accounts.Login(context.Background(), email, password)
	require.NoError(t, err)

	principal, err := f.tokens.Validate(token)
	require.NoError(t, err)
	return principal
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()

	var n int
	err := f.db.NewSelect().
		TableExpr(table).
		ColumnExpr("count(*)").
		Scan(context.Background(), &n)
	require.NoError(t, err)
	return n
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
