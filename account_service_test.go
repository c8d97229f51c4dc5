package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-jobboard-auth"
)

func TestAccountService_RegisterLoginScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.accounts.RegisterCompanyAccount(ctx, auth.RegisterCompanyAccountMessage{
		Name:     "Jan",
		LastName: "Kowalski",
		Email:    "jan@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	token, err := f.accounts.Login(ctx, "jan@example.com", "secret")
	require.NoError(t, err)

	principal, err := f.tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, principal.AccountID)
	assert.Equal(t, auth.RoleCompanyOwner, principal.Role)
	assert.False(t, principal.HasTenant())

	_, wrongPassword := f.accounts.Login(ctx, "jan@example.com", "wrong")
	_, unknownEmail := f.accounts.Login(ctx, "nobody@example.com", "secret")

	assert.Same(t, auth.ErrInvalidCredentials, wrongPassword)
	assert.Same(t, auth.ErrInvalidCredentials, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAccountService_LoginIsCaseInsensitiveOnEmail(t *testing.T) {
	f := newFixture(t)
	f.registerOwner(t, "Mixed.Case@Example.com")

	principal := f.login(t, "mixed.case@example.com", "secret")
	assert.Equal(t, "mixed.case@example.com", principal.Email)
}

func TestAccountService_PasswordNeverLogged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerOwner(t, "jan@example.com")
	_, _ = f.accounts.Login(ctx, "jan@example.com", "hunter2-wrong")
	_, _ = f.accounts.Login(ctx, "ghost@example.com", "hunter2-ghost")

	assert.True(t, f.logger.contains("jan@example.com"))
	assert.False(t, f.logger.contains("hunter2"))
	assert.False(t, f.logger.contains("secret"))
}

func TestAccountService_RegisterWithCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.registerOwner(t, "owner@example.com")
	require.True(t, owner.HasTenant())

	details, err := f.accounts.GetCompany(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Acme", details.Company.Name)
	assert.Equal(t, "+48601234567", details.Company.Phone)
	assert.Equal(t, details.Company.AddressID, details.Address.ID)
	assert.Equal(t, "Krakow", details.Address.City)
}

func TestAccountService_RegisterIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info := companyInfo()
	info.Nip = "bad"

	_, err := f.accounts.RegisterCompanyAccount(ctx, auth.RegisterCompanyAccountMessage{
		Name:        "Jan",
		LastName:    "Kowalski",
		Email:       "jan@example.com",
		Password:    "secret",
		CompanyInfo: info,
	})
	require.ErrorIs(t, err, auth.ErrValidationFailed)

	for _, table := range []string{"accounts", "companies", "addresses"} {
		assert.Zero(t, f.count(t, table), table)
	}

	_, err = f.accounts.Login(ctx, "jan@example.com", "secret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAccountService_RegisterRollsBackOnConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerOwner(t, "taken@example.com")

	_, err := f.accounts.RegisterCompanyAccount(ctx, auth.RegisterCompanyAccountMessage{
		Name:        "Other",
		LastName:    "Owner",
		Email:       "TAKEN@example.com",
		Password:    "secret",
		CompanyInfo: companyInfo(),
	})
	require.ErrorIs(t, err, auth.ErrEmailTaken)

	assert.Equal(t, 1, f.count(t, "companies"))
}

func TestAccountService_RegisterEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.registerOwner(t, "owner@example.com")
	employee := f.registerEmployee(t, owner, "anna@example.com")

	assert.Equal(t, auth.RoleEmployee, employee.Role)
	assert.Equal(t, owner.TenantID, employee.TenantID)

	account, err := f.accounts.GetAccount(ctx, owner, employee.AccountID)
	require.NoError(t, err)
	assert.Equal(t, uuid.NullUUID{UUID: owner.AccountID, Valid: true}, account.CreatedByID)
	assert.Equal(t, "Anna", account.Name)

	accounts, err := f.accounts.ListCompanyAccounts(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	fromEmployee, err := f.accounts.ListCompanyAccounts(ctx, employee)
	require.NoError(t, err)
	assert.Len(t, fromEmployee, 2)
}

func TestAccountService_RegisterEmployeeRequiresTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.RegisterCompanyAccount(ctx, auth.RegisterCompanyAccountMessage{
		Name:     "Solo",
		LastName: "Owner",
		Email:    "solo@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	solo := f.login(t, "solo@example.com", "secret")

	msg := auth.RegisterEmployeeMessage{Name: "Anna", LastName: "Nowak", Email: "anna@example.com", Password: "secret"}

	_, err = f.accounts.RegisterEmployee(ctx, solo, msg)
	assert.ErrorIs(t, err, auth.ErrCompanyNotFound)

	_, err = f.accounts.RegisterEmployee(ctx, auth.Principal{}, msg)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestAccountService_RegisterEmployeeOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.registerOwner(t, "owner@example.com")
	employee := f.registerEmployee(t, owner, "anna@example.com")

	_, err := f.accounts.RegisterEmployee(ctx, employee, auth.RegisterEmployeeMessage{
		Name:     "Ewa",
		LastName: "Nowak",
		Email:    "ewa@example.com",
		Password: "secret",
	})
	assert.ErrorIs(t, err, auth.ErrForbidden)
	assert.Equal(t, 2, f.count(t, "accounts"))
	assert.True(t, f.logger.contains("employee registration denied"))
}

func TestAccountService_HashidIDsDoNotFollowEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	accounts := auth.NewAccountService(f.repo, newTestHasher(), f.tokens, auth.WithHashidAccountIDs(true))
	msg := auth.RegisterCompanyAccountMessage{
		Name:     "Jan",
		LastName: "Kowalski",
		Email:    "a@example.com",
		Password: "secret",
	}

	first, err := accounts.RegisterCompanyAccount(ctx, msg)
	require.NoError(t, err)

	principal := f.login(t, "a@example.com", "secret")
	require.NoError(t, accounts.ChangeEmail(ctx, principal, "moved@example.com"))

	second, err := accounts.RegisterCompanyAccount(ctx, msg)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	f.login(t, "moved@example.com", "secret")
	f.login(t, "a@example.com", "secret")
}

func TestAccountService_TimingDigestPreparedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hasher := &countingHasher{PasswordHasher: newTestHasher()}
	accounts := auth.NewAccountService(f.repo, hasher, f.tokens)
	require.Equal(t, 1, hasher.random)

	for i := 0; i < 3; i++ {
		_, err := accounts.Login(ctx, "ghost@example.com", "secret")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}

	assert.Equal(t, 1, hasher.random)
	assert.Equal(t, 3, hasher.verified)
	assert.NotEmpty(t, hasher.lastDigest)
}

func TestAccountService_ListCompanies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acme := f.registerOwner(t, "acme@example.com")
	f.registerOwner(t, "globex@example.com")
	f.registerOwner(t, "initech@example.com")

	page, err := f.accounts.ListCompanies(ctx, acme, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Companies, 3)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, auth.DefaultPageSize, page.Limit)

	page, err = f.accounts.ListCompanies(ctx, acme, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Companies, 1)
	assert.Equal(t, 3, page.Total)

	page, err = f.accounts.ListCompanies(ctx, acme, 1000, -1)
	require.NoError(t, err)
	assert.Equal(t, auth.MaxPageSize, page.Limit)
	assert.Zero(t, page.Offset)

	_, err = f.accounts.ListCompanies(ctx, auth.Principal{}, 0, 0)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestAccountService_GetAccountAcrossTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acme := f.registerOwner(t, "acme@example.com")
	globex := f.registerOwner(t, "globex@example.com")

	_, existing := f.accounts.GetAccount(ctx, acme, globex.AccountID)
	_, missing := f.accounts.GetAccount(ctx, acme, uuid.New())

	assert.ErrorIs(t, existing, auth.ErrAccountNotFound)
	assert.ErrorIs(t, missing, auth.ErrAccountNotFound)
	assert.NotErrorIs(t, existing, auth.ErrForbidden)
	assert.Equal(t, missing.Error(), existing.Error())
	assert.True(t, f.logger.contains("account access denied"))

	self, err := f.accounts.GetAccount(ctx, acme, acme.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "acme@example.com", self.Email)
}

func TestAccountService_GetProfile(t *testing.T) {
	f := newFixture(t)
	owner := f.registerOwner(t, "owner@example.com")

	profile, err := f.accounts.GetProfile(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, &auth.Profile{
		Name:     "Jan",
		LastName: "Kowalski",
		Email:    "owner@example.com",
		Role:     auth.RoleCompanyOwner,
	}, profile)

	_, err = f.accounts.GetProfile(context.Background(), auth.Principal{})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestAccountService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.registerOwner(t, "owner@example.com")

	require.NoError(t, f.accounts.ChangePassword(ctx, owner, "new-secret"))

	_, err := f.accounts.Login(ctx, "owner@example.com", "secret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	f.login(t, "owner@example.com", "new-secret")

	err = f.accounts.ChangePassword(ctx, owner, "")
	assert.ErrorIs(t, err, auth.ErrValidationFailed)

	err = f.accounts.ChangePassword(ctx, owner, strings.Repeat("x", 73))
	assert.ErrorIs(t, err, auth.ErrValidationFailed)
}

func TestAccountService_ChangeEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.registerOwner(t, "owner@example.com")
	f.registerEmployee(t, owner, "anna@example.com")

	require.NoError(t, f.accounts.ChangeEmail(ctx, owner, "boss@example.com"))
	f.login(t, "boss@example.com", "secret")

	require.NoError(t, f.accounts.ChangeEmail(ctx, owner, "BOSS@example.com"), "unchanged email is a no-op")

	err := f.accounts.ChangeEmail(ctx, owner, "anna@example.com")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	err = f.accounts.ChangeEmail(ctx, owner, "not-an-email")
	assert.ErrorIs(t, err, auth.ErrValidationFailed)
}

func TestAccountService_ProfileChangeRequiresEveryOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.registerOwner(t, "owner@example.com")

	authorizer := &partialAuthorizer{deny: auth.OperationCreate}
	accounts := auth.NewAccountService(f.repo, newTestHasher(), f.tokens, auth.WithAuthorizer(authorizer))

	err := accounts.ChangePassword(ctx, owner, "new-secret")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	err = accounts.ChangeEmail(ctx, owner, "new@example.com")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	f.login(t, "owner@example.com", "secret")
}

func TestAccountService_DeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.registerOwner(t, "owner@example.com")
	employee := f.registerEmployee(t, owner, "anna@example.com")
	other := f.registerOwner(t, "other@example.com")

	t.Run("other tenant sees not found", func(t *testing.T) {
		err := f.accounts.DeleteAccount(ctx, other, &employee.AccountID)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
		assert.NotErrorIs(t, err, auth.ErrForbidden)
		f.login(t, "anna@example.com", "secret")
	})

	t.Run("unknown account is not found", func(t *testing.T) {
		missing := uuid.New()
		err := f.accounts.DeleteAccount(ctx, owner, &missing)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("owner removes employee", func(t *testing.T) {
		require.NoError(t, f.accounts.DeleteAccount(ctx, owner, &employee.AccountID))
		_, err := f.accounts.Login(ctx, "anna@example.com", "secret")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("nil target deletes the caller", func(t *testing.T) {
		require.NoError(t, f.accounts.DeleteAccount(ctx, other, nil))
		_, err := f.accounts.GetProfile(ctx, other)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("deleting twice is not found", func(t *testing.T) {
		err := f.accounts.DeleteAccount(ctx, other, nil)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})
}

func TestAccountService_DeleteCompanyCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.registerOwner(t, "owner@example.com")
	employee := f.registerEmployee(t, owner, "anna@example.com")
	survivor := f.registerOwner(t, "survivor@example.com")

	offerID, err := f.offers.CreateOffer(ctx, owner, auth.CreateOfferMessage{Name: "Go developer", Description: "Remote"})
	require.NoError(t, err)
	_, err = f.offers.Apply(ctx, offerID, auth.ApplyMessage{Name: "Ola", LastName: "Lis", Email: "ola@example.com"})
	require.NoError(t, err)
	_, err = f.payments.CreatePayment(ctx, owner, auth.CreatePaymentMessage{Amount: 1000})
	require.NoError(t, err)
	_, err = f.payments.CreatePayment(ctx, survivor, auth.CreatePaymentMessage{Amount: 500})
	require.NoError(t, err)

	err = f.accounts.DeleteCompany(ctx, employee)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	require.NoError(t, f.accounts.DeleteCompany(ctx, owner))

	counts := map[string]int{"accounts": 1, "companies": 1, "addresses": 1, "offers": 0, "job_applications": 0, "payments": 1}
	for table, want := range counts {
		assert.Equal(t, want, f.count(t, table), table)
	}

	_, err = f.accounts.GetCompany(ctx, owner)
	assert.ErrorIs(t, err, auth.ErrCompanyNotFound)

	_, err = f.accounts.GetCompany(ctx, survivor)
	assert.NoError(t, err)

	err = f.accounts.DeleteCompany(ctx, owner)
	assert.ErrorIs(t, err, auth.ErrCompanyNotFound)
}

func TestAccountService_LoginHasherFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerOwner(t, "owner@example.com")

	hasher := &MockHasher{}
	hasher.On("Verify", mock.Anything, mock.Anything, "secret").
		Return(auth.PasswordVerificationFailed, context.DeadlineExceeded).Once()

	accounts := auth.NewAccountService(f.repo, hasher, f.tokens)
	_, err := accounts.Login(ctx, "owner@example.com", "secret")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	hasher.AssertExpectations(t)
}

// partialAuthorizer allows everything except one operation
type partialAuthorizer struct {
	deny auth.Operation
}

func (p *partialAuthorizer) Authorize(principal auth.Principal, target auth.Target, op auth.Operation) auth.Decision {
	if op == p.deny {
		return auth.Deny
	}
	return auth.NewTenantAuthorizer().Authorize(principal, target, op)
}

func (p *partialAuthorizer) Require(principal auth.Principal, target auth.Target, ops ...auth.Operation) error {
	for _, op := range ops {
		if p.Authorize(principal, target, op) == auth.Deny {
			return auth.ErrForbidden
		}
	}
	return nil
}

// countingHasher records digest preparation and verification
type countingHasher struct {
	auth.PasswordHasher
	random     int
	verified   int
	lastDigest string
}

func (h *countingHasher) RandomPasswordHash(ctx context.Context) (string, error) {
	h.random++
	return h.Hash(ctx, uuid.NewString())
}

func (h *countingHasher) Verify(ctx context.Context, digest, password string) (auth.PasswordVerification, error) {
	h.verified++
	h.lastDigest = digest
	return h.PasswordHasher.Verify(ctx, digest, password)
}
