package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountService registers accounts, authenticates them and gates every
// profile mutation through the Authorizer.
type AccountService struct {
	repo        RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	authorizer  Authorizer
	logger      Logger
	phoneRegion string
	useHashid   bool

	// timingDigest is verified against when the login email is unknown
	timingDigest string
}

type AccountServiceOption func(*AccountService)

func WithAuthorizer(authorizer Authorizer) AccountServiceOption {
	return func(s *AccountService) {
		if authorizer != nil {
			s.authorizer = authorizer
		}
	}
}

func WithAccountLogger(logger Logger) AccountServiceOption {
	return func(s *AccountService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPhoneRegion(region string) AccountServiceOption {
	return func(s *AccountService) {
		if region != "" {
			s.phoneRegion = region
		}
	}
}

// WithHashidAccountIDs gives owner accounts hashid derived ids
func WithHashidAccountIDs(enabled bool) AccountServiceOption {
	return func(s *AccountService) {
		s.useHashid = enabled
	}
}

func NewAccountService(repo RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, opts ...AccountServiceOption) *AccountService {
	s := &AccountService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		authorizer:  NewTenantAuthorizer(),
		logger:      defLogger{},
		phoneRegion: DefaultPhoneRegion,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if digester, ok := hasher.(RandomDigester); ok {
		digest, err := digester.RandomPasswordHash(context.Background())
		if err != nil {
			s.logger.Warn("could not prepare timing digest", "error", err)
		}
		s.timingDigest = digest
	}

	return s
}

// RegisterCompanyAccount creates the owner account, plus company and
// address when given, in a single transaction.
func (s *AccountService) RegisterCompanyAccount(ctx context.Context, msg RegisterCompanyAccountMessage) (uuid.UUID, error) {
	var id uuid.UUID
	msg.UseHashid = msg.UseHashid || s.useHashid
	msg.OnResponse = func(created uuid.UUID) { id = created }

	handler := NewRegisterCompanyAccountHandler(s.repo, s.hasher).
		WithLogger(s.logger).
		WithPhoneRegion(s.phoneRegion)

	if err := handler.Execute(ctx, msg); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// RegisterEmployee creates an employee in the caller tenant, stamped with
// the caller as creator.
func (s *AccountService) RegisterEmployee(ctx context.Context, caller Principal, msg RegisterEmployeeMessage) (uuid.UUID, error) {
	var id uuid.UUID
	msg.Caller = caller
	msg.OnResponse = func(created uuid.UUID) { id = created }

	handler := NewRegisterEmployeeHandler(s.repo, s.hasher).WithLogger(s.logger)
	if err := handler.Execute(ctx, msg); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Login returns a signed token. Unknown email and wrong password both
// fail with ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.repo.Accounts().GetByEmailTx(ctx, s.repo.DB(), email)
	if err != nil {
		if !goerrors.Is(err, ErrAccountNotFound) {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
		}

		// unknown emails still pay for one verify
		if _, verr := s.hasher.Verify(ctx, s.timingDigest, password); verr != nil {
			return "", verr
		}

		s.logger.Warn("login failed", "email", normalizeEmail(email), "reason", "unknown account")
		return "", ErrInvalidCredentials
	}

	result, err := s.hasher.Verify(ctx, account.PasswordHash, password)
	if err != nil {
		return "", err
	}

	if result != PasswordVerificationSuccess {
		s.logger.Warn("login failed", "email", account.Email, "reason", "password mismatch")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.Principal())
	if err != nil {
		return "", err
	}

	s.logger.Info("login succeeded", "account_id", account.ID)
	return token, nil
}

// GetProfile reads the caller's own account
func (s *AccountService) GetProfile(ctx context.Context, principal Principal) (*Profile, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	account, err := s.repo.Accounts().FindByIDTx(ctx, s.repo.DB(), principal.AccountID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Name:     account.Name,
		LastName: account.LastName,
		Email:    account.Email,
		Role:     account.Role,
	}, nil
}

// GetAccount returns an account the principal is allowed to read. Accounts
// outside the caller's reach are reported as not found.
func (s *AccountService) GetAccount(ctx context.Context, principal Principal, id uuid.UUID) (*Account, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	account, err := s.repo.Accounts().FindByIDTx(ctx, s.repo.DB(), id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.Require(principal, account.Target(), OperationRead); err != nil {
		return nil, s.maskDenied(principal, id, err)
	}

	return account, nil
}

// ListCompanyAccounts returns every account in the caller tenant
func (s *AccountService) ListCompanyAccounts(ctx context.Context, principal Principal) ([]*Account, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	if !principal.HasTenant() {
		return nil, withDetails(ErrCompanyNotFound, map[string]any{"account_id": principal.AccountID.String()})
	}

	return s.repo.Accounts().ListByCompanyTx(ctx, s.repo.DB(), principal.TenantID.UUID)
}

// ChangePassword replaces the caller's password after the composite
// update, create and read clearance.
func (s *AccountService) ChangePassword(ctx context.Context, principal Principal, newPassword string) error {
	if err := validation.Validate(newPassword, passwordRules()...); err != nil {
		return validationError(validation.Errors{"newValue": err})
	}

	account, err := s.authorizeProfileChange(ctx, principal)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.Accounts().UpdatePasswordTx(ctx, s.repo.DB(), account.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", "account_id", account.ID)
	return nil
}

// ChangeEmail replaces the caller's email after the composite clearance
func (s *AccountService) ChangeEmail(ctx context.Context, principal Principal, newEmail string) error {
	if err := validation.Validate(newEmail, emailRules()...); err != nil {
		return validationError(validation.Errors{"newValue": err})
	}

	account, err := s.authorizeProfileChange(ctx, principal)
	if err != nil {
		return err
	}

	email := normalizeEmail(newEmail)
	if email == account.Email {
		return nil
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := s.repo.Accounts().EmailExistsTx(ctx, tx, email)
		if err != nil {
			return err
		}
		if taken {
			return withDetails(ErrEmailTaken, map[string]any{"email": email})
		}
		return s.repo.Accounts().UpdateEmailTx(ctx, tx, account.ID, email)
	})
	if err != nil {
		return err
	}

	s.logger.Info("email changed", "account_id", account.ID)
	return nil
}

// DeleteAccount removes the target account, or the caller when target is nil
func (s *AccountService) DeleteAccount(ctx context.Context, principal Principal, target *uuid.UUID) error {
	if principal.IsZero() {
		return ErrUnauthenticated
	}

	id := principal.AccountID
	if target != nil && *target != uuid.Nil {
		id = *target
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := s.repo.Accounts().FindByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := s.authorizer.Require(principal, account.Target(), OperationDelete); err != nil {
			return s.maskDenied(principal, id, err)
		}

		return s.repo.Accounts().DeleteByIDTx(ctx, tx, account.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", "account_id", id, "by", principal.AccountID)
	return nil
}

// DeleteCompany removes the caller tenant with its accounts, address,
// offers, their applications and its payments. Only the owner may do it.
func (s *AccountService) DeleteCompany(ctx context.Context, principal Principal) error {
	if principal.IsZero() {
		return ErrUnauthenticated
	}

	if !principal.HasTenant() {
		return withDetails(ErrCompanyNotFound, map[string]any{"account_id": principal.AccountID.String()})
	}

	if principal.Role != RoleCompanyOwner {
		return withDetails(ErrForbidden, map[string]any{"role": principal.Role.String()})
	}

	var removed struct {
		accounts, offers, applications, payments int64
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		company, err := s.repo.Companies().FindByIDTx(ctx, tx, principal.TenantID.UUID)
		if err != nil {
			return err
		}

		if removed.offers, removed.applications, err = s.repo.Offers().DeleteByCompanyTx(ctx, tx, company.ID); err != nil {
			return err
		}

		if removed.payments, err = s.repo.Payments().DeleteByCompanyTx(ctx, tx, company.ID); err != nil {
			return err
		}

		if removed.accounts, err = s.repo.Accounts().DeleteByCompanyTx(ctx, tx, company.ID); err != nil {
			return err
		}

		return s.repo.Companies().DeleteTx(ctx, tx, company)
	})
	if err != nil {
		return err
	}

	s.logger.Info("company deleted",
		"company_id", principal.TenantID.UUID,
		"accounts", removed.accounts,
		"offers", removed.offers,
		"applications", removed.applications,
		"payments", removed.payments,
	)
	return nil
}

// GetCompany returns the caller tenant with its address
func (s *AccountService) GetCompany(ctx context.Context, principal Principal) (*CompanyDetails, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	if !principal.HasTenant() {
		return nil, withDetails(ErrCompanyNotFound, map[string]any{"account_id": principal.AccountID.String()})
	}

	company, err := s.repo.Companies().FindByIDTx(ctx, s.repo.DB(), principal.TenantID.UUID)
	if err != nil {
		return nil, err
	}

	address, err := s.repo.Companies().GetAddressTx(ctx, s.repo.DB(), company.AddressID)
	if err != nil {
		return nil, err
	}

	return &CompanyDetails{Company: company, Address: address}, nil
}

// ListCompanies returns one page of the company directory ordered by
// name. Addresses and accounts are not part of it.
func (s *AccountService) ListCompanies(ctx context.Context, principal Principal, limit, offset int) (*CompanyPage, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	offset = max(offset, 0)

	companies, total, err := s.repo.Companies().ListTx(ctx, s.repo.DB(), func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("name ASC", "created_at ASC").Limit(limit).Offset(offset)
	})
	if err != nil {
		return nil, err
	}

	return &CompanyPage{Companies: companies, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *AccountService) authorizeProfileChange(ctx context.Context, principal Principal) (*Account, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	account, err := s.repo.Accounts().FindByIDTx(ctx, s.repo.DB(), principal.AccountID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.Require(principal, account.Target(), ProfileChangeOperations...); err != nil {
		s.logger.Warn("profile change denied", "account_id", principal.AccountID)
		return nil, err
	}

	return account, nil
}

// maskDenied turns a denial on an existing account into the same not found
// error an absent id produces.
func (s *AccountService) maskDenied(principal Principal, id uuid.UUID, err error) error {
	if !goerrors.Is(err, ErrForbidden) {
		return err
	}
	s.logger.Warn("account access denied", "account_id", principal.AccountID, "target", id)
	return withDetails(ErrAccountNotFound, map[string]any{"id": id.String()})
}
