package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegisterEmployeeMessage provisions an employee inside the caller tenant
type RegisterEmployeeMessage struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Caller is the owner provisioning the account
	Caller     Principal          `json:"-"`
	OnResponse func(id uuid.UUID) `json:"-"`
}

func (e RegisterEmployeeMessage) Type() string { return "account.register_employee" }

// Validate will run validation rules
func (e RegisterEmployeeMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, nameRules()...),
		validation.Field(&e.LastName, nameRules()...),
		validation.Field(&e.Email, emailRules()...),
		validation.Field(&e.Password, passwordRules()...),
	)
}

type RegisterEmployeeHandler struct {
	repo   RepositoryManager
	hasher PasswordHasher
	logger Logger
}

func NewRegisterEmployeeHandler(repo RepositoryManager, hasher PasswordHasher) *RegisterEmployeeHandler {
	return &RegisterEmployeeHandler{
		repo:   repo,
		hasher: hasher,
		logger: defLogger{},
	}
}

func (h *RegisterEmployeeHandler) WithLogger(logger Logger) *RegisterEmployeeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterEmployeeHandler) Execute(ctx context.Context, event RegisterEmployeeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during employee registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterEmployeeHandler) execute(ctx context.Context, event RegisterEmployeeMessage) error {
	if event.Caller.IsZero() {
		return ErrUnauthenticated
	}

	if !event.Caller.HasTenant() {
		return withDetails(ErrCompanyNotFound, map[string]any{"account_id": event.Caller.AccountID.String()})
	}

	if event.Caller.Role != RoleCompanyOwner {
		h.logger.Warn("employee registration denied", "account_id", event.Caller.AccountID, "role", event.Caller.Role.String())
		return withDetails(ErrForbidden, map[string]any{"role": event.Caller.Role.String()})
	}

	if err := event.Validate(); err != nil {
		return validationError(err)
	}

	hash, err := h.hasher.Hash(ctx, event.Password)
	if err != nil {
		return err
	}

	account := &Account{
		Name:         strings.TrimSpace(event.Name),
		LastName:     strings.TrimSpace(event.LastName),
		Email:        normalizeEmail(event.Email),
		PasswordHash: hash,
		Role:         RoleEmployee,
		CompanyID:    event.Caller.TenantID,
		CreatedByID:  uuid.NullUUID{UUID: event.Caller.AccountID, Valid: true},
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Companies().FindByIDTx(ctx, tx, event.Caller.TenantID.UUID); err != nil {
			return err
		}

		taken, err := h.repo.Accounts().EmailExistsTx(ctx, tx, account.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email")
		}
		if taken {
			return withDetails(ErrEmailTaken, map[string]any{"email": account.Email})
		}

		account, err = h.repo.Accounts().RegisterTx(ctx, tx, account)
		if IsForeignKeyViolation(err) {
			return withDetails(ErrCompanyNotFound, map[string]any{"id": event.Caller.TenantID.UUID.String()})
		}
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "employee registration transaction failed")
	}

	h.logger.Info("registered employee",
		"account_id", account.ID,
		"company_id", account.CompanyID.UUID,
		"created_by", event.Caller.AccountID,
	)

	if event.OnResponse != nil {
		event.OnResponse(account.ID)
	}

	return nil
}
