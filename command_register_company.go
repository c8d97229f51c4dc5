package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CompanyInfo is the optional tenant data supplied on owner registration
type CompanyInfo struct {
	Name    string      `json:"name"`
	Nip     string      `json:"nip"`
	Regon   string      `json:"regon"`
	Phone   string      `json:"phone,omitempty"`
	Address AddressInfo `json:"address"`
}

type AddressInfo struct {
	Country        string `json:"country"`
	City           string `json:"city"`
	Street         string `json:"street"`
	BuildingNumber string `json:"buildingNumber"`
	PostalCode     string `json:"postalCode"`
}

func (r AddressInfo) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Country, nameRules()...),
		validation.Field(&r.City, nameRules()...),
		validation.Field(&r.Street, nameRules()...),
		validation.Field(&r.BuildingNumber, nameRules()...),
		validation.Field(&r.PostalCode, nameRules()...),
	)
}

func (r CompanyInfo) validate(region string) error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, nameRules()...),
		validation.Field(&r.Nip, validation.Required, validation.Match(nipPattern).Error("must be 10 digits")),
		validation.Field(&r.Regon, validation.Required, validation.Match(regonPattern).Error("must be 9 or 14 digits")),
		validation.Field(&r.Phone, validation.By(ValidatePhone(region))),
	)

	errs := validation.Errors{}
	if err != nil {
		var fieldErrs validation.Errors
		if !goerrors.As(err, &fieldErrs) {
			return err
		}
		for k, v := range fieldErrs {
			errs[k] = v
		}
	}

	if err := r.Address.Validate(); err != nil {
		errs["address"] = err
	}

	return errs.Filter()
}

// RegisterCompanyAccountMessage registers an owner account and, when
// CompanyInfo is present, the company and its address.
type RegisterCompanyAccountMessage struct {
	Name        string       `json:"name"`
	LastName    string       `json:"lastName"`
	Email       string       `json:"email"`
	Password    string       `json:"password"`
	CompanyInfo *CompanyInfo `json:"companyInfo,omitempty"`
	UseHashid   bool         `json:"-"`
	// OnResponse receives the id of the new account
	OnResponse func(id uuid.UUID) `json:"-"`
}

func (e RegisterCompanyAccountMessage) Type() string { return "account.register_company" }

// Validate will run validation rules
func (e RegisterCompanyAccountMessage) Validate(phoneRegion string) error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Name, nameRules()...),
		validation.Field(&e.LastName, nameRules()...),
		validation.Field(&e.Email, emailRules()...),
		validation.Field(&e.Password, passwordRules()...),
	)

	errs := validation.Errors{}
	if err != nil {
		var fieldErrs validation.Errors
		if !goerrors.As(err, &fieldErrs) {
			return err
		}
		for k, v := range fieldErrs {
			errs[k] = v
		}
	}

	if e.CompanyInfo != nil {
		if err := e.CompanyInfo.validate(phoneRegion); err != nil {
			errs["companyInfo"] = err
		}
	}

	return errs.Filter()
}

type RegisterCompanyAccountHandler struct {
	repo        RepositoryManager
	hasher      PasswordHasher
	logger      Logger
	phoneRegion string
}

func NewRegisterCompanyAccountHandler(repo RepositoryManager, hasher PasswordHasher) *RegisterCompanyAccountHandler {
	return &RegisterCompanyAccountHandler{
		repo:        repo,
		hasher:      hasher,
		logger:      defLogger{},
		phoneRegion: DefaultPhoneRegion,
	}
}

func (h *RegisterCompanyAccountHandler) WithLogger(logger Logger) *RegisterCompanyAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterCompanyAccountHandler) WithPhoneRegion(region string) *RegisterCompanyAccountHandler {
	if region != "" {
		h.phoneRegion = region
	}
	return h
}

func (h *RegisterCompanyAccountHandler) Execute(ctx context.Context, event RegisterCompanyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during company registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterCompanyAccountHandler) execute(ctx context.Context, event RegisterCompanyAccountMessage) error {
	if err := event.Validate(h.phoneRegion); err != nil {
		return validationError(err)
	}

	// hash before the transaction so bcrypt never holds a connection
	hash, err := h.hasher.Hash(ctx, event.Password)
	if err != nil {
		return err
	}

	account := &Account{
		Name:         strings.TrimSpace(event.Name),
		LastName:     strings.TrimSpace(event.LastName),
		Email:        normalizeEmail(event.Email),
		PasswordHash: hash,
		Role:         RoleCompanyOwner,
	}

	// seeded with a random value, ids never follow the email
	if event.UseHashid {
		if id, err := hashid.NewUUID(uuid.NewString()); err == nil {
			account.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Accounts().EmailExistsTx(ctx, tx, account.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email")
		}
		if taken {
			return withDetails(ErrEmailTaken, map[string]any{"email": account.Email})
		}

		if info := event.CompanyInfo; info != nil {
			company, err := h.repo.Companies().RegisterTx(ctx, tx, h.company(info), address(info.Address))
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create company")
			}
			account.CompanyID = uuid.NullUUID{UUID: company.ID, Valid: true}
		}

		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "company registration transaction failed")
	}

	h.logger.Info("registered company account", "account_id", account.ID, "company_id", account.CompanyID.UUID)

	if event.OnResponse != nil {
		event.OnResponse(account.ID)
	}

	return nil
}

func (h *RegisterCompanyAccountHandler) company(info *CompanyInfo) *Company {
	c := &Company{
		Name:  strings.TrimSpace(info.Name),
		Nip:   info.Nip,
		Regon: info.Regon,
	}
	if info.Phone != "" {
		if phone, err := NormalizePhone(info.Phone, h.phoneRegion); err == nil {
			c.Phone = phone
		}
	}
	return c
}

func address(info AddressInfo) *Address {
	return &Address{
		Country:        strings.TrimSpace(info.Country),
		City:           strings.TrimSpace(info.City),
		Street:         strings.TrimSpace(info.Street),
		BuildingNumber: strings.TrimSpace(info.BuildingNumber),
		PostalCode:     strings.TrimSpace(info.PostalCode),
	}
}
