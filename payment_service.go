package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultPaymentCurrency is used when a payment names no currency
const DefaultPaymentCurrency = "PLN"

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// CreatePaymentMessage records an offline payment for the caller tenant.
// Amount is in minor units.
type CreatePaymentMessage struct {
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency,omitempty"`
	Reference   string     `json:"reference,omitempty"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`
}

func (e CreatePaymentMessage) Type() string { return "payment.create" }

func (e CreatePaymentMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Amount, validation.Required, validation.Min(int64(1))),
		validation.Field(&e.Currency, validation.Match(currencyPattern).Error("must be a 3 letter ISO code")),
		validation.Field(&e.Reference, validation.Length(0, maxEmailLength)),
	)
}

// PaymentService records offline payments and reads them back per tenant
type PaymentService struct {
	repo       RepositoryManager
	authorizer Authorizer
	logger     Logger
	now        func() time.Time
}

func NewPaymentService(repo RepositoryManager) *PaymentService {
	return &PaymentService{
		repo:       repo,
		authorizer: NewTenantAuthorizer(),
		logger:     defLogger{},
		now:        time.Now,
	}
}

func (s *PaymentService) WithLogger(logger Logger) *PaymentService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *PaymentService) WithAuthorizer(authorizer Authorizer) *PaymentService {
	if authorizer != nil {
		s.authorizer = authorizer
	}
	return s
}

// CreatePayment records an offline payment made by the caller
func (s *PaymentService) CreatePayment(ctx context.Context, principal Principal, msg CreatePaymentMessage) (uuid.UUID, error) {
	if principal.IsZero() {
		return uuid.Nil, ErrUnauthenticated
	}

	if !principal.HasTenant() {
		return uuid.Nil, withDetails(ErrCompanyNotFound, map[string]any{"account_id": principal.AccountID.String()})
	}

	if err := s.authorizer.Require(principal, principal.Self(), OperationCreate); err != nil {
		return uuid.Nil, err
	}

	msg.Currency = strings.ToUpper(strings.TrimSpace(msg.Currency))
	if msg.Currency == "" {
		msg.Currency = DefaultPaymentCurrency
	}

	if err := msg.Validate(); err != nil {
		return uuid.Nil, validationError(err)
	}

	payment := &Payment{
		CompanyID:   principal.TenantID.UUID,
		AccountID:   uuid.NullUUID{UUID: principal.AccountID, Valid: true},
		Name:        principal.Name,
		LastName:    principal.Surname,
		Amount:      msg.Amount,
		Currency:    msg.Currency,
		Status:      PaymentStatusOffline,
		Reference:   strings.TrimSpace(msg.Reference),
		PaymentDate: s.now().UTC(),
	}
	if msg.PaymentDate != nil && !msg.PaymentDate.IsZero() {
		payment.PaymentDate = msg.PaymentDate.UTC()
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Companies().FindByIDTx(ctx, tx, payment.CompanyID); err != nil {
			return err
		}
		var err error
		payment, err = s.repo.Payments().RecordTx(ctx, tx, payment)
		if IsForeignKeyViolation(err) {
			return withDetails(ErrCompanyNotFound, map[string]any{"id": principal.TenantID.UUID.String()})
		}
		return err
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return uuid.Nil, richErr
		}
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not record payment")
	}

	s.logger.Info("payment recorded",
		"payment_id", payment.ID,
		"company_id", payment.CompanyID,
		"amount", payment.Amount,
		"currency", payment.Currency,
	)
	return payment.ID, nil
}

// ListPayments returns the payments of the caller tenant, newest first
func (s *PaymentService) ListPayments(ctx context.Context, principal Principal) ([]*Payment, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	if !principal.HasTenant() {
		return nil, withDetails(ErrCompanyNotFound, map[string]any{"account_id": principal.AccountID.String()})
	}

	return s.repo.Payments().ListByCompanyTx(ctx, s.repo.DB(), principal.TenantID.UUID)
}

// GetPayment returns one payment of the caller tenant. Payments of other
// tenants are reported as not found.
func (s *PaymentService) GetPayment(ctx context.Context, principal Principal, id uuid.UUID) (*Payment, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	payment, err := s.repo.Payments().FindByIDTx(ctx, s.repo.DB(), id)
	if err != nil {
		return nil, err
	}

	if !principal.HasTenant() || principal.TenantID.UUID != payment.CompanyID {
		return nil, withDetails(ErrPaymentNotFound, map[string]any{"id": id.String()})
	}

	return payment, nil
}
