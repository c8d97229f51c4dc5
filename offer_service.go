package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CreateOfferMessage struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (e CreateOfferMessage) Type() string { return "offer.create" }

func (e CreateOfferMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, nameRules()...),
		validation.Field(&e.Description, nameRules()...),
	)
}

type ApplyMessage struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

func (e ApplyMessage) Type() string { return "offer.apply" }

func (e ApplyMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, nameRules()...),
		validation.Field(&e.LastName, nameRules()...),
		validation.Field(&e.Email, emailRules()...),
		validation.Field(&e.Message, validation.Length(0, maxMessageLength)),
	)
}

// ApplicationSearch filters the applications of the caller tenant. Query
// is matched case insensitive against name, last name and email.
type ApplicationSearch struct {
	OfferID uuid.NullUUID `json:"offerId"`
	Query   string        `json:"query"`
}

func (e ApplicationSearch) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Query, validation.Length(0, maxEmailLength)),
	)
}

// OfferService publishes offers for a tenant and accepts applications.
type OfferService struct {
	repo       RepositoryManager
	authorizer Authorizer
	logger     Logger
}

func NewOfferService(repo RepositoryManager) *OfferService {
	return &OfferService{
		repo:       repo,
		authorizer: NewTenantAuthorizer(),
		logger:     defLogger{},
	}
}

func (s *OfferService) WithLogger(logger Logger) *OfferService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *OfferService) WithAuthorizer(authorizer Authorizer) *OfferService {
	if authorizer != nil {
		s.authorizer = authorizer
	}
	return s
}

// CreateOffer publishes an offer in the caller tenant
func (s *OfferService) CreateOffer(ctx context.Context, principal Principal, msg CreateOfferMessage) (uuid.UUID, error) {
	if principal.IsZero() {
		return uuid.Nil, ErrUnauthenticated
	}

	if !principal.HasTenant() {
		return uuid.Nil, withDetails(ErrCompanyNotFound, map[string]any{"account_id": principal.AccountID.String()})
	}

	if err := s.authorizer.Require(principal, principal.Self(), OperationCreate); err != nil {
		return uuid.Nil, err
	}

	if err := msg.Validate(); err != nil {
		return uuid.Nil, validationError(err)
	}

	offer := &Offer{
		CompanyID:   principal.TenantID.UUID,
		Name:        strings.TrimSpace(msg.Name),
		Description: strings.TrimSpace(msg.Description),
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Companies().FindByIDTx(ctx, tx, offer.CompanyID); err != nil {
			return err
		}
		var err error
		offer, err = s.repo.Offers().PublishTx(ctx, tx, offer)
		return err
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return uuid.Nil, richErr
		}
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create offer")
	}

	s.logger.Info("offer created", "offer_id", offer.ID, "company_id", offer.CompanyID)
	return offer.ID, nil
}

// ListOffers returns the offers of the caller tenant
func (s *OfferService) ListOffers(ctx context.Context, principal Principal) ([]*Offer, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	if !principal.HasTenant() {
		return nil, withDetails(ErrCompanyNotFound, map[string]any{"account_id": principal.AccountID.String()})
	}

	return s.repo.Offers().ListByCompanyTx(ctx, s.repo.DB(), principal.TenantID.UUID)
}

// ListApplications returns the applications for an offer of the caller tenant
func (s *OfferService) ListApplications(ctx context.Context, principal Principal, offerID uuid.UUID) ([]*JobApplication, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	offer, err := s.repo.Offers().FindByIDTx(ctx, s.repo.DB(), offerID)
	if err != nil {
		return nil, err
	}

	// offers are tenant scoped, an account of another tenant must not see them
	if !principal.HasTenant() || principal.TenantID.UUID != offer.CompanyID {
		return nil, withDetails(ErrOfferNotFound, map[string]any{"id": offerID.String()})
	}

	return s.repo.Offers().ListApplicationsTx(ctx, s.repo.DB(), offer.ID)
}

// SearchApplications returns the applications of the caller tenant that
// match search. An offer of another tenant is reported as not found.
func (s *OfferService) SearchApplications(ctx context.Context, principal Principal, search ApplicationSearch) ([]*JobApplication, error) {
	if principal.IsZero() {
		return nil, ErrUnauthenticated
	}

	if !principal.HasTenant() {
		return nil, withDetails(ErrCompanyNotFound, map[string]any{"account_id": principal.AccountID.String()})
	}

	if err := search.Validate(); err != nil {
		return nil, validationError(err)
	}

	if search.OfferID.Valid {
		offer, err := s.repo.Offers().FindByIDTx(ctx, s.repo.DB(), search.OfferID.UUID)
		if err != nil {
			return nil, err
		}
		if offer.CompanyID != principal.TenantID.UUID {
			return nil, withDetails(ErrOfferNotFound, map[string]any{"id": offer.ID.String()})
		}
	}

	return s.repo.Offers().SearchApplicationsTx(ctx, s.repo.DB(), principal.TenantID.UUID, search)
}

// Apply submits a candidate application. It needs no principal.
func (s *OfferService) Apply(ctx context.Context, offerID uuid.UUID, msg ApplyMessage) (uuid.UUID, error) {
	if err := msg.Validate(); err != nil {
		return uuid.Nil, validationError(err)
	}

	application := &JobApplication{
		OfferID:  offerID,
		Name:     strings.TrimSpace(msg.Name),
		LastName: strings.TrimSpace(msg.LastName),
		Email:    msg.Email,
		Message:  msg.Message,
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Offers().FindByIDTx(ctx, tx, offerID); err != nil {
			return err
		}
		var err error
		application, err = s.repo.Offers().ApplyTx(ctx, tx, application)
		if IsForeignKeyViolation(err) {
			return withDetails(ErrOfferNotFound, map[string]any{"id": offerID.String()})
		}
		return err
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return uuid.Nil, richErr
		}
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not submit application")
	}

	s.logger.Info("application submitted", "application_id", application.ID, "offer_id", offerID)
	return application.ID, nil
}
