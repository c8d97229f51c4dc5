package httpapi

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/middleware/jwtware"
)

// ErrMalformedBody is returned when the request body cannot be decoded
var ErrMalformedBody = goerrors.New("malformed request body", goerrors.CategoryBadInput).
	WithTextCode("malformed_body").
	WithCode(goerrors.CodeBadRequest)

type IDResponse struct {
	ID uuid.UUID `json:"id"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ChangeValueRequest carries the new password or email
type ChangeValueRequest struct {
	NewValue string `json:"newValue"`
}

func (s *Server) registerCompanyAccount(c router.Context) error {
	var msg auth.RegisterCompanyAccountMessage
	if err := bind(c, &msg); err != nil {
		return err
	}

	id, err := s.accounts.RegisterCompanyAccount(c.Context(), msg)
	if err != nil {
		return err
	}

	return created(c, fmt.Sprintf("/api/account/%s", id), id)
}

func (s *Server) registerEmployee(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var msg auth.RegisterEmployeeMessage
	if err := bind(c, &msg); err != nil {
		return err
	}

	id, err := s.accounts.RegisterEmployee(c.Context(), principal, msg)
	if err != nil {
		return err
	}

	return created(c, fmt.Sprintf("/api/account/%s", id), id)
}

func (s *Server) login(c router.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		return auth.ErrInvalidCredentials
	}

	token, err := s.accounts.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, TokenResponse{Token: token})
}

func (s *Server) profile(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	profile, err := s.accounts.GetProfile(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, profile)
}

func (s *Server) listCompanyAccounts(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	accounts, err := s.accounts.ListCompanyAccounts(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, accounts)
}

func (s *Server) getAccount(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := paramID(c, auth.ErrAccountNotFound)
	if err != nil {
		return err
	}

	account, err := s.accounts.GetAccount(c.Context(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, account)
}

func (s *Server) changePassword(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req ChangeValueRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := s.accounts.ChangePassword(c.Context(), principal, req.NewValue); err != nil {
		return err
	}
	return c.NoContent(fiber.StatusNoContent)
}

func (s *Server) changeEmail(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req ChangeValueRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := s.accounts.ChangeEmail(c.Context(), principal, req.NewValue); err != nil {
		return err
	}
	return c.NoContent(fiber.StatusNoContent)
}

// deleteAccount serves both DELETE /api/account and /api/account/:id
func (s *Server) deleteAccount(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var target *uuid.UUID
	if c.Param("id") != "" {
		id, err := paramID(c, auth.ErrAccountNotFound)
		if err != nil {
			return err
		}
		target = &id
	}

	if err := s.accounts.DeleteAccount(c.Context(), principal, target); err != nil {
		return err
	}
	return c.NoContent(fiber.StatusNoContent)
}

func (s *Server) getCompany(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	details, err := s.accounts.GetCompany(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, details)
}

// listCompanies reads the optional ?limit= and ?offset= paging params
func (s *Server) listCompanies(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.Query("limit", ""))
	offset, _ := strconv.Atoi(c.Query("offset", ""))

	page, err := s.accounts.ListCompanies(c.Context(), principal, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, page)
}

func (s *Server) deleteCompany(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	if err := s.accounts.DeleteCompany(c.Context(), principal); err != nil {
		return err
	}
	return c.NoContent(fiber.StatusNoContent)
}

func (s *Server) createOffer(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var msg auth.CreateOfferMessage
	if err := bind(c, &msg); err != nil {
		return err
	}

	id, err := s.offers.CreateOffer(c.Context(), principal, msg)
	if err != nil {
		return err
	}
	return c.JSON(fiber.StatusCreated, IDResponse{ID: id})
}

func (s *Server) listOffers(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	offers, err := s.offers.ListOffers(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, offers)
}

func (s *Server) listApplications(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := paramID(c, auth.ErrOfferNotFound)
	if err != nil {
		return err
	}

	applications, err := s.offers.ListApplications(c.Context(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, applications)
}

// searchApplications reads ?q= and the optional ?offerId= filter
func (s *Server) searchApplications(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	search := auth.ApplicationSearch{Query: c.Query("q", "")}
	if raw := c.Query("offerId", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return auth.ErrOfferNotFound
		}
		search.OfferID = uuid.NullUUID{UUID: id, Valid: true}
	}

	applications, err := s.offers.SearchApplications(c.Context(), principal, search)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, applications)
}

func (s *Server) apply(c router.Context) error {
	id, err := paramID(c, auth.ErrOfferNotFound)
	if err != nil {
		return err
	}

	var msg auth.ApplyMessage
	if err := bind(c, &msg); err != nil {
		return err
	}

	applicationID, err := s.offers.Apply(c.Context(), id, msg)
	if err != nil {
		return err
	}
	return c.JSON(fiber.StatusCreated, IDResponse{ID: applicationID})
}

func (s *Server) createPayment(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var msg auth.CreatePaymentMessage
	if err := bind(c, &msg); err != nil {
		return err
	}

	id, err := s.payments.CreatePayment(c.Context(), principal, msg)
	if err != nil {
		return err
	}

	return created(c, fmt.Sprintf("/api/payments/%s", id), id)
}

func (s *Server) listPayments(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	payments, err := s.payments.ListPayments(c.Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, payments)
}

func (s *Server) getPayment(c router.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	id, err := paramID(c, auth.ErrPaymentNotFound)
	if err != nil {
		return err
	}

	payment, err := s.payments.GetPayment(c.Context(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, payment)
}

func created(c router.Context, location string, id uuid.UUID) error {
	c.SetHeader(fiber.HeaderLocation, location)
	return c.JSON(fiber.StatusCreated, IDResponse{ID: id})
}

func bind(c router.Context, out any) error {
	if err := c.Bind(out); err != nil {
		return ErrMalformedBody
	}
	return nil
}

func principalFrom(c router.Context) (auth.Principal, error) {
	if principal, ok := jwtware.PrincipalFromLocals(c, ""); ok {
		return principal, nil
	}
	return auth.MustPrincipal(c.Context())
}

// paramID parses the :id route param. Ids that cannot exist resolve to
// the not found error of the resource.
func paramID(c router.Context, notFound *goerrors.Error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
