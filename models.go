package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is a login identity bound to at most one company
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID     `bun:"id,pk" json:"id"`
	Name          string        `bun:"name,notnull" json:"name"`
	LastName      string        `bun:"last_name,notnull" json:"lastName"`
	Email         string        `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string        `bun:"password_hash,notnull" json:"-"`
	Role          Role          `bun:"role,notnull,type:varchar(32)" json:"role"`
	CompanyID     uuid.NullUUID `bun:"company_id" json:"companyId"`
	CreatedByID   uuid.NullUUID `bun:"created_by_id" json:"createdById"`
	CreatedAt     time.Time     `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time     `bun:"updated_at,notnull" json:"updatedAt"`
}

// Target projects the account into the shape the Authorizer evaluates
func (a *Account) Target() Target {
	return Target{ID: a.ID, TenantID: a.CompanyID}
}

// Principal builds the request identity this account would carry
func (a *Account) Principal() Principal {
	return Principal{
		AccountID: a.ID,
		TenantID:  a.CompanyID,
		Role:      a.Role,
		Name:      a.Name,
		Surname:   a.LastName,
		Email:     a.Email,
	}
}

// Company is the tenant
type Company struct {
	bun.BaseModel `bun:"table:companies,alias:cmp"`
	ID            uuid.UUID `bun:"id,pk" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Nip           string    `bun:"nip,notnull" json:"nip"`
	Regon         string    `bun:"regon,notnull" json:"regon"`
	Phone         string    `bun:"phone" json:"phone,omitempty"`
	AddressID     uuid.UUID `bun:"address_id,notnull,unique" json:"addressId"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// Address is owned by exactly one company
type Address struct {
	bun.BaseModel  `bun:"table:addresses,alias:adr"`
	ID             uuid.UUID `bun:"id,pk" json:"id"`
	Country        string    `bun:"country,notnull" json:"country"`
	City           string    `bun:"city,notnull" json:"city"`
	Street         string    `bun:"street,notnull" json:"street"`
	BuildingNumber string    `bun:"building_number,notnull" json:"buildingNumber"`
	PostalCode     string    `bun:"postal_code,notnull" json:"postalCode"`
}

// Offer is a job posting owned by a company
type Offer struct {
	bun.BaseModel `bun:"table:offers,alias:ofr"`
	ID            uuid.UUID `bun:"id,pk" json:"id"`
	CompanyID     uuid.UUID `bun:"company_id,notnull" json:"companyId"`
	Name          string    `bun:"name,notnull" json:"name"`
	Description   string    `bun:"description,notnull" json:"description"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// JobApplication is a candidate submission for an offer
type JobApplication struct {
	bun.BaseModel `bun:"table:job_applications,alias:jap"`
	ID            uuid.UUID `bun:"id,pk" json:"id"`
	OfferID       uuid.UUID `bun:"offer_id,notnull" json:"offerId"`
	Name          string    `bun:"name,notnull" json:"name"`
	LastName      string    `bun:"last_name,notnull" json:"lastName"`
	Email         string    `bun:"email,notnull" json:"email"`
	Message       string    `bun:"message" json:"message,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// PaymentStatusOffline marks a payment recorded by hand
const PaymentStatusOffline = "Offline Payment"

// Payment is a payment recorded for a company. Amount is in minor units.
type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:pay"`
	ID            uuid.UUID     `bun:"id,pk" json:"id"`
	CompanyID     uuid.UUID     `bun:"company_id,notnull" json:"companyId"`
	AccountID     uuid.NullUUID `bun:"account_id" json:"accountId"`
	Name          string        `bun:"name,notnull" json:"name"`
	LastName      string        `bun:"last_name,notnull" json:"lastName"`
	Amount        int64         `bun:"amount,notnull" json:"amount"`
	Currency      string        `bun:"currency,notnull" json:"currency"`
	Status        string        `bun:"status,notnull" json:"status"`
	Reference     string        `bun:"reference" json:"reference,omitempty"`
	PaymentDate   time.Time     `bun:"payment_date,notnull" json:"paymentDate"`
	CreatedAt     time.Time     `bun:"created_at,notnull" json:"createdAt"`
}

// CompanyDetails is a company with its address resolved
type CompanyDetails struct {
	Company *Company `json:"company"`
	Address *Address `json:"address"`
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// CompanyPage is one page of the company directory
type CompanyPage struct {
	Companies []*Company `json:"companies"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// Profile is the read only projection of the caller's own account
type Profile struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
