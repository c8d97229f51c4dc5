package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Companies interface {
	repository.Repository[*Company]

	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Company, error)
	GetAddressTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Address, error)
	RegisterTx(ctx context.Context, tx bun.IDB, company *Company, address *Address) (*Company, error)
	DeleteTx(ctx context.Context, tx bun.IDB, company *Company) error
}

type companies struct {
	repository.Repository[*Company]
	addresses repository.Repository[*Address]
	db        *bun.DB
}

var (
	_ Companies                       = (*companies)(nil)
	_ repository.Repository[*Company] = (*companies)(nil)
)

func NewAddressesRepository(db *bun.DB) repository.Repository[*Address] {
	handlers := repository.ModelHandlers[*Address]{
		NewRecord: func() *Address {
			return &Address{}
		},
		GetID: func(record *Address) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Address, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}

func NewCompaniesRepository(db *bun.DB) Companies {
	repo := repository.NewRepository[*Company](db, repository.ModelHandlers[*Company]{
		NewRecord: func() *Company { return &Company{} },
		GetID: func(c *Company) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Company, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "nip"
		},
	})

	return &companies{
		Repository: repo,
		addresses:  NewAddressesRepository(db),
		db:         db,
	}
}

func (c *companies) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Company, error) {
	record := &Company{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, ErrCompanyNotFound, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (c *companies) GetAddressTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Address, error) {
	record := &Address{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, ErrCompanyNotFound, map[string]any{"address_id": id.String()})
	}
	return record, nil
}

// RegisterTx inserts the address first so the company can reference it
func (c *companies) RegisterTx(ctx context.Context, tx bun.IDB, company *Company, address *Address) (*Company, error) {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}

	if _, err := c.addresses.CreateTx(ctx, tx, address); err != nil {
		return nil, err
	}

	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	now := time.Now().UTC()
	company.AddressID = address.ID
	company.CreatedAt = now
	company.UpdatedAt = now

	return c.Repository.CreateTx(ctx, tx, company)
}

// DeleteTx removes the company row and then its address
func (c *companies) DeleteTx(ctx context.Context, tx bun.IDB, company *Company) error {
	res, err := tx.NewDelete().
		Model((*Company)(nil)).
		Where("id = ?", company.ID).
		Exec(ctx)
	if err := affectedOrNotFound(res, err, ErrCompanyNotFound, map[string]any{"id": company.ID.String()}); err != nil {
		return err
	}

	_, err = tx.NewDelete().
		Model((*Address)(nil)).
		Where("id = ?", company.AddressID).
		Exec(ctx)
	return err
}
