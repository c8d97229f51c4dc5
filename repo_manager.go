package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	DB() bun.IDB
	Accounts() Accounts
	Companies() Companies
	Offers() Offers
	Payments() Payments
}

type mngr struct {
	db        *bun.DB
	accounts  Accounts
	companies Companies
	offers    Offers
	payments  Payments
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:        db,
		accounts:  NewAccountsRepository(db),
		companies: NewCompaniesRepository(db),
		offers:    NewOffersRepository(db),
		payments:  NewPaymentsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("database should be initialized")
	}

	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.companies == nil {
		return errors.New("repository companies should be initialized")
	}

	if m.offers == nil {
		return errors.New("repository offers should be initialized")
	}

	if m.payments == nil {
		return errors.New("repository payments should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) DB() bun.IDB {
	return m.db
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) Companies() Companies {
	return m.companies
}

func (m mngr) Offers() Offers {
	return m.offers
}

func (m mngr) Payments() Payments {
	return m.payments
}
