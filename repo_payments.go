package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Payments interface {
	repository.Repository[*Payment]

	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Payment, error)
	ListByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) ([]*Payment, error)
	RecordTx(ctx context.Context, tx bun.IDB, payment *Payment) (*Payment, error)
	DeleteByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) (int64, error)
}

type payments struct {
	repository.Repository[*Payment]
	db *bun.DB
}

var (
	_ Payments                        = (*payments)(nil)
	_ repository.Repository[*Payment] = (*payments)(nil)
)

func NewPaymentsRepository(db *bun.DB) Payments {
	repo := repository.NewRepository[*Payment](db, repository.ModelHandlers[*Payment]{
		NewRecord: func() *Payment { return &Payment{} },
		GetID: func(p *Payment) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Payment, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &payments{
		Repository: repo,
		db:         db,
	}
}

func (p *payments) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Payment, error) {
	record := &Payment{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, ErrPaymentNotFound, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (p *payments) ListByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) ([]*Payment, error) {
	records := []*Payment{}
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.company_id = ?", companyID).
		Order("payment_date DESC", "created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *payments) RecordTx(ctx context.Context, tx bun.IDB, payment *Payment) (*Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	now := time.Now().UTC()
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = now
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	return p.Repository.CreateTx(ctx, tx, payment)
}

func (p *payments) DeleteByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) (int64, error) {
	res, err := tx.NewDelete().
		Model((*Payment)(nil)).
		Where("company_id = ?", companyID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
