package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Offers interface {
	repository.Repository[*Offer]

	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Offer, error)
	ListByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) ([]*Offer, error)
	PublishTx(ctx context.Context, tx bun.IDB, offer *Offer) (*Offer, error)
	ApplyTx(ctx context.Context, tx bun.IDB, application *JobApplication) (*JobApplication, error)
	ListApplicationsTx(ctx context.Context, tx bun.IDB, offerID uuid.UUID) ([]*JobApplication, error)
	SearchApplicationsTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID, search ApplicationSearch) ([]*JobApplication, error)
	DeleteByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) (offers int64, applications int64, err error)
}

type offers struct {
	repository.Repository[*Offer]
	applications repository.Repository[*JobApplication]
	db           *bun.DB
}

var (
	_ Offers                        = (*offers)(nil)
	_ repository.Repository[*Offer] = (*offers)(nil)
)

func NewJobApplicationsRepository(db *bun.DB) repository.Repository[*JobApplication] {
	handlers := repository.ModelHandlers[*JobApplication]{
		NewRecord: func() *JobApplication {
			return &JobApplication{}
		},
		GetID: func(record *JobApplication) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *JobApplication, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}

func NewOffersRepository(db *bun.DB) Offers {
	repo := repository.NewRepository[*Offer](db, repository.ModelHandlers[*Offer]{
		NewRecord: func() *Offer { return &Offer{} },
		GetID: func(o *Offer) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *Offer, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
	})

	return &offers{
		Repository:   repo,
		applications: NewJobApplicationsRepository(db),
		db:           db,
	}
}

func (o *offers) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Offer, error) {
	record := &Offer{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, ErrOfferNotFound, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (o *offers) ListByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) ([]*Offer, error) {
	records := []*Offer{}
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.company_id = ?", companyID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (o *offers) PublishTx(ctx context.Context, tx bun.IDB, offer *Offer) (*Offer, error) {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}
	return o.Repository.CreateTx(ctx, tx, offer)
}

func (o *offers) ApplyTx(ctx context.Context, tx bun.IDB, application *JobApplication) (*JobApplication, error) {
	if application.ID == uuid.Nil {
		application.ID = uuid.New()
	}
	if application.CreatedAt.IsZero() {
		application.CreatedAt = time.Now().UTC()
	}
	application.Email = normalizeEmail(application.Email)
	return o.applications.CreateTx(ctx, tx, application)
}

func (o *offers) ListApplicationsTx(ctx context.Context, tx bun.IDB, offerID uuid.UUID) ([]*JobApplication, error) {
	records := []*JobApplication{}
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.offer_id = ?", offerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SearchApplicationsTx matches the query against candidate name, last name
// and email, limited to the offers of companyID.
func (o *offers) SearchApplicationsTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID, search ApplicationSearch) ([]*JobApplication, error) {
	records := []*JobApplication{}
	q := tx.NewSelect().
		Model(&records).
		Join("JOIN offers AS ofr ON ofr.id = ?TableAlias.offer_id").
		Where("ofr.company_id = ?", companyID)

	if search.OfferID.Valid {
		q = q.Where("?TableAlias.offer_id = ?", search.OfferID.UUID)
	}

	if term := strings.ToLower(strings.TrimSpace(search.Query)); term != "" {
		like := "%" + term + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.name) LIKE ?", like).
				WhereOr("LOWER(?TableAlias.last_name) LIKE ?", like).
				WhereOr("?TableAlias.email LIKE ?", like)
		})
	}

	if err := q.Order("jap.created_at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteByCompanyTx removes every application of the company's offers and
// then the offers themselves.
func (o *offers) DeleteByCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) (int64, int64, error) {
	offerIDs := tx.NewSelect().
		Model((*Offer)(nil)).
		Column("id").
		Where("company_id = ?", companyID)

	res, err := tx.NewDelete().
		Model((*JobApplication)(nil)).
		Where("offer_id IN (?)", offerIDs).
		Exec(ctx)
	if err != nil {
		return 0, 0, err
	}
	applications, err := res.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	res, err = tx.NewDelete().
		Model((*Offer)(nil)).
		Where("company_id = ?", companyID).
		Exec(ctx)
	if err != nil {
		return 0, applications, err
	}
	deleted, err := res.RowsAffected()
	return deleted, applications, err
}
