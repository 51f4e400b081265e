package portal

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Companies interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetByName(ctx context.Context, name string) (*Company, error)
	GetByVAT(ctx context.Context, vat string) (*Company, error)
	List(ctx context.Context) ([]*Company, error)
	Create(ctx context.Context, company *Company) (*Company, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type companies struct {
	repository.Repository[*Company]
	db *bun.DB
}

var _ Companies = (*companies)(nil)

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
			return "name"
		},
	})

	return &companies{
		Repository: repo,
		db:         db,
	}
}

func (a *companies) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	record := &Company{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return record, nil
}

func (a *companies) GetByName(ctx context.Context, name string) (*Company, error) {
	record := &Company{}
	err := a.db.NewSelect().
		Model(record).
		Where("lower(?TableAlias.name) = lower(?)", strings.TrimSpace(name)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"name": name})
		}
		return nil, err
	}
	return record, nil
}

func (a *companies) GetByVAT(ctx context.Context, vat string) (*Company, error) {
	record := &Company{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.vat_number = ?", strings.TrimSpace(vat)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"vat_number": vat})
		}
		return nil, err
	}
	return record, nil
}

func (a *companies) List(ctx context.Context) ([]*Company, error) {
	var records []*Company
	err := a.db.NewSelect().
		Model(&records).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *companies) Create(ctx context.Context, company *Company) (*Company, error) {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, a.db, company)
}

func (a *companies) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Company)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}
	return nil
}
