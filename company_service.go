package portal

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CompanyService exposes the company surface: admin-managed records
// readable by any authenticated user
type CompanyService struct {
	repo   RepositoryManager
	logger Logger
}

func NewCompanyService(repo RepositoryManager) *CompanyService {
	return &CompanyService{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *CompanyService) WithLogger(logger Logger) *CompanyService {
	s.logger = logger
	return s
}

type CreateCompanyInput struct {
	Name         string     `json:"name"`
	VATNumber    string     `json:"vat_number"`
	Occupation   string     `json:"occupation"`
	CreationDate *time.Time `json:"creation_date"`
	Description  string     `json:"description"`
}

// Create persists a new company after checking name and VAT number
// uniqueness. Admin only.
func (s *CompanyService) Create(ctx context.Context, actor *User, input CreateCompanyInput) (*Company, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if _, err := s.repo.Companies().GetByName(ctx, input.Name); err == nil {
		return nil, ErrDuplicateName
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to check company name")
	}

	if input.VATNumber != "" {
		if _, err := s.repo.Companies().GetByVAT(ctx, input.VATNumber); err == nil {
			return nil, ErrDuplicateName
		} else if !repository.IsRecordNotFound(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to check VAT number")
		}
	}

	company := &Company{
		Name:         input.Name,
		VATNumber:    input.VATNumber,
		Occupation:   input.Occupation,
		CreationDate: input.CreationDate,
		Description:  input.Description,
	}

	created, err := s.repo.Companies().Create(ctx, company)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create company")
	}

	s.logger.Info("company created", "company_id", created.ID, "actor_id", actor.ID)

	return created, nil
}

// List returns every company, visible to any authenticated user
func (s *CompanyService) List(ctx context.Context, actor *User) ([]*Company, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.repo.Companies().List(ctx)
}

func (s *CompanyService) Get(ctx context.Context, actor *User, id uuid.UUID) (*Company, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.repo.Companies().GetByID(ctx, id)
}

// Delete removes a company and clears the reference on any task that
// points at it, in one transaction. Admin only.
func (s *CompanyService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if _, err := s.repo.Companies().GetByID(ctx, id); err != nil {
		return err
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Tasks().UnlinkCompanyTx(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Companies().DeleteTx(ctx, tx, id)
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to delete company")
	}

	s.logger.Info("company deleted", "company_id", id, "actor_id", actor.ID)

	return nil
}
