package portal

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Tasks interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Task, error)
	ListAll(ctx context.Context) ([]*Task, error)
	ListForUser(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) ([]*Task, error)
	Create(ctx context.Context, task *Task) (*Task, error)
	UpdateTx(ctx context.Context, tx bun.IDB, task *Task) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UnlinkCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) error
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var _ Tasks = (*tasks)(nil)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (a *tasks) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *tasks) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Task, error) {
	record := &Task{}
	err := tx.NewSelect().
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

func (a *tasks) ListAll(ctx context.Context) ([]*Task, error) {
	var records []*Task
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListForUser returns tasks the user owns plus tasks assigned to any
// group the user belongs to
func (a *tasks) ListForUser(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) ([]*Task, error) {
	var records []*Task
	q := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if len(groupIDs) > 0 {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.owner_id = ?", userID).
				WhereOr("?TableAlias.group_id IN (?)", bun.In(groupIDs))
		})
	} else {
		q = q.Where("?TableAlias.owner_id = ?", userID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

func (a *tasks) Create(ctx context.Context, task *Task) (*Task, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = TaskStatusNew
	}
	return a.Repository.CreateTx(ctx, a.db, task)
}

func (a *tasks) UpdateTx(ctx context.Context, tx bun.IDB, task *Task) (*Task, error) {
	return a.Repository.UpdateTx(ctx, tx, task, repository.UpdateByID(task.ID.String()))
}

func (a *tasks) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Task)(nil)).
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

// UnlinkCompanyTx clears the company reference on every task that
// points at it, ahead of the company row being removed
func (a *tasks) UnlinkCompanyTx(ctx context.Context, tx bun.IDB, companyID uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Task)(nil)).
		Set("company_id = NULL").
		Where("?TableAlias.company_id = ?", companyID).
		Exec(ctx)
	return err
}
