package portal

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Groups interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)
	GetByName(ctx context.Context, name string) (*Group, error)
	List(ctx context.Context) ([]*Group, error)
	Create(ctx context.Context, group *Group) (*Group, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	IsMemberTx(ctx context.Context, tx bun.IDB, groupID, userID uuid.UUID) (bool, error)
	GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type groups struct {
	repository.Repository[*Group]
	db *bun.DB
}

var _ Groups = (*groups)(nil)

func NewGroupsRepository(db *bun.DB) Groups {
	repo := repository.NewRepository[*Group](db, repository.ModelHandlers[*Group]{
		NewRecord: func() *Group { return &Group{} },
		GetID: func(g *Group) uuid.UUID {
			if g == nil {
				return uuid.Nil
			}
			return g.ID
		},
		SetID: func(g *Group, id uuid.UUID) {
			if g != nil {
				g.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &groups{
		Repository: repo,
		db:         db,
	}
}

func (a *groups) GetByID(ctx context.Context, id uuid.UUID) (*Group, error) {
	record := &Group{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Members").
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

func (a *groups) GetByName(ctx context.Context, name string) (*Group, error) {
	record := &Group{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
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

func (a *groups) List(ctx context.Context) ([]*Group, error) {
	var records []*Group
	err := a.db.NewSelect().
		Model(&records).
		Relation("Members").
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *groups) Create(ctx context.Context, group *Group) (*Group, error) {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, a.db, group)
}

func (a *groups) Delete(ctx context.Context, id uuid.UUID) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*GroupMember)(nil)).
			Where("?TableAlias.group_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*Group)(nil)).
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
	})
}

func (a *groups) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	member := &GroupMember{GroupID: groupID, UserID: userID}
	_, err := a.db.NewInsert().
		Model(member).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}

func (a *groups) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*GroupMember)(nil)).
		Where("?TableAlias.group_id = ?", groupID).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)
	return err
}

func (a *groups) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return a.IsMemberTx(ctx, a.db, groupID, userID)
}

func (a *groups) IsMemberTx(ctx context.Context, tx bun.IDB, groupID, userID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*GroupMember)(nil)).
		Where("?TableAlias.group_id = ?", groupID).
		Where("?TableAlias.user_id = ?", userID).
		Exists(ctx)
}

func (a *groups) GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := a.db.NewSelect().
		Model((*GroupMember)(nil)).
		Column("group_id").
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
