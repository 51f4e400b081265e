package portal

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type PasswordResets interface {
	GetActiveByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	GetActiveByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error)
	SupersedeActiveForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *PasswordResetToken) (*PasswordResetToken, error)
	MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status ResetTokenStatus) error
	CountActiveForUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type passwordResets struct {
	repository.Repository[*PasswordResetToken]
	db *bun.DB
}

var _ PasswordResets = (*passwordResets)(nil)

func NewPasswordResetsRepository(db *bun.DB) PasswordResets {
	repo := repository.NewRepository[*PasswordResetToken](db, repository.ModelHandlers[*PasswordResetToken]{
		NewRecord: func() *PasswordResetToken {
			return &PasswordResetToken{}
		},
		GetID: func(record *PasswordResetToken) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordResetToken, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &passwordResets{
		Repository: repo,
		db:         db,
	}
}

func (a *passwordResets) GetActiveByToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	return a.GetActiveByTokenTx(ctx, a.db, token)
}

// GetActiveByTokenTx finds the reset row by exact token match where
// is_used is still false. A consumed token is indistinguishable from
// one that never existed.
func (a *passwordResets) GetActiveByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error) {
	record := &PasswordResetToken{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.is_used = ?", false).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}
	return record, nil
}

// SupersedeActiveForUserTx retires every still-unused token the user
// holds. Runs inside the same transaction that writes the
// replacement token, which is what keeps at most one token ACTIVE.
func (a *passwordResets) SupersedeActiveForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*PasswordResetToken)(nil)).
		Set("is_used = ?", true).
		Set("status = ?", ResetTokenSuperseded).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.is_used = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (a *passwordResets) CreateTx(ctx context.Context, tx bun.IDB, record *PasswordResetToken) (*PasswordResetToken, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = ResetTokenRequested
	}
	return a.Repository.CreateTx(ctx, tx, record)
}

// MarkUsedTx retires a token. The is_used guard makes the update a
// compare-and-set so concurrent redeemers cannot both win.
func (a *passwordResets) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status ResetTokenStatus) error {
	res, err := tx.NewUpdate().
		Model((*PasswordResetToken)(nil)).
		Set("is_used = ?", true).
		Set("status = ?", status).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.is_used = ?", false).
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

// CountActiveForUser exists so the single-active-token invariant can
// be asserted directly
func (a *passwordResets) CountActiveForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return a.db.NewSelect().
		Model((*PasswordResetToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.is_used = ?", false).
		Count(ctx)
}
