package portal

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories plus the transaction
// boundary every multi-step mutation must run inside
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	Groups() Groups
	Tasks() Tasks
	Companies() Companies
	Events() Events
	PasswordResets() PasswordResets
}

type mngr struct {
	db             *bun.DB
	users          Users
	groups         Groups
	tasks          Tasks
	companies      Companies
	events         Events
	passwordResets PasswordResets
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:             db,
		users:          NewUsersRepository(db),
		groups:         NewGroupsRepository(db),
		tasks:          NewTasksRepository(db),
		companies:      NewCompaniesRepository(db),
		events:         NewEventsRepository(db),
		passwordResets: NewPasswordResetsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.groups == nil {
		return errors.New("repository groups should be initialized")
	}

	if m.tasks == nil {
		return errors.New("repository tasks should be initialized")
	}

	if m.companies == nil {
		return errors.New("repository companies should be initialized")
	}

	if m.events == nil {
		return errors.New("repository events should be initialized")
	}

	if m.passwordResets == nil {
		return errors.New("repository passwordResets should be initialized")
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

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Groups() Groups {
	return m.groups
}

func (m mngr) Tasks() Tasks {
	return m.tasks
}

func (m mngr) Companies() Companies {
	return m.companies
}

func (m mngr) Events() Events {
	return m.events
}

func (m mngr) PasswordResets() PasswordResets {
	return m.passwordResets
}
