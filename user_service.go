package portal

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserService exposes the admin user surface and the self-service
// profile operations
type UserService struct {
	repo   RepositoryManager
	logger Logger
}

func NewUserService(repo RepositoryManager) *UserService {
	return &UserService{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *UserService) WithLogger(logger Logger) *UserService {
	s.logger = logger
	return s
}

// List returns users, optionally filtered by a case-insensitive
// search over email and name. Admin only.
func (s *UserService) List(ctx context.Context, actor *User, search string) ([]*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.Users().List(ctx, search)
}

// Get loads a single user by id. Admin only.
func (s *UserService) Get(ctx context.Context, actor *User, id uuid.UUID) (*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.Users().GetByID(ctx, id)
}

// SetRole changes a user's role. Admins cannot change their own role;
// the role value must decode to the closed set.
func (s *UserService) SetRole(ctx context.Context, actor *User, id uuid.UUID, role string) (*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == id {
		return nil, ErrSelfModification
	}

	parsed, ok := ParseRole(role)
	if !ok {
		return nil, goerrors.New("invalid role value", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": role})
	}

	updated, err := s.repo.Users().SetRole(ctx, id, parsed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role updated", "user_id", id, "role", parsed, "actor_id", actor.ID)

	return updated, nil
}

// SetActive toggles a user's active flag. Admins cannot change their
// own status.
func (s *UserService) SetActive(ctx context.Context, actor *User, id uuid.UUID, active bool) (*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == id {
		return nil, ErrSelfModification
	}

	updated, err := s.repo.Users().SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user status updated", "user_id", id, "active", active, "actor_id", actor.ID)

	return updated, nil
}

// Delete removes a user. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return ErrSelfModification
	}

	if err := s.repo.Users().Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", id, "actor_id", actor.ID)

	return nil
}

// ProfileUpdate is the self-service mutation payload. Nil means the
// field was absent from the request.
type ProfileUpdate struct {
	FirstName *string    `json:"first_name,omitempty"`
	Surname   *string    `json:"surname,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
}

// UpdateProfile merges the payload into the actor's own record
func (s *UserService) UpdateProfile(ctx context.Context, actor *User, payload ProfileUpdate) (*User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	current, err := s.repo.Users().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if payload.FirstName != nil {
		current.FirstName = *payload.FirstName
	}
	if payload.Surname != nil {
		current.Surname = *payload.Surname
	}
	if payload.Birthday != nil {
		current.Birthday = payload.Birthday
	}

	return s.repo.Users().Update(ctx, current)
}

func requireAdmin(actor *User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !actor.Role.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
