package portal

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// GroupService manages groups and the membership sets that feed task
// access evaluation
type GroupService struct {
	repo   RepositoryManager
	logger Logger
}

func NewGroupService(repo RepositoryManager) *GroupService {
	return &GroupService{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *GroupService) WithLogger(logger Logger) *GroupService {
	s.logger = logger
	return s
}

// Create persists a new group with a unique name. Admin only.
func (s *GroupService) Create(ctx context.Context, actor *User, name string) (*Group, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if _, err := s.repo.Groups().GetByName(ctx, name); err == nil {
		return nil, ErrDuplicateName
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to check group name")
	}

	created, err := s.repo.Groups().Create(ctx, &Group{Name: name})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create group")
	}

	s.logger.Info("group created", "group_id", created.ID, "actor_id", actor.ID)

	return created, nil
}

// List returns every group, visible to any authenticated user
func (s *GroupService) List(ctx context.Context, actor *User) ([]*Group, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.repo.Groups().List(ctx)
}

// Get loads a group with its member set
func (s *GroupService) Get(ctx context.Context, actor *User, id uuid.UUID) (*Group, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.repo.Groups().GetByID(ctx, id)
}

// AddMember places a user in a group; adding an existing member is a
// no-op. Admin only.
func (s *GroupService) AddMember(ctx context.Context, actor *User, groupID, userID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if _, err := s.repo.Groups().GetByID(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.repo.Users().GetByID(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.Groups().AddMember(ctx, groupID, userID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to add group member")
	}

	s.logger.Info("group member added", "group_id", groupID, "user_id", userID, "actor_id", actor.ID)

	return nil
}

// RemoveMember removes a user from a group. Admin only.
func (s *GroupService) RemoveMember(ctx context.Context, actor *User, groupID, userID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if err := s.repo.Groups().RemoveMember(ctx, groupID, userID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to remove group member")
	}

	s.logger.Info("group member removed", "group_id", groupID, "user_id", userID, "actor_id", actor.ID)

	return nil
}

// Delete removes a group and its membership rows. Admin only.
func (s *GroupService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if err := s.repo.Groups().Delete(ctx, id); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to delete group")
	}

	s.logger.Info("group deleted", "group_id", id, "actor_id", actor.ID)

	return nil
}
