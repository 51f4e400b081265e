package portal

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TaskService exposes the task surface: admin-only creation,
// role-filtered listing, and evaluator-gated mutation
type TaskService struct {
	repo   RepositoryManager
	logger Logger
}

func NewTaskService(repo RepositoryManager) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *TaskService) WithLogger(logger Logger) *TaskService {
	s.logger = logger
	return s
}

// CreateTaskInput carries the fields accepted at creation time
type CreateTaskInput struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	StartDate      *time.Time `json:"start_date"`
	Deadline       *time.Time `json:"deadline"`
	DeadlineAllDay bool       `json:"deadline_all_day"`
	Urgency        bool       `json:"urgency"`
	Important      bool       `json:"important"`
	GroupID        *uuid.UUID `json:"group_id"`
	CompanyID      *uuid.UUID `json:"company_id"`
}

// Create persists a new task owned by the actor. Only admins create
// tasks.
func (s *TaskService) Create(ctx context.Context, actor *User, input CreateTaskInput) (*Task, error) {
	decision := EvaluateTaskAccess(actor, nil, false, IntentCreate)
	if !decision.Allowed {
		return nil, ErrForbidden
	}

	task := &Task{
		Title:          input.Title,
		Description:    input.Description,
		StartDate:      input.StartDate,
		Deadline:       input.Deadline,
		DeadlineAllDay: input.DeadlineAllDay,
		Urgency:        input.Urgency,
		Important:      input.Important,
		OwnerID:        actor.ID,
		GroupID:        input.GroupID,
		CompanyID:      input.CompanyID,
	}

	created, err := s.repo.Tasks().Create(ctx, task)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create task")
	}

	s.logger.Info("task created", "task_id", created.ID, "owner_id", actor.ID)

	return created, nil
}

// List returns tasks visible to the actor: everything for admins,
// owned tasks plus tasks of the actor's groups for everyone else
func (s *TaskService) List(ctx context.Context, actor *User) ([]*Task, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	if actor.Role.IsAdmin() {
		return s.repo.Tasks().ListAll(ctx)
	}

	groupIDs, err := s.repo.Groups().GroupIDsForUser(ctx, actor.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to resolve group membership")
	}

	return s.repo.Tasks().ListForUser(ctx, actor.ID, groupIDs)
}

// Get loads a task if the actor may read it
func (s *TaskService) Get(ctx context.Context, actor *User, id uuid.UUID) (*Task, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	isMember, err := s.membership(ctx, actor, task)
	if err != nil {
		return nil, err
	}

	if decision := EvaluateTaskAccess(actor, task, isMember, IntentRead); !decision.Allowed {
		return nil, ErrForbidden
	}

	return task, nil
}

// Update applies a partial payload under the access evaluator, then
// reconciles status/completed before persisting. Merge, reconcile, and
// write happen in a single transaction against a fresh row.
func (s *TaskService) Update(ctx context.Context, actor *User, id uuid.UUID, payload TaskUpdate) (*Task, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	isMember, err := s.membership(ctx, actor, task)
	if err != nil {
		return nil, err
	}

	if _, err := DecideTaskUpdate(actor, task, isMember, payload); err != nil {
		return nil, err
	}

	var updated *Task
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := s.repo.Tasks().GetByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		payload.ApplyTo(current)
		ReconcileTaskState(current, payload)

		updated, err = s.repo.Tasks().UpdateTx(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, s.wrapStoreErr(err, "failed to update task")
	}

	return updated, nil
}

// Delete removes a task; owner or admin only
func (s *TaskService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return err
	}

	isMember, err := s.membership(ctx, actor, task)
	if err != nil {
		return err
	}

	if decision := EvaluateTaskAccess(actor, task, isMember, IntentDelete); !decision.Allowed {
		return ErrForbidden
	}

	if err := s.repo.Tasks().Delete(ctx, id); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to delete task")
	}

	s.logger.Info("task deleted", "task_id", id, "actor_id", actor.ID)

	return nil
}

func (s *TaskService) loadTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	task, err := s.repo.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapStoreErr(err, "failed to load task")
	}
	return task, nil
}

// membership is read fresh from the store on every evaluation
func (s *TaskService) membership(ctx context.Context, actor *User, task *Task) (bool, error) {
	if actor == nil || task == nil || task.GroupID == nil {
		return false, nil
	}
	isMember, err := s.repo.Groups().IsMember(ctx, *task.GroupID, actor.ID)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to resolve group membership")
	}
	return isMember, nil
}

func (s *TaskService) wrapStoreErr(err error, msg string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg)
}
