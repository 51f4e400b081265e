package portal

import (
	"context"
	"sort"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// EventService manages standalone calendar events and the merged
// calendar feed
type EventService struct {
	repo   RepositoryManager
	tasks  *TaskService
	logger Logger
}

func NewEventService(repo RepositoryManager, tasks *TaskService) *EventService {
	return &EventService{
		repo:   repo,
		tasks:  tasks,
		logger: defLogger{},
	}
}

func (s *EventService) WithLogger(logger Logger) *EventService {
	s.logger = logger
	return s
}

type CreateEventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	EventDate   time.Time `json:"event_date"`
}

// Create persists a new event attributed to the actor
func (s *EventService) Create(ctx context.Context, actor *User, input CreateEventInput) (*Event, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	event := &Event{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		EventDate:   input.EventDate,
		CreatedByID: actor.ID,
	}

	created, err := s.repo.Events().Create(ctx, event)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create event")
	}

	s.logger.Info("event created", "event_id", created.ID, "actor_id", actor.ID)

	return created, nil
}

// List returns every event, visible to any authenticated user
func (s *EventService) List(ctx context.Context, actor *User) ([]*Event, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.repo.Events().List(ctx)
}

// Delete removes an event; creator or admin only
func (s *EventService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	event, err := s.repo.Events().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !actor.Role.IsAdmin() && event.CreatedByID != actor.ID {
		return ErrForbidden
	}

	return s.repo.Events().Delete(ctx, id)
}

// CalendarEntry is one item in the merged feed: a standalone event or
// a task deadline
type CalendarEntry struct {
	Kind  string    `json:"kind"`
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

const (
	CalendarKindEvent        = "event"
	CalendarKindTaskDeadline = "task_deadline"
)

// Calendar merges events with the deadlines of tasks visible to the
// actor, sorted chronologically
func (s *EventService) Calendar(ctx context.Context, actor *User) ([]CalendarEntry, error) {
	events, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}

	taskList, err := s.tasks.List(ctx, actor)
	if err != nil {
		return nil, err
	}

	var entries []CalendarEntry
	for _, event := range events {
		entries = append(entries, CalendarEntry{
			Kind:  CalendarKindEvent,
			ID:    event.ID,
			Title: event.Title,
			Date:  event.EventDate,
		})
	}
	for _, task := range taskList {
		if task.Deadline == nil {
			continue
		}
		entries = append(entries, CalendarEntry{
			Kind:  CalendarKindTaskDeadline,
			ID:    task.ID,
			Title: task.Title,
			Date:  *task.Deadline,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	return entries, nil
}
