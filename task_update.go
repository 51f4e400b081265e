package portal

import (
	"time"

	"github.com/google/uuid"
)

// TaskField names a mutable task attribute
type TaskField string

const (
	TaskFieldTitle          TaskField = "title"
	TaskFieldDescription    TaskField = "description"
	TaskFieldStartDate      TaskField = "start_date"
	TaskFieldDeadline       TaskField = "deadline"
	TaskFieldDeadlineAllDay TaskField = "deadline_all_day"
	TaskFieldUrgency        TaskField = "urgency"
	TaskFieldImportant      TaskField = "important"
	TaskFieldStatus         TaskField = "status"
	TaskFieldCompleted      TaskField = "completed"
	TaskFieldGroupID        TaskField = "group_id"
	TaskFieldCompanyID      TaskField = "company_id"
)

// TaskUpdate is a partial mutation payload. Nil pointers mean the
// field was absent from the request, which is distinct from an
// explicit zero value.
type TaskUpdate struct {
	Title          *string     `json:"title,omitempty"`
	Description    *string     `json:"description,omitempty"`
	StartDate      *time.Time  `json:"start_date,omitempty"`
	Deadline       *time.Time  `json:"deadline,omitempty"`
	DeadlineAllDay *bool       `json:"deadline_all_day,omitempty"`
	Urgency        *bool       `json:"urgency,omitempty"`
	Important      *bool       `json:"important,omitempty"`
	Status         *string     `json:"status,omitempty"`
	Completed      *bool       `json:"completed,omitempty"`
	GroupID        **uuid.UUID `json:"-"`
	CompanyID      **uuid.UUID `json:"-"`
}

// Fields returns the set of fields present in the payload
func (u TaskUpdate) Fields() []TaskField {
	var fields []TaskField
	if u.Title != nil {
		fields = append(fields, TaskFieldTitle)
	}
	if u.Description != nil {
		fields = append(fields, TaskFieldDescription)
	}
	if u.StartDate != nil {
		fields = append(fields, TaskFieldStartDate)
	}
	if u.Deadline != nil {
		fields = append(fields, TaskFieldDeadline)
	}
	if u.DeadlineAllDay != nil {
		fields = append(fields, TaskFieldDeadlineAllDay)
	}
	if u.Urgency != nil {
		fields = append(fields, TaskFieldUrgency)
	}
	if u.Important != nil {
		fields = append(fields, TaskFieldImportant)
	}
	if u.Status != nil {
		fields = append(fields, TaskFieldStatus)
	}
	if u.Completed != nil {
		fields = append(fields, TaskFieldCompleted)
	}
	if u.GroupID != nil {
		fields = append(fields, TaskFieldGroupID)
	}
	if u.CompanyID != nil {
		fields = append(fields, TaskFieldCompanyID)
	}
	return fields
}

// IsEmpty reports whether nothing is being changed
func (u TaskUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// ApplyTo merges present fields into the task record
func (u TaskUpdate) ApplyTo(task *Task) {
	if u.Title != nil {
		task.Title = *u.Title
	}
	if u.Description != nil {
		task.Description = *u.Description
	}
	if u.StartDate != nil {
		task.StartDate = u.StartDate
	}
	if u.Deadline != nil {
		task.Deadline = u.Deadline
	}
	if u.DeadlineAllDay != nil {
		task.DeadlineAllDay = *u.DeadlineAllDay
	}
	if u.Urgency != nil {
		task.Urgency = *u.Urgency
	}
	if u.Important != nil {
		task.Important = *u.Important
	}
	if u.Status != nil {
		task.Status = *u.Status
	}
	if u.Completed != nil {
		task.Completed = *u.Completed
	}
	if u.GroupID != nil {
		task.GroupID = *u.GroupID
	}
	if u.CompanyID != nil {
		task.CompanyID = *u.CompanyID
	}
}
