package portal_test

import (
	"testing"

	portal "github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
)

func TestReconcileTaskState(t *testing.T) {
	cases := []struct {
		name          string
		task          portal.Task
		payload       portal.TaskUpdate
		wantStatus    string
		wantCompleted bool
	}{
		{
			name:          "completed true pins status",
			task:          portal.Task{Status: portal.TaskStatusNew},
			payload:       portal.TaskUpdate{Completed: boolPtr(true)},
			wantStatus:    portal.TaskStatusCompleted,
			wantCompleted: true,
		},
		{
			name:          "completed false resets status to new",
			task:          portal.Task{Status: portal.TaskStatusCompleted, Completed: true},
			payload:       portal.TaskUpdate{Completed: boolPtr(false)},
			wantStatus:    portal.TaskStatusNew,
			wantCompleted: false,
		},
		{
			name:          "completed wins over a conflicting status",
			task:          portal.Task{Status: "in_progress"},
			payload:       portal.TaskUpdate{Completed: boolPtr(true), Status: strPtr("in_progress")},
			wantStatus:    portal.TaskStatusCompleted,
			wantCompleted: true,
		},
		{
			name:          "status completed derives the flag",
			task:          portal.Task{Status: portal.TaskStatusCompleted},
			payload:       portal.TaskUpdate{Status: strPtr(portal.TaskStatusCompleted)},
			wantStatus:    portal.TaskStatusCompleted,
			wantCompleted: true,
		},
		{
			name:          "status new clears the flag",
			task:          portal.Task{Status: portal.TaskStatusNew, Completed: true},
			payload:       portal.TaskUpdate{Status: strPtr(portal.TaskStatusNew)},
			wantStatus:    portal.TaskStatusNew,
			wantCompleted: false,
		},
		{
			name:          "workflow status other than completed clears the flag",
			task:          portal.Task{Status: "in_progress", Completed: true},
			payload:       portal.TaskUpdate{Status: strPtr("in_progress")},
			wantStatus:    "in_progress",
			wantCompleted: false,
		},
		{
			name:          "payload without either field is a no-op",
			task:          portal.Task{Status: "in_progress", Completed: false},
			payload:       portal.TaskUpdate{Title: strPtr("renamed")},
			wantStatus:    "in_progress",
			wantCompleted: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := tc.task
			// the reconciler runs against the merged record
			tc.payload.ApplyTo(&task)
			portal.ReconcileTaskState(&task, tc.payload)

			assert.Equal(t, tc.wantStatus, task.Status)
			assert.Equal(t, tc.wantCompleted, task.Completed)
		})
	}
}
