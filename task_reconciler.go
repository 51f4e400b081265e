package portal

// ReconcileTaskState synchronizes a task's status column with its
// completed flag after an update payload has been merged.
//
// When the payload carries completed, it is authoritative: true pins
// status to "completed", false resets it to "new", overriding any
// status value in the same payload. When only status is present,
// completed is derived from it. A payload touching neither leaves the
// pair untouched.
func ReconcileTaskState(task *Task, payload TaskUpdate) {
	switch {
	case payload.Completed != nil:
		if *payload.Completed {
			task.Status = TaskStatusCompleted
		} else {
			task.Status = TaskStatusNew
		}
		task.Completed = *payload.Completed
	case payload.Status != nil:
		task.Completed = task.Status == TaskStatusCompleted
	}
}
