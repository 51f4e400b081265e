package portal

// TaskIntent is the operation a caller wants to perform on a task
type TaskIntent string

const (
	// IntentRead is any non-mutating access
	IntentRead TaskIntent = "read"
	// IntentUpdateAny is a mutation touching an arbitrary field set
	IntentUpdateAny TaskIntent = "update_any"
	// IntentUpdateRestricted is a mutation limited to the restricted field set
	IntentUpdateRestricted TaskIntent = "update_restricted"
	// IntentCreate is task creation
	IntentCreate TaskIntent = "create"
	// IntentDelete is task deletion
	IntentDelete TaskIntent = "delete"
)

// RestrictedTaskFields is the field set a group member without
// ownership may mutate
var RestrictedTaskFields = []TaskField{TaskFieldStatus, TaskFieldCompleted}

// AccessDecision is the typed outcome of an access evaluation. A nil
// AllowedFields on an allowed decision means unrestricted field
// access; a non-nil slice is an exhaustive allow-list.
type AccessDecision struct {
	Allowed       bool
	AllowedFields []TaskField
	Reason        string
}

// Unrestricted reports whether the decision places no field limits
func (d AccessDecision) Unrestricted() bool {
	return d.Allowed && d.AllowedFields == nil
}

// FieldAllowed reports whether a single field may be mutated
func (d AccessDecision) FieldAllowed(field TaskField) bool {
	if !d.Allowed {
		return false
	}
	if d.AllowedFields == nil {
		return true
	}
	for _, f := range d.AllowedFields {
		if f == field {
			return true
		}
	}
	return false
}

// PermitsFields reports whether every field in the payload set is
// allowed. An empty payload set is always permitted.
func (d AccessDecision) PermitsFields(fields []TaskField) bool {
	for _, f := range fields {
		if !d.FieldAllowed(f) {
			return false
		}
	}
	return d.Allowed
}

func allowAll() AccessDecision {
	return AccessDecision{Allowed: true}
}

func deny(reason string) AccessDecision {
	return AccessDecision{Allowed: false, Reason: reason}
}

// EvaluateTaskAccess decides whether the actor may perform the intent
// on the task. It is a pure function of the snapshot handed to it:
// role and ownership come from the records, group membership is
// resolved by the caller against the store.
func EvaluateTaskAccess(actor *User, task *Task, isGroupMember bool, intent TaskIntent) AccessDecision {
	if actor == nil {
		return deny("no authenticated actor")
	}

	if actor.Role.IsAdmin() {
		return allowAll()
	}

	if intent == IntentCreate {
		return deny("task creation requires the admin role")
	}

	if task == nil {
		return deny("no task to evaluate")
	}

	if task.OwnerID == actor.ID {
		return allowAll()
	}

	if task.GroupID != nil && isGroupMember {
		switch intent {
		case IntentRead:
			return AccessDecision{Allowed: true, AllowedFields: RestrictedTaskFields}
		case IntentUpdateRestricted:
			return AccessDecision{Allowed: true, AllowedFields: RestrictedTaskFields}
		case IntentUpdateAny:
			return deny("group members may only update status and completion")
		case IntentDelete:
			return deny("task deletion requires ownership or the admin role")
		}
	}

	return deny("not authorized for this task")
}

// UpdateIntentFor computes the intent class a mutation falls into:
// admins and owners update without field limits, everyone else is
// held to the restricted set.
func UpdateIntentFor(actor *User, task *Task) TaskIntent {
	if actor != nil && (actor.Role.IsAdmin() || (task != nil && task.OwnerID == actor.ID)) {
		return IntentUpdateAny
	}
	return IntentUpdateRestricted
}

// DecideTaskUpdate evaluates a concrete mutation payload. A payload
// whose field set escapes the actor's allow-list is rejected
// wholesale; partial application is never permitted.
func DecideTaskUpdate(actor *User, task *Task, isGroupMember bool, payload TaskUpdate) (AccessDecision, error) {
	decision := EvaluateTaskAccess(actor, task, isGroupMember, UpdateIntentFor(actor, task))
	if !decision.Allowed {
		return decision, ErrForbidden
	}

	if !decision.PermitsFields(payload.Fields()) {
		decision.Allowed = false
		decision.Reason = "payload touches fields outside the restricted set"
		return decision, ErrForbidden
	}

	return decision, nil
}
