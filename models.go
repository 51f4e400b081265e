package portal

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	Surname       string     `bun:"surname" json:"surname,omitempty"`
	Birthday      *time.Time `bun:"birthday,nullzero" json:"birthday,omitempty"`
	Role          UserRole   `bun:"role,notnull,default:'user'" json:"role,omitempty"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	Groups        []*Group   `bun:"m2m:group_members,join:User=Group" json:"groups,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// FullName is used when addressing the user in notifications
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.Surname != "":
		return u.FirstName + " " + u.Surname
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// Group is a named collection of users; membership is a set relation
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:grp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Members       []*User    `bun:"m2m:group_members,join:Group=User" json:"members,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// GroupMember is the join row between users and groups
type GroupMember struct {
	bun.BaseModel `bun:"table:group_members,alias:gm"`
	GroupID       uuid.UUID `bun:"group_id,pk,type:uuid" json:"group_id,omitempty"`
	Group         *Group    `bun:"rel:belongs-to,join:group_id=id" json:"-"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

// TaskStatus is a free form workflow string; these two values carry
// linked semantics enforced by the reconciler.
const (
	TaskStatusNew       = "new"
	TaskStatusCompleted = "completed"
)

// Task is owned by exactly one user and optionally assigned to a
// group and linked to a company
type Task struct {
	bun.BaseModel  `bun:"table:tasks,alias:tsk"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title          string     `bun:"title,notnull" json:"title,omitempty"`
	Description    string     `bun:"description" json:"description,omitempty"`
	StartDate      *time.Time `bun:"start_date,nullzero" json:"start_date,omitempty"`
	Deadline       *time.Time `bun:"deadline,nullzero" json:"deadline,omitempty"`
	DeadlineAllDay bool       `bun:"deadline_all_day" json:"deadline_all_day"`
	Urgency        bool       `bun:"urgency" json:"urgency"`
	Important      bool       `bun:"important" json:"important"`
	Status         string     `bun:"status,notnull,default:'new'" json:"status,omitempty"`
	Completed      bool       `bun:"completed,notnull,default:false" json:"completed"`
	OwnerID        uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	Owner          *User      `bun:"rel:belongs-to,join:owner_id=id" json:"owner,omitempty"`
	GroupID        *uuid.UUID `bun:"group_id,nullzero,type:uuid" json:"group_id,omitempty"`
	Group          *Group     `bun:"rel:belongs-to,join:group_id=id" json:"group,omitempty"`
	CompanyID      *uuid.UUID `bun:"company_id,nullzero,type:uuid" json:"company_id,omitempty"`
	Company        *Company   `bun:"rel:belongs-to,join:company_id=id" json:"company,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ResetTokenStatus records the transition that retired a reset token.
// The single-active-token invariant is carried by IsUsed; the status
// makes the implicit state machine explicit and checkable.
type ResetTokenStatus = string

const (
	// ResetTokenRequested is the initial, redeemable state
	ResetTokenRequested ResetTokenStatus = "requested"
	// ResetTokenRedeemed marks a token consumed by a successful reset
	ResetTokenRedeemed ResetTokenStatus = "redeemed"
	// ResetTokenSuperseded marks a token retired by a newer request
	ResetTokenSuperseded ResetTokenStatus = "superseded"
	// ResetTokenExpired marks a token invalidated lazily on a late redemption attempt
	ResetTokenExpired ResetTokenStatus = "expired"
)

// PasswordResetToken belongs to exactly one user. Rows are never
// physically deleted, they transition to a used state.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`
	ID            uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string           `bun:"token,notnull,unique" json:"token,omitempty"`
	UserID        uuid.UUID        `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User            `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	IsUsed        bool             `bun:"is_used,notnull,default:false" json:"is_used"`
	Status        ResetTokenStatus `bun:"status,notnull,default:'requested'" json:"status,omitempty"`
	CreatedAt     *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	ExpiresAt     *time.Time       `bun:"expires_at,notnull,nullzero" json:"expires_at,omitempty"`
}

// IsActive reports whether the token is still redeemable at the given instant
func (t *PasswordResetToken) IsActive(now time.Time) bool {
	if t.IsUsed || t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.After(now)
}

// MarkUsed retires the token recording the transition that ended it
func (t *PasswordResetToken) MarkUsed(status ResetTokenStatus) *PasswordResetToken {
	t.IsUsed = true
	t.Status = status
	return t
}

// Company is an organization tasks can be linked to
type Company struct {
	bun.BaseModel `bun:"table:companies,alias:cmp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	VATNumber     string     `bun:"vat_number,nullzero,unique" json:"vat_number,omitempty"`
	Occupation    string     `bun:"occupation" json:"occupation,omitempty"`
	CreationDate  *time.Time `bun:"creation_date,nullzero" json:"creation_date,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Event is a calendar entry created by a user
type Event struct {
	bun.BaseModel `bun:"table:events,alias:evt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Location      string     `bun:"location,notnull" json:"location,omitempty"`
	EventDate     time.Time  `bun:"event_date,notnull" json:"event_date"`
	CreatedByID   uuid.UUID  `bun:"created_by_id,notnull,type:uuid" json:"created_by_id,omitempty"`
	CreatedBy     *User      `bun:"rel:belongs-to,join:created_by_id=id" json:"created_by,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
