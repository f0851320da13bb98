package group

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// Member roles
const (
	RoleOwner  = "OWNER"
	RoleMod    = "MOD"
	RoleMember = "MEMBER"
)

// Member statuses
const (
	StatusActive  = "ACTIVE"
	StatusInvited = "INVITED"
	StatusRemoved = "REMOVED"
)

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	Members []Member `json:"members,omitempty"` // loaded on detail views
}

// ActiveMembers returns the group's ACTIVE members ordered by user ID.
// The ordering is deterministic on purpose: session role rotation depends on
// a stable member order, never on arbitrary DB order.
func (g Group) ActiveMembers() []Member {
	members := make([]Member, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Status == StatusActive {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members
}

// MemberByUserID returns the group's Member row for given user, if any.
func (g Group) MemberByUserID(userID string) (Member, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

type Member struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC

	User *user.User `json:"user,omitempty"` // loaded on detail views
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	return validate.Struct(ng)
}

// InviteMember identifies the user to invite by email.
type InviteMember struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=MOD MEMBER"`
}

func (im *InviteMember) Validate(validate *validator.Validate) error {
	im.Email = core.CleanString(im.Email, true /* lower */)
	if im.Role == "" {
		im.Role = RoleMember
	}
	return validate.Struct(im)
}
