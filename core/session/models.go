package session

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/user"
)

// Session statuses
const (
	StatusCreated  = "CREATED"
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
)

// Session modes & layers
const (
	ModePISprint = "PI_SPRINT"

	LayerL1 = "L1"
	LayerL2 = "L2"
	LayerL3 = "L3"
)

// Functional roles, in rotation order.
const (
	RoleFacilitator = "FACILITATOR"
	RoleTimekeeper  = "TIMEKEEPER"
	RoleClarifier   = "CLARIFIER"
	RoleConnector   = "CONNECTOR"
	RoleScribe      = "SCRIBE"
)

// AssignedRoles is the fixed, ordered role list used by the rotation.
var AssignedRoles = []string{RoleFacilitator, RoleTimekeeper, RoleClarifier, RoleConnector, RoleScribe}

// Attendance statuses
const (
	AttendanceJoined = "JOINED"
	AttendanceLeft   = "LEFT"
)

// Round statuses. A CREATED round is also the implicit "voting open" state:
// prompt updates and votes are permitted in CREATED.
const (
	RoundCreated    = "CREATED"
	RoundDiscussing = "DISCUSSING"
	RoundExplaining = "EXPLAINING"
	RoundDone       = "DONE"
)

// Round types
const RoundTypePI = "PI"

// Event types. EventType is free-form; these are the ones the engine acts on.
const (
	EventPIVote           = "PI_VOTE_SUBMIT"
	EventPIRevote         = "PI_REVOTE_SUBMIT"
	EventGroupExplanation = "GROUP_EXPLANATION_SUBMIT"
	EventChatMessage      = "CHAT_MESSAGE"
)

// Bus event vocabulary.
const (
	BcastSessionStarted    = "SESSION_STARTED"
	BcastSessionUpdated    = "SESSION_UPDATED"
	BcastPromptUpdated     = "PROMPT_UPDATED"
	BcastRoundAdvanced     = "ROUND_ADVANCED"
	BcastVoteSubmitted     = "VOTE_SUBMITTED"
	BcastRevoteSubmitted   = "REVOTE_SUBMITTED"
	BcastSharedCardCreated = "SHARED_CARD_CREATED"
	BcastChatMessage       = "CHAT_MESSAGE"
)

type Session struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	ContentID string    `json:"content_id"`
	Mode      string    `json:"mode"`
	Layer     string    `json:"layer"`
	Status    string    `json:"status"`
	StartsAt  time.Time `json:"starts_at,omitempty"` // UTC; zero until started
	EndsAt    time.Time `json:"ends_at,omitempty"`   // UTC; zero until finished
	CreatedAt time.Time `json:"created_at"`          // UTC
	UpdatedAt time.Time `json:"updated_at"`          // UTC

	// loaded on detail views
	Group   *group.Group     `json:"group,omitempty"`
	Content *content.Content `json:"content,omitempty"`
	Members []Member         `json:"members,omitempty"`
	Rounds  []Round          `json:"rounds,omitempty"` // ordered by RoundIndex
}

// MemberByUserID returns the session Member row for given user, if any.
func (s Session) MemberByUserID(userID string) (Member, bool) {
	for _, m := range s.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// JoinedMembers returns the session members currently JOINED.
func (s Session) JoinedMembers() []Member {
	members := make([]Member, 0, len(s.Members))
	for _, m := range s.Members {
		if m.AttendanceStatus == AttendanceJoined {
			members = append(members, m)
		}
	}
	return members
}

// RoundByIndex returns the session's round with given 1-based index.
func (s Session) RoundByIndex(idx int) (Round, bool) {
	for _, r := range s.Rounds {
		if r.RoundIndex == idx {
			return r, true
		}
	}
	return Round{}, false
}

// Capabilities is what a user may do within a loaded session. It is derived
// from freshly loaded state on every call; client-asserted roles are never
// trusted.
type Capabilities struct {
	Facilitate bool // control round/session progression
	Scribe     bool // submit the round's group explanation
}

// CapabilitiesOf derives a user's capabilities from the session's assigned
// roles and their group role. Facilitation is granted to the session
// FACILITATOR and to group OWNERs/MODs. Requires s.Group to be loaded.
func (s Session) CapabilitiesOf(userID string) Capabilities {
	var caps Capabilities
	if m, ok := s.MemberByUserID(userID); ok {
		caps.Facilitate = m.AssignedRole == RoleFacilitator
		caps.Scribe = m.AssignedRole == RoleScribe
	}
	if !caps.Facilitate && s.Group != nil {
		if gm, ok := s.Group.MemberByUserID(userID); ok && gm.Status == group.StatusActive {
			caps.Facilitate = gm.Role == group.RoleOwner || gm.Role == group.RoleMod
		}
	}
	return caps
}

type Member struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	AssignedRole     string    `json:"assigned_role,omitempty"` // empty when >5 active members
	AttendanceStatus string    `json:"attendance_status"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC

	User *user.User `json:"user,omitempty"` // loaded on detail views
}

type Round struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	RoundIndex int       `json:"round_index"` // 1-based, unique within the session
	RoundType  string    `json:"round_type"`
	Prompt     Prompt    `json:"prompt"`
	Timing     Timing    `json:"timing"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Prompt is the question posed for a round. Updates overwrite it entirely.
type Prompt struct {
	Text               string   `json:"text,omitempty"`
	Options            []string `json:"options,omitempty"`
	LinkedHighlightIDs []string `json:"linked_highlight_ids,omitempty"`
}

// Timing holds the advisory per-phase second budgets. They are data for the
// client; the engine does not enforce deadlines.
type Timing struct {
	VoteSecs    int `json:"vote_secs"`
	DiscussSecs int `json:"discuss_secs"`
	RevoteSecs  int `json:"revote_secs"`
	ExplainSecs int `json:"explain_secs"`
}

// DefaultTimers returns the per-phase budgets for a difficulty layer.
func DefaultTimers(layer string) Timing {
	if layer == LayerL2 || layer == LayerL3 {
		return Timing{VoteSecs: 90, DiscussSecs: 240, RevoteSecs: 90, ExplainSecs: 240}
	}
	return Timing{VoteSecs: 60, DiscussSecs: 180, RevoteSecs: 60, ExplainSecs: 180}
}

// Event is an append-only ledger entry of a member action within a round.
type Event struct {
	ID        string       `json:"id"`
	RoundID   string       `json:"round_id"`
	UserID    string       `json:"user_id"`
	EventType string       `json:"event_type"`
	Payload   EventPayload `json:"payload"`
	CreatedAt time.Time    `json:"created_at"` // UTC
}

// EventPayload carries the per-type event data with explicit fields instead
// of an untyped map; which fields are meaningful depends on Event.EventType.
type EventPayload struct {
	Choice             string   `json:"choice,omitempty"`       // PI_VOTE_SUBMIT / PI_REVOTE_SUBMIT
	GroupAnswer        string   `json:"group_answer,omitempty"` // GROUP_EXPLANATION_SUBMIT
	Prompt             string   `json:"prompt,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
	LinkedHighlightIDs []string `json:"linked_highlight_ids,omitempty"`
	KeyTerms           []string `json:"key_terms,omitempty"`
	Text               string   `json:"text,omitempty"` // chat & free-form types
}

// SharedCard is the durable group-visible summary artifact of a round,
// produced when the SCRIBE submits the group explanation. At most one exists
// per round.
type SharedCard struct {
	ID                 string    `json:"id"`
	RoundID            string    `json:"round_id"`
	Prompt             string    `json:"prompt,omitempty"`
	GroupAnswer        string    `json:"group_answer,omitempty"`
	Explanation        string    `json:"explanation,omitempty"`
	LinkedHighlightIDs []string  `json:"linked_highlight_ids,omitempty"`
	KeyTerms           []string  `json:"key_terms,omitempty"`
	CreatedByUserID    string    `json:"created_by_user_id"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC

	// annotated on session-wide listings
	RoundIndex  int    `json:"round_index,omitempty"`
	RoundStatus string `json:"round_status,omitempty"`
}

// NewSession contains information needed to create a new Session.
type NewSession struct {
	ContentID   string `json:"content_id" validate:"required"`
	Mode        string `json:"mode" validate:"omitempty,oneof=PI_SPRINT"`
	Layer       string `json:"layer" validate:"omitempty,oneof=L1 L2 L3"`
	RoundsCount int    `json:"rounds_count" validate:"required,min=1,max=20"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	if ns.Mode == "" {
		ns.Mode = ModePISprint
	}
	if ns.Layer == "" {
		ns.Layer = LayerL1
	}
	return validate.Struct(ns)
}

// UpdateSessionStatus sets the session's overall status.
type UpdateSessionStatus struct {
	Status string `json:"status" validate:"required,oneof=CREATED RUNNING FINISHED"`
}

func (us *UpdateSessionStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

// UpdatePrompt replaces a round's prompt entirely (no merge).
type UpdatePrompt struct {
	Text               string   `json:"text" validate:"required"`
	Options            []string `json:"options"`
	LinkedHighlightIDs []string `json:"linked_highlight_ids"`
}

func (up *UpdatePrompt) Validate(validate *validator.Validate) error {
	up.Text = core.CleanString(up.Text)
	return validate.Struct(up)
}

// AdvanceRound requests a round status transition.
type AdvanceRound struct {
	Status string `json:"status" validate:"required"`
}

func (ar *AdvanceRound) Validate(validate *validator.Validate) error {
	ar.Status = core.CleanString(ar.Status)
	return validate.Struct(ar)
}

// NewEvent contains information needed to append a ledger entry.
type NewEvent struct {
	RoundIndex int          `json:"round_index" validate:"required,min=1"`
	EventType  string       `json:"event_type" validate:"required"`
	Payload    EventPayload `json:"payload"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.EventType = core.CleanString(ne.EventType)
	return validate.Struct(ne)
}
