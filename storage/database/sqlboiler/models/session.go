package models

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
)

// Session is an object representing the database table.
type Session struct {
	ID        string    `boil:"id" json:"id"`
	GroupID   string    `boil:"group_id" json:"group_id"`
	ContentID string    `boil:"content_id" json:"content_id"`
	Mode      string    `boil:"mode" json:"mode"`
	Layer     string    `boil:"layer" json:"layer"`
	Status    string    `boil:"status" json:"status"`
	StartsAt  null.Time `boil:"starts_at" json:"starts_at"`
	EndsAt    null.Time `boil:"ends_at" json:"ends_at"`
	CreatedAt time.Time `boil:"created_at" json:"created_at"`
	UpdatedAt time.Time `boil:"updated_at" json:"updated_at"`
}

type SessionSlice []*Session

var SessionColumns = struct {
	ID        string
	GroupID   string
	ContentID string
	Mode      string
	Layer     string
	Status    string
	StartsAt  string
	EndsAt    string
	CreatedAt string
	UpdatedAt string
}{
	ID:        "id",
	GroupID:   "group_id",
	ContentID: "content_id",
	Mode:      "mode",
	Layer:     "layer",
	Status:    "status",
	StartsAt:  "starts_at",
	EndsAt:    "ends_at",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

type sessionQuery struct {
	*queries.Query
}

// Sessions retrieves all the records using the default query mods.
func Sessions(mods ...qm.QueryMod) sessionQuery {
	mods = append(mods, qm.From(`"session"`))
	return sessionQuery{NewQuery(mods...)}
}

// FindSession retrieves a single record by ID.
func FindSession(ctx context.Context, exec boil.ContextExecutor, id string) (*Session, error) {
	return Sessions(qm.Where(`"session"."id" = ?`, id)).One(ctx, exec)
}

func (q sessionQuery) One(ctx context.Context, exec boil.ContextExecutor) (*Session, error) {
	o := &Session{}
	queries.SetLimit(q.Query, 1)
	if err := q.Bind(ctx, exec, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q sessionQuery) All(ctx context.Context, exec boil.ContextExecutor) (SessionSlice, error) {
	var o SessionSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q sessionQuery) Count(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	var count int64
	queries.SetSelect(q.Query, nil)
	queries.SetCount(q.Query)
	if err := q.Query.QueryRowContext(ctx, exec).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (o *Session) Insert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "session"
		("id", "group_id", "content_id", "mode", "layer", "status", "starts_at", "ends_at", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := exec.ExecContext(ctx, query,
		o.ID, o.GroupID, o.ContentID, o.Mode, o.Layer, o.Status, o.StartsAt, o.EndsAt, o.CreatedAt, o.UpdatedAt)
	return err
}

func (o *Session) Update(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	const query = `UPDATE "session" SET
		"status" = $2, "starts_at" = $3, "ends_at" = $4, "updated_at" = $5
		WHERE "id" = $1`
	result, err := exec.ExecContext(ctx, query, o.ID, o.Status, o.StartsAt, o.EndsAt, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SessionMember is an object representing the database table.
type SessionMember struct {
	ID               string    `boil:"id" json:"id"`
	SessionID        string    `boil:"session_id" json:"session_id"`
	UserID           string    `boil:"user_id" json:"user_id"`
	AssignedRole     string    `boil:"assigned_role" json:"assigned_role"`
	AttendanceStatus string    `boil:"attendance_status" json:"attendance_status"`
	CreatedAt        time.Time `boil:"created_at" json:"created_at"`
	UpdatedAt        time.Time `boil:"updated_at" json:"updated_at"`
}

type SessionMemberSlice []*SessionMember

var SessionMemberColumns = struct {
	ID               string
	SessionID        string
	UserID           string
	AssignedRole     string
	AttendanceStatus string
	CreatedAt        string
	UpdatedAt        string
}{
	ID:               "id",
	SessionID:        "session_id",
	UserID:           "user_id",
	AssignedRole:     "assigned_role",
	AttendanceStatus: "attendance_status",
	CreatedAt:        "created_at",
	UpdatedAt:        "updated_at",
}

type sessionMemberQuery struct {
	*queries.Query
}

// SessionMembers retrieves all the records using the default query mods.
func SessionMembers(mods ...qm.QueryMod) sessionMemberQuery {
	mods = append(mods, qm.From(`"session_member"`))
	return sessionMemberQuery{NewQuery(mods...)}
}

func (q sessionMemberQuery) One(ctx context.Context, exec boil.ContextExecutor) (*SessionMember, error) {
	o := &SessionMember{}
	queries.SetLimit(q.Query, 1)
	if err := q.Bind(ctx, exec, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q sessionMemberQuery) All(ctx context.Context, exec boil.ContextExecutor) (SessionMemberSlice, error) {
	var o SessionMemberSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *SessionMember) Insert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "session_member"
		("id", "session_id", "user_id", "assigned_role", "attendance_status", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := exec.ExecContext(ctx, query,
		o.ID, o.SessionID, o.UserID, o.AssignedRole, o.AttendanceStatus, o.CreatedAt, o.UpdatedAt)
	return err
}

func (o *SessionMember) Update(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	const query = `UPDATE "session_member" SET
		"attendance_status" = $2, "updated_at" = $3
		WHERE "id" = $1`
	result, err := exec.ExecContext(ctx, query, o.ID, o.AttendanceStatus, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
