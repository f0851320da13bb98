package models

import (
	"context"
	"time"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
)

// StudyGroup is an object representing the database table.
type StudyGroup struct {
	ID          string    `boil:"id" json:"id"`
	Name        string    `boil:"name" json:"name"`
	Description string    `boil:"description" json:"description"`
	CreatedAt   time.Time `boil:"created_at" json:"created_at"`
	UpdatedAt   time.Time `boil:"updated_at" json:"updated_at"`
}

type StudyGroupSlice []*StudyGroup

var StudyGroupColumns = struct {
	ID          string
	Name        string
	Description string
	CreatedAt   string
	UpdatedAt   string
}{
	ID:          "id",
	Name:        "name",
	Description: "description",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
}

type studyGroupQuery struct {
	*queries.Query
}

// StudyGroups retrieves all the records using the default query mods.
func StudyGroups(mods ...qm.QueryMod) studyGroupQuery {
	mods = append(mods, qm.From(`"study_group"`))
	return studyGroupQuery{NewQuery(mods...)}
}

// FindStudyGroup retrieves a single record by ID.
func FindStudyGroup(ctx context.Context, exec boil.ContextExecutor, id string) (*StudyGroup, error) {
	return StudyGroups(qm.Where(`"study_group"."id" = ?`, id)).One(ctx, exec)
}

func (q studyGroupQuery) One(ctx context.Context, exec boil.ContextExecutor) (*StudyGroup, error) {
	o := &StudyGroup{}
	queries.SetLimit(q.Query, 1)
	if err := q.Bind(ctx, exec, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q studyGroupQuery) All(ctx context.Context, exec boil.ContextExecutor) (StudyGroupSlice, error) {
	var o StudyGroupSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *StudyGroup) Insert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "study_group"
		("id", "name", "description", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5)`
	_, err := exec.ExecContext(ctx, query, o.ID, o.Name, o.Description, o.CreatedAt, o.UpdatedAt)
	return err
}

func (o *StudyGroup) Update(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	const query = `UPDATE "study_group" SET
		"name" = $2, "description" = $3, "updated_at" = $4
		WHERE "id" = $1`
	result, err := exec.ExecContext(ctx, query, o.ID, o.Name, o.Description, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GroupMember is an object representing the database table.
type GroupMember struct {
	ID        string    `boil:"id" json:"id"`
	GroupID   string    `boil:"group_id" json:"group_id"`
	UserID    string    `boil:"user_id" json:"user_id"`
	Role      string    `boil:"role" json:"role"`
	Status    string    `boil:"status" json:"status"`
	CreatedAt time.Time `boil:"created_at" json:"created_at"`
	UpdatedAt time.Time `boil:"updated_at" json:"updated_at"`
}

type GroupMemberSlice []*GroupMember

var GroupMemberColumns = struct {
	ID        string
	GroupID   string
	UserID    string
	Role      string
	Status    string
	CreatedAt string
	UpdatedAt string
}{
	ID:        "id",
	GroupID:   "group_id",
	UserID:    "user_id",
	Role:      "role",
	Status:    "status",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

type groupMemberQuery struct {
	*queries.Query
}

// GroupMembers retrieves all the records using the default query mods.
func GroupMembers(mods ...qm.QueryMod) groupMemberQuery {
	mods = append(mods, qm.From(`"group_member"`))
	return groupMemberQuery{NewQuery(mods...)}
}

func (q groupMemberQuery) One(ctx context.Context, exec boil.ContextExecutor) (*GroupMember, error) {
	o := &GroupMember{}
	queries.SetLimit(q.Query, 1)
	if err := q.Bind(ctx, exec, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q groupMemberQuery) All(ctx context.Context, exec boil.ContextExecutor) (GroupMemberSlice, error) {
	var o GroupMemberSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *GroupMember) Insert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "group_member"
		("id", "group_id", "user_id", "role", "status", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := exec.ExecContext(ctx, query,
		o.ID, o.GroupID, o.UserID, o.Role, o.Status, o.CreatedAt, o.UpdatedAt)
	return err
}

func (o *GroupMember) Update(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	const query = `UPDATE "group_member" SET
		"role" = $2, "status" = $3, "updated_at" = $4
		WHERE "id" = $1`
	result, err := exec.ExecContext(ctx, query, o.ID, o.Role, o.Status, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
