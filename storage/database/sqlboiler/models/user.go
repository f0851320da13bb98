package models

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/sqlboiler/v4/types"
)

// User is an object representing the database table.
type User struct {
	ID           string            `boil:"id" json:"id"`
	Name         string            `boil:"name" json:"name"`
	Username     string            `boil:"username" json:"username"`
	Email        string            `boil:"email" json:"email"`
	IsActive     null.Bool         `boil:"is_active" json:"is_active"`
	Roles        types.StringArray `boil:"roles" json:"roles"`
	PasswordHash null.Bytes        `boil:"password_hash" json:"-"`
	CreatedAt    time.Time         `boil:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `boil:"updated_at" json:"updated_at"`
	LastLogin    null.Time         `boil:"last_login" json:"last_login"`
}

type UserSlice []*User

var UserColumns = struct {
	ID           string
	Name         string
	Username     string
	Email        string
	IsActive     string
	Roles        string
	PasswordHash string
	CreatedAt    string
	UpdatedAt    string
	LastLogin    string
}{
	ID:           "id",
	Name:         "name",
	Username:     "username",
	Email:        "email",
	IsActive:     "is_active",
	Roles:        "roles",
	PasswordHash: "password_hash",
	CreatedAt:    "created_at",
	UpdatedAt:    "updated_at",
	LastLogin:    "last_login",
}

type userQuery struct {
	*queries.Query
}

// Users retrieves all the records using the default query mods.
func Users(mods ...qm.QueryMod) userQuery {
	mods = append(mods, qm.From(`"user"`))
	return userQuery{NewQuery(mods...)}
}

// FindUser retrieves a single record by ID.
func FindUser(ctx context.Context, exec boil.ContextExecutor, id string) (*User, error) {
	return Users(qm.Where(`"user"."id" = ?`, id)).One(ctx, exec)
}

// One returns a single user record from the query.
func (q userQuery) One(ctx context.Context, exec boil.ContextExecutor) (*User, error) {
	o := &User{}
	queries.SetLimit(q.Query, 1)
	if err := q.Bind(ctx, exec, o); err != nil {
		return nil, err
	}
	return o, nil
}

// All returns all user records from the query.
func (q userQuery) All(ctx context.Context, exec boil.ContextExecutor) (UserSlice, error) {
	var o UserSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

// Count returns the count of all user records in the query.
func (q userQuery) Count(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	var count int64
	queries.SetSelect(q.Query, nil)
	queries.SetCount(q.Query)
	if err := q.Query.QueryRowContext(ctx, exec).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if the row exists in the table.
func (q userQuery) Exists(ctx context.Context, exec boil.ContextExecutor) (bool, error) {
	var count int64
	queries.SetSelect(q.Query, nil)
	queries.SetCount(q.Query)
	queries.SetLimit(q.Query, 1)
	if err := q.Query.QueryRowContext(ctx, exec).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteAll deletes all matching rows.
func (q userQuery) DeleteAll(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	queries.SetDelete(q.Query)
	result, err := q.Query.ExecContext(ctx, exec)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Insert a single record.
func (o *User) Insert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "user"
		("id", "name", "username", "email", "is_active", "roles", "password_hash", "created_at", "updated_at", "last_login")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := exec.ExecContext(ctx, query,
		o.ID, o.Name, o.Username, o.Email, o.IsActive, o.Roles, o.PasswordHash, o.CreatedAt, o.UpdatedAt, o.LastLogin)
	return err
}

// Update a single record by ID.
func (o *User) Update(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	const query = `UPDATE "user" SET
		"name" = $2, "username" = $3, "email" = $4, "is_active" = $5, "roles" = $6,
		"password_hash" = $7, "updated_at" = $8, "last_login" = $9
		WHERE "id" = $1`
	result, err := exec.ExecContext(ctx, query,
		o.ID, o.Name, o.Username, o.Email, o.IsActive, o.Roles, o.PasswordHash, o.UpdatedAt, o.LastLogin)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
