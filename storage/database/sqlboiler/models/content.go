package models

import (
	"context"
	"time"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
)

// Content is an object representing the database table.
type Content struct {
	ID          string    `boil:"id" json:"id"`
	OwnerID     string    `boil:"owner_id" json:"owner_id"`
	Title       string    `boil:"title" json:"title"`
	Kind        string    `boil:"kind" json:"kind"`
	URI         string    `boil:"uri" json:"uri"`
	Description string    `boil:"description" json:"description"`
	CreatedAt   time.Time `boil:"created_at" json:"created_at"`
	UpdatedAt   time.Time `boil:"updated_at" json:"updated_at"`
}

type ContentSlice []*Content

var ContentColumns = struct {
	ID          string
	OwnerID     string
	Title       string
	Kind        string
	URI         string
	Description string
	CreatedAt   string
	UpdatedAt   string
}{
	ID:          "id",
	OwnerID:     "owner_id",
	Title:       "title",
	Kind:        "kind",
	URI:         "uri",
	Description: "description",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
}

type contentQuery struct {
	*queries.Query
}

// Contents retrieves all the records using the default query mods.
func Contents(mods ...qm.QueryMod) contentQuery {
	mods = append(mods, qm.From(`"content"`))
	return contentQuery{NewQuery(mods...)}
}

// FindContent retrieves a single record by ID.
func FindContent(ctx context.Context, exec boil.ContextExecutor, id string) (*Content, error) {
	return Contents(qm.Where(`"content"."id" = ?`, id)).One(ctx, exec)
}

func (q contentQuery) One(ctx context.Context, exec boil.ContextExecutor) (*Content, error) {
	o := &Content{}
	queries.SetLimit(q.Query, 1)
	if err := q.Bind(ctx, exec, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q contentQuery) All(ctx context.Context, exec boil.ContextExecutor) (ContentSlice, error) {
	var o ContentSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q contentQuery) DeleteAll(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	queries.SetDelete(q.Query)
	result, err := q.Query.ExecContext(ctx, exec)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (o *Content) Insert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "content"
		("id", "owner_id", "title", "kind", "uri", "description", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := exec.ExecContext(ctx, query,
		o.ID, o.OwnerID, o.Title, o.Kind, o.URI, o.Description, o.CreatedAt, o.UpdatedAt)
	return err
}

func (o *Content) Update(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	const query = `UPDATE "content" SET
		"title" = $2, "kind" = $3, "uri" = $4, "description" = $5, "updated_at" = $6
		WHERE "id" = $1`
	result, err := exec.ExecContext(ctx, query,
		o.ID, o.Title, o.Kind, o.URI, o.Description, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
