package models

import (
	"context"
	"time"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/sqlboiler/v4/types"
)

// SharedCard is an object representing the database table.
type SharedCard struct {
	ID                 string            `boil:"id" json:"id"`
	RoundID            string            `boil:"round_id" json:"round_id"`
	Prompt             string            `boil:"prompt" json:"prompt"`
	GroupAnswer        string            `boil:"group_answer" json:"group_answer"`
	Explanation        string            `boil:"explanation" json:"explanation"`
	LinkedHighlightIDs types.StringArray `boil:"linked_highlight_ids" json:"linked_highlight_ids"`
	KeyTerms           types.StringArray `boil:"key_terms" json:"key_terms"`
	CreatedByUserID    string            `boil:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt          time.Time         `boil:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `boil:"updated_at" json:"updated_at"`
}

type SharedCardSlice []*SharedCard

var SharedCardColumns = struct {
	ID                 string
	RoundID            string
	Prompt             string
	GroupAnswer        string
	Explanation        string
	LinkedHighlightIDs string
	KeyTerms           string
	CreatedByUserID    string
	CreatedAt          string
	UpdatedAt          string
}{
	ID:                 "id",
	RoundID:            "round_id",
	Prompt:             "prompt",
	GroupAnswer:        "group_answer",
	Explanation:        "explanation",
	LinkedHighlightIDs: "linked_highlight_ids",
	KeyTerms:           "key_terms",
	CreatedByUserID:    "created_by_user_id",
	CreatedAt:          "created_at",
	UpdatedAt:          "updated_at",
}

type sharedCardQuery struct {
	*queries.Query
}

// SharedCards retrieves all the records using the default query mods.
func SharedCards(mods ...qm.QueryMod) sharedCardQuery {
	mods = append(mods, qm.From(`"shared_card"`))
	return sharedCardQuery{NewQuery(mods...)}
}

func (q sharedCardQuery) One(ctx context.Context, exec boil.ContextExecutor) (*SharedCard, error) {
	o := &SharedCard{}
	queries.SetLimit(q.Query, 1)
	if err := q.Bind(ctx, exec, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q sharedCardQuery) All(ctx context.Context, exec boil.ContextExecutor) (SharedCardSlice, error) {
	var o SharedCardSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

// Upsert inserts the card, or updates the round's existing one in place. The
// one-card-per-round invariant rides on the round_id unique constraint; the
// database resolves concurrent submissions, not the application. The
// receiver's ID and CreatedAt are refreshed from the winning row.
func (o *SharedCard) Upsert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "shared_card"
		("id", "round_id", "prompt", "group_answer", "explanation", "linked_highlight_ids", "key_terms", "created_by_user_id", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ("round_id") DO UPDATE SET
			"prompt" = EXCLUDED."prompt",
			"group_answer" = EXCLUDED."group_answer",
			"explanation" = EXCLUDED."explanation",
			"linked_highlight_ids" = EXCLUDED."linked_highlight_ids",
			"key_terms" = EXCLUDED."key_terms",
			"created_by_user_id" = EXCLUDED."created_by_user_id",
			"updated_at" = EXCLUDED."updated_at"
		RETURNING "id", "created_at"`
	return exec.QueryRowContext(ctx, query,
		o.ID, o.RoundID, o.Prompt, o.GroupAnswer, o.Explanation, o.LinkedHighlightIDs, o.KeyTerms,
		o.CreatedByUserID, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID, &o.CreatedAt)
}
