package models

import (
	"context"
	"time"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/sqlboiler/v4/types"
)

// Round is an object representing the database table.
type Round struct {
	ID         string     `boil:"id" json:"id"`
	SessionID  string     `boil:"session_id" json:"session_id"`
	RoundIndex int        `boil:"round_index" json:"round_index"`
	RoundType  string     `boil:"round_type" json:"round_type"`
	Prompt     types.JSON `boil:"prompt" json:"prompt"`
	Timing     types.JSON `boil:"timing" json:"timing"`
	Status     string     `boil:"status" json:"status"`
	CreatedAt  time.Time  `boil:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `boil:"updated_at" json:"updated_at"`
}

type RoundSlice []*Round

var RoundColumns = struct {
	ID         string
	SessionID  string
	RoundIndex string
	RoundType  string
	Prompt     string
	Timing     string
	Status     string
	CreatedAt  string
	UpdatedAt  string
}{
	ID:         "id",
	SessionID:  "session_id",
	RoundIndex: "round_index",
	RoundType:  "round_type",
	Prompt:     "prompt",
	Timing:     "timing",
	Status:     "status",
	CreatedAt:  "created_at",
	UpdatedAt:  "updated_at",
}

type roundQuery struct {
	*queries.Query
}

// Rounds retrieves all the records using the default query mods.
func Rounds(mods ...qm.QueryMod) roundQuery {
	mods = append(mods, qm.From(`"round"`))
	return roundQuery{NewQuery(mods...)}
}

func (q roundQuery) One(ctx context.Context, exec boil.ContextExecutor) (*Round, error) {
	o := &Round{}
	queries.SetLimit(q.Query, 1)
	if err := q.Bind(ctx, exec, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q roundQuery) All(ctx context.Context, exec boil.ContextExecutor) (RoundSlice, error) {
	var o RoundSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Round) Insert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "round"
		("id", "session_id", "round_index", "round_type", "prompt", "timing", "status", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := exec.ExecContext(ctx, query,
		o.ID, o.SessionID, o.RoundIndex, o.RoundType, o.Prompt, o.Timing, o.Status, o.CreatedAt, o.UpdatedAt)
	return err
}

// UpdatePrompt writes only the round's prompt column.
func (o *Round) UpdatePrompt(ctx context.Context, exec boil.ContextExecutor) (int64, error) {
	const query = `UPDATE "round" SET "prompt" = $2, "updated_at" = $3 WHERE "id" = $1`
	result, err := exec.ExecContext(ctx, query, o.ID, o.Prompt, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Event is an object representing the database table.
type Event struct {
	ID        string     `boil:"id" json:"id"`
	RoundID   string     `boil:"round_id" json:"round_id"`
	UserID    string     `boil:"user_id" json:"user_id"`
	EventType string     `boil:"event_type" json:"event_type"`
	Payload   types.JSON `boil:"payload" json:"payload"`
	CreatedAt time.Time  `boil:"created_at" json:"created_at"`
}

type EventSlice []*Event

var EventColumns = struct {
	ID        string
	RoundID   string
	UserID    string
	EventType string
	Payload   string
	CreatedAt string
}{
	ID:        "id",
	RoundID:   "round_id",
	UserID:    "user_id",
	EventType: "event_type",
	Payload:   "payload",
	CreatedAt: "created_at",
}

type eventQuery struct {
	*queries.Query
}

// Events retrieves all the records using the default query mods.
func Events(mods ...qm.QueryMod) eventQuery {
	mods = append(mods, qm.From(`"event"`))
	return eventQuery{NewQuery(mods...)}
}

func (q eventQuery) All(ctx context.Context, exec boil.ContextExecutor) (EventSlice, error) {
	var o EventSlice
	if err := q.Bind(ctx, exec, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (q eventQuery) Exists(ctx context.Context, exec boil.ContextExecutor) (bool, error) {
	var count int64
	queries.SetSelect(q.Query, nil)
	queries.SetCount(q.Query)
	queries.SetLimit(q.Query, 1)
	if err := q.Query.QueryRowContext(ctx, exec).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (o *Event) Insert(ctx context.Context, exec boil.ContextExecutor) error {
	const query = `INSERT INTO "event"
		("id", "round_id", "user_id", "event_type", "payload", "created_at")
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := exec.ExecContext(ctx, query,
		o.ID, o.RoundID, o.UserID, o.EventType, o.Payload, o.CreatedAt)
	return err
}
