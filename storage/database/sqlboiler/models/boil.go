// Package models holds the sqlboiler-backed table bindings. The files are
// maintained by hand from slimmed-down sqlboiler templates: no hooks, no
// eager-loading relationships; the repositories join explicitly.
package models

import (
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
)

var TableNames = struct {
	User          string
	Content       string
	StudyGroup    string
	GroupMember   string
	Session       string
	SessionMember string
	Round         string
	Event         string
	SharedCard    string
}{
	User:          "user",
	Content:       "content",
	StudyGroup:    "study_group",
	GroupMember:   "group_member",
	Session:       "session",
	SessionMember: "session_member",
	Round:         "round",
	Event:         "event",
	SharedCard:    "shared_card",
}

var dialect = drivers.Dialect{
	LQ: 0x22,
	RQ: 0x22,

	UseIndexPlaceholders:    true,
	UseLastInsertID:         false,
	UseSchema:               false,
	UseDefaultKeyword:       true,
	UseAutoColumns:          false,
	UseTopClause:            false,
	UseOutputClause:         false,
	UseCaseWhenExistsClause: false,
}

// NewQuery initializes a new Query using the passed in QueryMods
func NewQuery(mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, &dialect)
	qm.Apply(q, mods...)
	return q
}
