// Package dummydb provides in-memory implementations of the core
// repositories, for tests and local hacking without a Postgres instance.
package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		sync.RWMutex
		noopExecutor

		users          map[string]*user.User
		contents       map[string]*content.Content
		groups         map[string]*group.Group
		groupMembers   map[string]*group.Member
		sessions       map[string]*session.Session
		sessionMembers map[string]*session.Member
		rounds         map[string]*session.Round
		events         []session.Event
		sharedCards    map[string]*session.SharedCard // keyed by RoundID
	}

	// noopExecutor satisfies core.DBExecutor; none of its methods are ever
	// reached since the dummy repositories ignore the exec argument.
	noopExecutor struct{}

	noopTx struct{ noopExecutor }
)

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	return &DB{
		users:          make(map[string]*user.User),
		contents:       make(map[string]*content.Content),
		groups:         make(map[string]*group.Group),
		groupMembers:   make(map[string]*group.Member),
		sessions:       make(map[string]*session.Session),
		sessionMembers: make(map[string]*session.Member),
		rounds:         make(map[string]*session.Round),
		sharedCards:    make(map[string]*session.SharedCard),
	}, nil
}

func (db *DB) BeginTx(context.Context, *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{}, nil
}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

func (noopExecutor) Exec(string, ...interface{}) (sql.Result, error) { return nil, sql.ErrConnDone }
func (noopExecutor) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, sql.ErrConnDone
}
func (noopExecutor) Query(string, ...interface{}) (*sql.Rows, error) { return nil, sql.ErrConnDone }
func (noopExecutor) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, sql.ErrConnDone
}
func (noopExecutor) QueryRow(string, ...interface{}) *sql.Row                   { return nil }
func (noopExecutor) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}
