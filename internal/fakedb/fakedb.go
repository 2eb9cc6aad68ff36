// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb provides an in-memory database/sql driver, replaying
// canned result sets.
package fakedb // import "github.com/go-lpc/trkdqm/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
)

var query struct {
	mu    sync.Mutex
	rows  []*Rows
	stmts []string
}

// Run runs f with the provided result sets.
// Each query executed by f consumes the next result set, in order.
func Run(ctx context.Context, rows []Rows, f func(ctx context.Context) error) error {
	query.mu.Lock()
	defer query.mu.Unlock()

	query.rows = make([]*Rows, len(rows))
	for i := range rows {
		rs := rows[i]
		query.rows[i] = &rs
	}
	query.stmts = query.stmts[:0]
	defer func() {
		query.rows = nil
	}()

	return f(ctx)
}

// Queries returns the statements executed so far by the current Run.
func Queries() []string {
	return append([]string(nil), query.stmts...)
}

func next(stmt string) (*Rows, error) {
	query.stmts = append(query.stmts, stmt)
	if len(query.rows) == 0 {
		return nil, fmt.Errorf("fakedb: no result set for query %q", stmt)
	}
	rows := query.rows[0]
	query.rows = query.rows[1:]
	return rows, nil
}

func init() {
	sql.Register("fakedb", &Driver{})
}

// Driver is the fake database driver.
type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

// Conn is a connection to the fake database.
type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query}, nil
}

// Close is a no-op.
func (c *Conn) Close() error {
	return nil
}

// Begin is not supported.
func (c *Conn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("fakedb: transactions not supported")
}

// Stmt is a prepared statement.
type Stmt struct {
	query string
}

// Close is a no-op.
func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns -1: placeholders are not checked.
func (stmt *Stmt) NumInput() int {
	return -1
}

// Exec is not supported.
func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, fmt.Errorf("fakedb: exec not supported")
}

// Query returns the next canned result set.
func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return next(stmt.query)
}

// Rows is a canned result set.
type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Columns returns the names of the columns.
func (rows *Rows) Columns() []string {
	return rows.Names
}

// Close closes the rows iterator.
func (rows *Rows) Close() error {
	return nil
}

// Next populates dest with the next row of data.
// Next returns io.EOF when there are no more rows.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Stmt   = (*Stmt)(nil)
	_ driver.Rows   = (*Rows)(nil)
)
