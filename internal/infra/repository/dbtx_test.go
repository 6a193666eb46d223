//go:build unit

package repository_test

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

// mockDBTX answers every statement with the configured tag or error.
type mockDBTX struct {
	tag      pgconn.CommandTag
	err      error
	rowErr   error
	scanInto func(dest ...any) error
	calls    []execCall
}

func (m *mockDBTX) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.calls = append(m.calls, execCall{sql: sql, args: args})
	return m.tag, m.err
}

func (m *mockDBTX) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.calls = append(m.calls, execCall{sql: sql, args: args})
	return nil, m.err
}

func (m *mockDBTX) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.calls = append(m.calls, execCall{sql: sql, args: args})
	return mockRow{err: m.rowErr, scan: m.scanInto}
}

type mockRow struct {
	err  error
	scan func(dest ...any) error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.scan != nil {
		return r.scan(dest...)
	}
	return nil
}
