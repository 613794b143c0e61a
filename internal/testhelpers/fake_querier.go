// Package testhelpers provides database doubles for unit tests and a shared
// PostgreSQL container for integration tests.
package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tablescope/internal/database"
)

// Result is the canned answer to every query containing a SQL fragment.
type Result struct {
	Columns []string
	Rows    [][]any
	Err     error
}

// Call records one statement sent to the fake.
type Call struct {
	SQL  string
	Args []any
}

type rule struct {
	fragment string
	result   Result
}

// FakeQuerier answers queries from rules matched by SQL substring. Later
// rules take precedence, so a test can override one query of a shared
// fixture. Unmatched statements fail.
type FakeQuerier struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

var _ database.Querier = (*FakeQuerier)(nil)

func NewFakeQuerier() *FakeQuerier {
	return &FakeQuerier{}
}

// On registers rows returned for statements containing fragment.
func (f *FakeQuerier) On(fragment string, columns []string, rows ...[]any) *FakeQuerier {
	return f.add(fragment, Result{Columns: columns, Rows: rows})
}

// Fail makes statements containing fragment return err.
func (f *FakeQuerier) Fail(fragment string, err error) *FakeQuerier {
	return f.add(fragment, Result{Err: err})
}

func (f *FakeQuerier) add(fragment string, r Result) *FakeQuerier {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{fragment: fragment, result: r})
	return f
}

// Calls returns the statements received so far.
func (f *FakeQuerier) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsMatching returns the statements containing fragment.
func (f *FakeQuerier) CallsMatching(fragment string) []Call {
	var matched []Call
	for _, c := range f.Calls() {
		if strings.Contains(c.SQL, fragment) {
			matched = append(matched, c)
		}
	}
	return matched
}

func (f *FakeQuerier) lookup(sql string, args []any) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{SQL: sql, Args: args})
	for i := len(f.rules) - 1; i >= 0; i-- {
		if strings.Contains(sql, f.rules[i].fragment) {
			return f.rules[i].result
		}
	}
	return Result{Err: fmt.Errorf("fake querier: no result for %q", sql)}
}

func (f *FakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	r := f.lookup(sql, args)
	if r.Err != nil {
		return nil, r.Err
	}
	return &fakeRows{columns: r.Columns, rows: r.Rows, pos: -1}, nil
}

func (f *FakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	r := f.lookup(sql, args)
	return &fakeRow{result: r}
}

func (f *FakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r := f.lookup(sql, args)
	if r.Err != nil {
		return pgconn.CommandTag{}, r.Err
	}
	return pgconn.NewCommandTag(strings.ToUpper(strings.Fields(sql)[0])), nil
}

type fakeRows struct {
	columns []string
	rows    [][]any
	pos     int
	closed  bool
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(r.columns))
	for i, name := range r.columns {
		fields[i] = pgconn.FieldDescription{Name: name}
	}
	return fields
}

func (r *fakeRows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	if r.pos >= len(r.rows) {
		r.closed = true
		return false
	}
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return errors.New("fake rows: scan outside a row")
	}
	return scanInto(r.rows[r.pos], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, errors.New("fake rows: values outside a row")
	}
	return append([]any(nil), r.rows[r.pos]...), nil
}

type fakeRow struct {
	result Result
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.result.Err != nil {
		return r.result.Err
	}
	if len(r.result.Rows) == 0 {
		return pgx.ErrNoRows
	}
	return scanInto(r.result.Rows[0], dest)
}

func scanInto(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("fake rows: %d values into %d destinations", len(values), len(dest))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("fake rows: destination %d is not a pointer", i)
		}
		elem := target.Elem()
		if values[i] == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().ConvertibleTo(elem.Type()) {
			return fmt.Errorf("fake rows: cannot scan %T into %s", values[i], elem.Type())
		}
		elem.Set(v.Convert(elem.Type()))
	}
	return nil
}
