// Package sqlfixture persists fixture objects with database/sql.
//
// OnCreate and OnBulkCreate return hooks that insert built objects into a
// table:
//
//	table := sqlfixture.Table[*User]{
//	    Name: "users",
//	    Columns: func(u *User) ([]string, []any) {
//	        return []string{"name", "email"}, []any{u.Name, u.Email}
//	    },
//	    SetID: func(u *User, id int64) *User {
//	        u.ID = id
//	        return u
//	    },
//	}
//	users := userFactory.OnCreate(sqlfixture.OnCreate(db, table))
package sqlfixture

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/syssam/fixture"
)

// Dialect names the SQL dialect used to quote identifiers and number
// placeholders.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// DB is the subset of *sql.DB used by the hooks.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// ColumnsFunc returns the columns of obj and their values, in the same
// order.
type ColumnsFunc[T any] func(obj T) (columns []string, values []any)

// Table describes how objects of type T are stored.
type Table[T any] struct {
	// Name of the table.
	Name string

	// Columns returns the row to insert for an object.
	Columns ColumnsFunc[T]

	// SetID, if set, receives the generated key of each inserted row and
	// returns the object with the key applied.
	SetID func(obj T, id int64) T

	// Returning names the key column fetched with a RETURNING clause. If
	// empty, SetID receives the driver's LastInsertId, which Postgres
	// drivers do not report.
	Returning string
}

type config struct {
	dialect Dialect
	logger  *slog.Logger
}

// Option configures the insert hooks.
type Option func(*config)

// WithDialect sets the SQL dialect. It defaults to SQLite.
func WithDialect(d Dialect) Option {
	return func(c *config) {
		c.dialect = d
	}
}

// WithLogger sets the logger receiving debug records of inserts. It
// defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

type inserter[T any] struct {
	db    DB
	table Table[T]
	config
}

func newInserter[T any](db DB, t Table[T], opts []Option) *inserter[T] {
	if db == nil || t.Columns == nil {
		panic("sqlfixture: nil db or columns function")
	}
	i := &inserter[T]{
		db:     db,
		table:  t,
		config: config{dialect: SQLite, logger: slog.Default()},
	}
	for _, opt := range opts {
		opt(&i.config)
	}
	return i
}

// OnCreate returns an onCreate hook inserting each object as one row.
func OnCreate[T any](db DB, t Table[T], opts ...Option) fixture.OnCreateFunc[T] {
	i := newInserter(db, t, opts)
	return func(ctx context.Context, obj T) (T, error) {
		return i.insert(ctx, i.db, obj)
	}
}

// OnBulkCreate returns an onBulkCreate hook inserting all objects in a
// single transaction. Nothing is inserted if any row fails.
func OnBulkCreate[T any](db DB, t Table[T], opts ...Option) fixture.OnBulkCreateFunc[T] {
	i := newInserter(db, t, opts)
	return func(ctx context.Context, list []T) ([]T, error) {
		tx, err := i.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("sqlfixture: starting transaction: %w", err)
		}
		out := make([]T, len(list))
		for n, obj := range list {
			if out[n], err = i.insert(ctx, tx, obj); err != nil {
				return nil, rollback(tx, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("sqlfixture: committing transaction: %w", err)
		}
		return out, nil
	}
}

// conn is implemented by *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (i *inserter[T]) insert(ctx context.Context, c conn, obj T) (T, error) {
	var zero T
	columns, values := i.table.Columns(obj)
	if len(columns) != len(values) {
		return zero, fmt.Errorf("sqlfixture: %s: %d columns but %d values", i.table.Name, len(columns), len(values))
	}
	query := i.query(columns)
	i.logger.DebugContext(ctx, "sqlfixture: insert", "table", i.table.Name, "query", query)
	if i.table.Returning != "" {
		var id int64
		if err := c.QueryRowContext(ctx, query, values...).Scan(&id); err != nil {
			return zero, &InsertError{Table: i.table.Name, Err: err}
		}
		if i.table.SetID != nil {
			obj = i.table.SetID(obj, id)
		}
		return obj, nil
	}
	res, err := c.ExecContext(ctx, query, values...)
	if err != nil {
		return zero, &InsertError{Table: i.table.Name, Err: err}
	}
	if i.table.SetID != nil {
		id, err := res.LastInsertId()
		if err != nil {
			return zero, &InsertError{Table: i.table.Name, Err: err}
		}
		obj = i.table.SetID(obj, id)
	}
	return obj, nil
}

// query builds the INSERT statement for columns.
func (i *inserter[T]) query(columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(i.quote(i.table.Name))
	if len(columns) == 0 {
		if i.dialect == MySQL {
			b.WriteString(" () VALUES ()")
		} else {
			b.WriteString(" DEFAULT VALUES")
		}
	} else {
		b.WriteString(" (")
		for n, c := range columns {
			if n > 0 {
				b.WriteString(", ")
			}
			b.WriteString(i.quote(c))
		}
		b.WriteString(") VALUES (")
		for n := range columns {
			if n > 0 {
				b.WriteString(", ")
			}
			b.WriteString(i.placeholder(n + 1))
		}
		b.WriteString(")")
	}
	if i.table.Returning != "" {
		b.WriteString(" RETURNING ")
		b.WriteString(i.quote(i.table.Returning))
	}
	return b.String()
}

func (i *inserter[T]) quote(ident string) string {
	if i.dialect == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (i *inserter[T]) placeholder(n int) string {
	if i.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// rollback calls tx.Rollback and wraps the given error with the rollback
// error if one occurred.
func rollback(tx *sql.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}
