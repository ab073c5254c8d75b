package sqlfixture_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/syssam/fixture/contrib/sqlfixture"
)

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
		check      bool
	}{
		{
			name:   "postgres unique",
			err:    &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "users_email_key"`},
			unique: true,
		},
		{
			name:       "postgres foreign key",
			err:        &pq.Error{Code: "23503", Message: `insert or update on table "posts" violates foreign key constraint "posts_user_id_fkey"`},
			foreignKey: true,
		},
		{
			name:  "postgres check",
			err:   &pq.Error{Code: "23514", Message: `new row for relation "users" violates check constraint "age_positive"`},
			check: true,
		},
		{
			name:   "mysql duplicate entry",
			err:    &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@example.com' for key 'email'"},
			unique: true,
		},
		{
			name:       "mysql foreign key",
			err:        &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"},
			foreignKey: true,
		},
		{
			name:  "mysql check",
			err:   &mysql.MySQLError{Number: 3819, Message: "Check constraint 'age_positive' is violated."},
			check: true,
		},
		{
			name:   "sqlite unique",
			err:    errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"),
			unique: true,
		},
		{
			name:       "sqlite foreign key",
			err:        errors.New("constraint failed: FOREIGN KEY constraint failed (787)"),
			foreignKey: true,
		},
		{
			name: "other",
			err:  errors.New("connection refused"),
		},
		{
			name: "nil",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.err
			if err != nil {
				err = &sqlfixture.InsertError{Table: "users", Err: fmt.Errorf("wrapped: %w", err)}
			}
			assert.Equal(t, tt.unique, sqlfixture.IsUniqueConstraintError(err))
			assert.Equal(t, tt.foreignKey, sqlfixture.IsForeignKeyConstraintError(err))
			assert.Equal(t, tt.check, sqlfixture.IsCheckConstraintError(err))
			assert.Equal(t, tt.unique || tt.foreignKey || tt.check, sqlfixture.IsConstraintError(err))
		})
	}
}

func TestInsertError(t *testing.T) {
	underlying := errors.New("boom")
	err := &sqlfixture.InsertError{Table: "users", Err: underlying}
	assert.Equal(t, "sqlfixture: inserting into users: boom", err.Error())
	assert.ErrorIs(t, err, underlying)
}
