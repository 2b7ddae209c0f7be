package api

import (
	"errors"
	"fmt"
	"strings"
)

var errNoFields = errors.New("no fields to update")

// fieldUpdate accumulates SET clauses for the columns a request actually
// supplied, so omitted fields are left untouched. Shared by the item,
// customer and user update handlers.
type fieldUpdate struct {
	clauses []string
	args    []any
}

func (f *fieldUpdate) set(column string, value any) {
	f.clauses = append(f.clauses, column+" = ?")
	f.args = append(f.args, value)
}

func (f *fieldUpdate) empty() bool { return len(f.clauses) == 0 }

// query builds the parameterized UPDATE statement. The modification timestamp
// is always refreshed; an empty field set is an error rather than a no-op
// write. Column names come from handler code, never from request input.
func (f *fieldUpdate) query(table, pkColumn string, id any) (string, []any, error) {
	if f.empty() {
		return "", nil, errNoFields
	}
	sets := append(f.clauses, "updated_at = CURRENT_TIMESTAMP")
	args := append(f.args, id)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(sets, ", "), pkColumn)
	return stmt, args, nil
}
